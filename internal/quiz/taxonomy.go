package quiz

import (
	"sort"
	"strings"
	"sync"

	"github.com/example/studybot/pkg/models"
)

// Levels offered to users
var Levels = []string{"A2", "B1", "B2"}

// CountOptions are the test lengths offered to users
var CountOptions = []int{5, 10, 15}

// DefaultCount is used when a test is started without a length
const DefaultCount = 5

// NormalizeFocus maps "grammar"/"vocabulary" in any case to the canonical name
func NormalizeFocus(focus string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(focus)) {
	case "grammar":
		return models.FocusGrammar, true
	case "vocabulary":
		return models.FocusVocabulary, true
	}
	return "", false
}

// NormalizeLevel upper-cases a level and checks it is offered
func NormalizeLevel(level string) (string, bool) {
	level = strings.ToUpper(strings.TrimSpace(level))
	for _, l := range Levels {
		if l == level {
			return l, true
		}
	}
	return "", false
}

type subcategoryInfo struct {
	id    int64
	name  string
	focus string
}

// Taxonomy maps subcategory names to their focus and database id
type Taxonomy struct {
	mu      sync.RWMutex
	entries map[string]subcategoryInfo
}

// NewTaxonomy starts from the built-in subcategory lists
func NewTaxonomy() *Taxonomy {
	t := &Taxonomy{entries: make(map[string]subcategoryInfo)}
	for focus, names := range models.DefaultSubcategories {
		for _, name := range names {
			t.entries[strings.ToLower(name)] = subcategoryInfo{name: name, focus: focus}
		}
	}
	return t
}

// Merge adds database subcategories, overriding the built-in focus
func (t *Taxonomy) Merge(entries []models.TaxonomyEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range entries {
		focus := e.Category
		if canonical, ok := NormalizeFocus(focus); ok {
			focus = canonical
		}
		t.entries[strings.ToLower(strings.TrimSpace(e.Subcategory))] = subcategoryInfo{
			id:    e.SubcategoryID,
			name:  strings.TrimSpace(e.Subcategory),
			focus: focus,
		}
	}
}

// FocusOf returns Grammar, Vocabulary or Other for a subcategory
func (t *Taxonomy) FocusOf(subcategory string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if info, ok := t.entries[strings.ToLower(strings.TrimSpace(subcategory))]; ok {
		return info.focus
	}
	return models.FocusOther
}

// ID returns the database id of a subcategory, if known
func (t *Taxonomy) ID(subcategory string) (int64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	info, ok := t.entries[strings.ToLower(strings.TrimSpace(subcategory))]
	if !ok || info.id == 0 {
		return 0, false
	}
	return info.id, true
}

// Names returns the known subcategories of a focus
func (t *Taxonomy) Names(focus string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var names []string
	for _, info := range t.entries {
		if strings.EqualFold(info.focus, focus) {
			names = append(names, info.name)
		}
	}
	sort.Strings(names)
	return names
}
