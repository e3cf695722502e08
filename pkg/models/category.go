package models

// Category is a top level quiz focus such as Grammar or Vocabulary
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Subcategory is a quiz topic inside a category, e.g. "Present Simple"
type Subcategory struct {
	ID         int64  `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	CategoryID int64  `json:"category_id" db:"category_id"`
}

const (
	FocusGrammar    = "Grammar"
	FocusVocabulary = "Vocabulary"
	FocusOther      = "Other"
)

// DefaultSubcategories is the built-in taxonomy, keyed by focus
var DefaultSubcategories = map[string][]string{
	FocusGrammar: {
		"Present Simple", "Past Simple", "Present Continuous", "Past Continuous",
		"Present Perfect", "Future Simple", "Conditionals", "Reported Speech",
		"Passive Voice", "Modal Verbs",
	},
	FocusVocabulary: {
		"Articles", "Idioms", "Phrasal Verbs", "Prepositions",
		"Adjectives and Adverbs", "Collocations", "Synonyms",
	},
}

// TaxonomyEntry pairs a subcategory with the name of its category
type TaxonomyEntry struct {
	SubcategoryID int64  `db:"subcategory_id"`
	Subcategory   string `db:"subcategory_name"`
	Category      string `db:"category_name"`
}
