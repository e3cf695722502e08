package quiz

import (
	"strings"

	"github.com/example/studybot/pkg/models"
	"golang.org/x/text/cases"
)

// NormalizeAnswer trims surrounding whitespace and case folds
func NormalizeAnswer(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// IsCorrect compares the answer against every acceptable answer
func IsCorrect(q models.Question, answer string) bool {
	got := NormalizeAnswer(answer)
	for _, want := range q.CorrectAnswers {
		if NormalizeAnswer(want) == got {
			return true
		}
	}
	return false
}
