package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/example/studybot/pkg/models"
)

// ErrMalformedResponse is returned when an LLM reply holds no JSON array
var ErrMalformedResponse = errors.New("malformed LLM response")

// ExtractJSONArray strips code fences and returns the text between the
// first '[' and the last ']'
func ExtractJSONArray(text string) (string, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("%w: no JSON array found", ErrMalformedResponse)
	}
	return s[start : end+1], nil
}

// ParseQuestions decodes an LLM reply into question records. Records
// without a type get defaultType and missing options become empty.
func ParseQuestions(text string, defaultType models.QuestionType) ([]models.QuestionRecord, error) {
	raw, err := ExtractJSONArray(text)
	if err != nil {
		return nil, err
	}

	var records []models.QuestionRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	for i := range records {
		if strings.TrimSpace(records[i].QuestionType) == "" {
			records[i].QuestionType = string(defaultType)
		}
		if records[i].Options == nil {
			records[i].Options = []string{}
		}
	}
	return records, nil
}
