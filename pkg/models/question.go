package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// QuestionType is the answer format of a quiz question
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	FillInBlank    QuestionType = "fill_in_blank"
)

// Origin tells where a question was loaded from
type Origin string

const (
	OriginDatabase  Origin = "database"
	OriginStatic    Origin = "static"
	OriginGenerated Origin = "generated"
)

// Question is the normalised question record the quiz engine works with
type Question struct {
	ID             int64        `json:"id,omitempty"`
	Subcategory    string       `json:"subcategory" validate:"required"`
	Level          string       `json:"level"`
	Text           string       `json:"question_text" validate:"required"`
	Type           QuestionType `json:"question_type" validate:"required,oneof=multiple_choice true_false fill_in_blank"`
	Options        []string     `json:"options" validate:"dive,required"`
	CorrectAnswers []string     `json:"correct_answers" validate:"min=1,dive,required"`
	Explanation    string       `json:"explanation"`
	Example        string       `json:"example"`
	Origin         Origin       `json:"origin"`
}

// QuestionRow is a row of the questions table
type QuestionRow struct {
	ID            int64   `db:"id"`
	SubcategoryID int64   `db:"subcategory_id"`
	Level         string  `db:"level"`
	QuestionText  string  `db:"question_text"`
	QuestionType  string  `db:"question_type"`
	Options       *string `db:"options"`
	CorrectAnswer string  `db:"correct_answer"`
	Explanation   *string `db:"explanation"`
	Example       *string `db:"example"`

	SubcategoryName string `db:"subcategory_name"`
}

// QuestionRecord is the wire shape of a question in the static JSON bank,
// import files and LLM responses
type QuestionRecord struct {
	SubcategoryName string     `json:"subcategory_name"`
	Level           string     `json:"level"`
	QuestionText    string     `json:"question_text"`
	QuestionType    string     `json:"question_type"`
	Options         []string   `json:"options"`
	CorrectAnswer   AnswerList `json:"correct_answer"`
	Explanation     string     `json:"explanation"`
	Example         string     `json:"example"`
}

// AnswerList holds one or more acceptable answers. In JSON it may be
// either a single string or an array of strings.
type AnswerList []string

// UnmarshalJSON accepts a string, an array of strings or null
func (a *AnswerList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = nil
		return nil
	}

	if data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("invalid answer list: %w", err)
		}
		*a = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		// numbers and booleans show up in generated questions
		var raw interface{}
		if err2 := json.Unmarshal(data, &raw); err2 != nil {
			return fmt.Errorf("invalid answer: %w", err)
		}
		single = fmt.Sprint(raw)
	}
	*a = AnswerList{single}
	return nil
}

// MarshalJSON writes a single answer as a plain string
func (a AnswerList) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

// String renders the answers joined for display
func (a AnswerList) String() string {
	switch len(a) {
	case 0:
		return ""
	case 1:
		return a[0]
	}
	var buf bytes.Buffer
	for i, s := range a {
		if i > 0 {
			buf.WriteString(" / ")
		}
		buf.WriteString(s)
	}
	return buf.String()
}

// EncodeAnswers stores a single answer as plain text and several answers
// as a JSON array
func EncodeAnswers(answers []string) string {
	if len(answers) == 1 {
		return answers[0]
	}
	data, _ := json.Marshal(answers)
	return string(data)
}

// DecodeAnswers is the inverse of EncodeAnswers
func DecodeAnswers(stored string) []string {
	trimmed := strings.TrimSpace(stored)
	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
			return list
		}
	}
	if trimmed == "" {
		return nil
	}
	return []string{stored}
}
