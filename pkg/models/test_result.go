package models

import (
	"encoding/json"
	"time"
)

// WrongAnswer is one incorrectly answered question of a finished test
type WrongAnswer struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation,omitempty"`
	Example       string `json:"example,omitempty"`
}

// UserResult is a completed test stored in user_results
type UserResult struct {
	ID              int64     `json:"id" db:"id"`
	UserID          int64     `json:"user_id" db:"user_id"`
	TestID          int64     `json:"test_id" db:"test_id"` // subcategory id
	SubcategoryName string    `json:"subcategory_name" db:"subcategory_name"`
	Score           int       `json:"score" db:"score"`
	TotalQuestions  int       `json:"total_questions" db:"total_questions"`
	WrongAnswers    string    `json:"wrong_answers" db:"wrong_answers"` // JSON encoded []WrongAnswer
	CompletedAt     time.Time `json:"completed_at" db:"completed_at"`
}

// DecodeWrongAnswers unpacks the stored wrong answer list
func (r UserResult) DecodeWrongAnswers() ([]WrongAnswer, error) {
	if r.WrongAnswers == "" {
		return nil, nil
	}
	var list []WrongAnswer
	if err := json.Unmarshal([]byte(r.WrongAnswers), &list); err != nil {
		return nil, err
	}
	return list, nil
}
