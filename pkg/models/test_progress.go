package models

import "time"

// AnswerRecord is a single answer inside an in-progress test
type AnswerRecord struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"userAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation,omitempty"`
	Example       string `json:"example,omitempty"`
}

// TestProgress is a snapshot of an in-progress test stored in user_test_progress
type TestProgress struct {
	UserID               int64     `json:"user_id" db:"user_id"`
	SubcategoryID        int64     `json:"subcategory_id" db:"subcategory_id"`
	CurrentQuestionIndex int       `json:"current_question_index" db:"current_question_index"`
	Answers              string    `json:"answers" db:"answers"` // JSON encoded []AnswerRecord
	IsActive             bool      `json:"is_active" db:"is_active"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}
