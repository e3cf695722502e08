package models

import "time"

// Flashcard is a question/answer pair for self study
type Flashcard struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}
