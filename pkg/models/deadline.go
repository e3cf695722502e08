package models

import "time"

// Deadline is a titled due date kept per user
type Deadline struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// DateString formats the due date the way users type it
func (d Deadline) DateString() string {
	return d.Date.Format("2006-01-02")
}
