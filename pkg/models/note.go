package models

import "time"

// NoteCategory groups notes
type NoteCategory string

const (
	NoteStudy    NoteCategory = "study"
	NoteWork     NoteCategory = "work"
	NotePersonal NoteCategory = "personal"
	NoteIdeas    NoteCategory = "ideas"
	NoteTasks    NoteCategory = "tasks"
	NoteGoals    NoteCategory = "goals"
)

// NoteCategories lists the categories in menu order
var NoteCategories = []NoteCategory{NoteStudy, NoteWork, NotePersonal, NoteIdeas, NoteTasks, NoteGoals}

// Note is a short free text note
type Note struct {
	ID           string       `json:"id"`
	Category     NoteCategory `json:"category"`
	Content      string       `json:"content"`
	Created      time.Time    `json:"created"`
	LastModified time.Time    `json:"last_modified"`
}
