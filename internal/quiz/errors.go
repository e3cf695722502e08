package quiz

import "errors"

var (
	// ErrNoQuestions means neither the database nor the question bank
	// has anything for the requested subcategory
	ErrNoQuestions = errors.New("no questions available")
	// ErrNoSession means the user has no test in progress
	ErrNoSession = errors.New("no active test session")
	// ErrIllegalTransition is returned for an action not allowed in the current state
	ErrIllegalTransition = errors.New("illegal quiz transition")
	// ErrEmptyAnswer is returned for blank free text answers
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrInvalidQuestion is returned when a question record fails validation
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrUnknownLevel is returned for a level outside Levels
	ErrUnknownLevel = errors.New("unknown level")
	// ErrUnknownFocus is returned for a focus other than Grammar or Vocabulary
	ErrUnknownFocus = errors.New("unknown focus")
)
