package motivation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrUnknownLanguage  = errors.New("unknown language")
	ErrUnknownFrequency = errors.New("unknown frequency")
)

// Language of motivation messages
type Language string

const (
	Dutch     Language = "nl"
	English   Language = "en"
	Ukrainian Language = "uk"
)

// Languages in menu order
var Languages = []Language{Dutch, English, Ukrainian}

// Frequency is how often a subscriber gets a message
type Frequency string

const (
	TwiceADay    Frequency = "twice"
	OnceADay     Frequency = "once"
	EveryTwoDays Frequency = "2days"
	OnceAWeek    Frequency = "week"
)

// Frequencies in menu order
var Frequencies = []Frequency{TwiceADay, OnceADay, EveryTwoDays, OnceAWeek}

// Interval is the minimum time between two messages
func (f Frequency) Interval() time.Duration {
	switch f {
	case TwiceADay:
		return 12 * time.Hour
	case OnceADay:
		return 24 * time.Hour
	case EveryTwoDays:
		return 48 * time.Hour
	case OnceAWeek:
		return 168 * time.Hour
	}
	return 0
}

// ParseLanguage validates a language code
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Languages {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
}

// ParseFrequency validates a frequency code
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if f.Interval() == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownFrequency, s)
	}
	return f, nil
}

// Subscription is one user's motivation preferences
type Subscription struct {
	UserID       int64
	ChatID       int64
	Language     Language
	Frequency    Frequency
	LastSent     time.Time
	SubscribedAt time.Time
}

// Due reports whether a message should go out at now. A subscription
// that never received a message is always due.
func (s Subscription) Due(now time.Time) bool {
	if s.LastSent.IsZero() {
		return true
	}
	interval := s.Frequency.Interval()
	return interval > 0 && now.Sub(s.LastSent) >= interval
}

// Service keeps subscriptions in memory
type Service struct {
	mu   sync.RWMutex
	now  func() time.Time
	subs map[int64]Subscription
}

// NewService creates an empty subscription registry
func NewService() *Service {
	return &Service{
		now:  time.Now,
		subs: make(map[int64]Subscription),
	}
}

// Subscribe stores or replaces the user's preferences
func (s *Service) Subscribe(userID, chatID int64, lang Language, freq Frequency) (Subscription, error) {
	if _, err := ParseLanguage(string(lang)); err != nil {
		return Subscription{}, err
	}
	if _, err := ParseFrequency(string(freq)); err != nil {
		return Subscription{}, err
	}

	sub := Subscription{
		UserID:       userID,
		ChatID:       chatID,
		Language:     lang,
		Frequency:    freq,
		SubscribedAt: s.now(),
	}
	s.mu.Lock()
	s.subs[userID] = sub
	s.mu.Unlock()
	return sub, nil
}

// Unsubscribe removes the user's subscription and reports whether one existed
func (s *Service) Unsubscribe(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.subs[userID]
	delete(s.subs, userID)
	return ok
}

// Subscription returns the user's preferences
func (s *Service) Subscription(userID int64) (Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[userID]
	return sub, ok
}

// IsSubscribed reports whether the user gets messages
func (s *Service) IsSubscribed(userID int64) bool {
	_, ok := s.Subscription(userID)
	return ok
}

// Due returns the subscriptions that should get a message at now,
// ordered by user id
func (s *Service) Due(now time.Time) []Subscription {
	s.mu.RLock()
	var due []Subscription
	for _, sub := range s.subs {
		if sub.Due(now) {
			due = append(due, sub)
		}
	}
	s.mu.RUnlock()

	sort.Slice(due, func(i, j int) bool { return due[i].UserID < due[j].UserID })
	return due
}

// MarkSent records a delivered message
func (s *Service) MarkSent(userID int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subs[userID]; ok {
		sub.LastSent = at
		s.subs[userID] = sub
	}
}

// Len returns the number of subscribers
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
