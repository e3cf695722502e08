package session

import "sync"

// Locker queues work per user: tickets of the same user are served in the
// order they were taken while different users proceed in parallel.
type Locker struct {
	mu    sync.Mutex
	tails map[int64]chan struct{}
}

// Ticket is a place in a user's queue
type Ticket struct {
	l      *Locker
	userID int64
	prev   chan struct{}
	done   chan struct{}
}

// NewLocker creates an empty locker
func NewLocker() *Locker {
	return &Locker{tails: make(map[int64]chan struct{})}
}

// Enqueue takes the next place in the user's queue without blocking
func (l *Locker) Enqueue(userID int64) *Ticket {
	t := &Ticket{l: l, userID: userID, done: make(chan struct{})}

	l.mu.Lock()
	t.prev = l.tails[userID]
	l.tails[userID] = t.done
	l.mu.Unlock()

	return t
}

// Wait blocks until every earlier ticket of the user has been released
func (t *Ticket) Wait() {
	if t.prev != nil {
		<-t.prev
	}
}

// Release hands the turn to the next ticket. It must be called once.
func (t *Ticket) Release() {
	close(t.done)

	t.l.mu.Lock()
	if t.l.tails[t.userID] == t.done {
		delete(t.l.tails, t.userID)
	}
	t.l.mu.Unlock()
}

// Lock blocks until the user's turn comes and returns its release func
func (l *Locker) Lock(userID int64) func() {
	t := l.Enqueue(userID)
	t.Wait()
	return t.Release
}
