package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/example/studybot/internal/motivation"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []time.Time
	ctxs  []context.Context
	stats motivation.DispatchStats
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, now time.Time) motivation.DispatchStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	f.ctxs = append(f.ctxs, ctx)
	return f.stats
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSweeper struct {
	evicted int
	calls   int
}

func (f *fakeSweeper) Sweep() int {
	f.calls++
	return f.evicted
}

func TestRunDispatchUsesClock(t *testing.T) {
	d := &fakeDispatcher{stats: motivation.DispatchStats{Due: 2, Sent: 1, Failed: 1}}
	core, logs := observer.New(zap.InfoLevel)
	s := New(zap.New(core), d, nil, Options{TickInterval: time.Minute})
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	stats := s.RunDispatch()
	if stats != d.stats {
		t.Fatalf("RunDispatch() = %+v, want %+v", stats, d.stats)
	}
	if len(d.calls) != 1 || !d.calls[0].Equal(fixed) {
		t.Fatalf("Dispatch called with %v", d.calls)
	}
	if n := logs.Len(); n != 0 {
		t.Fatalf("RunDispatch() logged %d entries, the dispatcher reports its own outcome", n)
	}
}

func TestStopCancelsDispatchContext(t *testing.T) {
	d := &fakeDispatcher{}
	s := New(zap.NewNop(), d, nil, Options{TickInterval: time.Hour})
	s.RunDispatch()
	s.Stop()

	if err := d.ctxs[0].Err(); err == nil {
		t.Fatal("dispatch context should be canceled after Stop()")
	}
}

func TestRunSweepSumsFeatures(t *testing.T) {
	quiz := &fakeSweeper{evicted: 2}
	notes := &fakeSweeper{evicted: 0}
	deadlines := &fakeSweeper{evicted: 3}
	s := New(zap.NewNop(), nil, map[string]Sweeper{
		"quiz":      quiz,
		"notes":     notes,
		"deadlines": deadlines,
	}, Options{SweepInterval: time.Minute})

	if got := s.RunSweep(); got != 5 {
		t.Fatalf("RunSweep() = %d, want 5", got)
	}
	if quiz.calls != 1 || notes.calls != 1 || deadlines.calls != 1 {
		t.Fatalf("sweep calls = %d %d %d", quiz.calls, notes.calls, deadlines.calls)
	}
}

func TestStartRunsDispatch(t *testing.T) {
	d := &fakeDispatcher{}
	s := New(zap.NewNop(), d, map[string]Sweeper{"quiz": &fakeSweeper{}}, Options{
		TickInterval:  time.Hour,
		SweepInterval: time.Hour,
	})
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	// the dispatch job runs once right away, the sweep waits for its interval
	deadline := time.Now().Add(2 * time.Second)
	for d.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if d.count() != 1 {
		t.Fatalf("dispatch ran %d times, want 1", d.count())
	}
}

func TestStartRejectsBadInterval(t *testing.T) {
	s := New(zap.NewNop(), &fakeDispatcher{}, nil, Options{})
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Start() with a zero interval should fail")
	}
}
