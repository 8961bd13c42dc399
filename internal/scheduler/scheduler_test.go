package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func TestNextWake(t *testing.T) {
	s := New(nil, 2, 30, slog.Default())

	// 2023-11-15 06:13:20 +0800
	now := time.Unix(1700000000, 0)
	next := s.NextWake(now)

	want := time.Date(2023, 11, 16, 2, 30, 0, 0, cst)
	if !next.Equal(want) {
		t.Errorf("NextWake = %v, want %v", next, want)
	}
	// Always the following day, even before today's wall-clock time.
	early := time.Date(2023, 11, 15, 1, 0, 0, 0, cst)
	if got := s.NextWake(early); got.Day() != 16 {
		t.Errorf("NextWake before today's refresh time = %v, want the 16th", got)
	}
}

func TestRunSurvivesFailedCycle(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})

	refresh := func(ctx context.Context) error {
		switch calls.Add(1) {
		case 1:
			return errors.New("upstream down")
		case 2:
			close(done)
		}
		return nil
	}

	s := New(refresh, 2, 30, slog.Default())
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	s.timer = func(d time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("second cycle never ran after a failed first cycle")
	}
}

func TestRunSurvivesPanic(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})
	notified := make(chan string, 1)

	refresh := func(ctx context.Context) error {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		close(done)
		return nil
	}

	s := New(refresh, 2, 30, slog.Default())
	s.SetNotifier(func(title, message string) {
		select {
		case notified <- message:
		default:
		}
	})
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	s.timer = func(d time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not survive a panicking cycle")
	}
	select {
	case msg := <-notified:
		if msg == "" {
			t.Error("empty failure notification")
		}
	case <-time.After(time.Second):
		t.Error("failure notification never sent")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(func(ctx context.Context) error { return nil }, 2, 30, slog.Default())
	s.timer = func(d time.Duration) <-chan time.Time {
		return make(chan time.Time) // never fires; cancellation must win
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
