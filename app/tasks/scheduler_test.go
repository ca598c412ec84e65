package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/apth/kairos/app/fetcher"
)

type countingFetcher struct {
	calls atomic.Int64
}

func (f *countingFetcher) FetchAll(_ context.Context) (fetcher.Summary, error) {
	f.calls.Add(1)
	return fetcher.Summary{}, nil
}

type trackingLoop struct {
	started chan struct{}
	stopped chan struct{}
}

func (l *trackingLoop) Run(ctx context.Context) {
	close(l.started)
	<-ctx.Done()
	close(l.stopped)
}

func TestSchedulerLifecycle(t *testing.T) {
	f := &countingFetcher{}
	loop := &trackingLoop{
		started: make(chan struct{}),
		stopped: make(chan struct{}),
	}

	scheduler := NewScheduler(f, loop, 20*time.Millisecond)
	scheduler.Start()

	select {
	case <-loop.started:
	case <-time.After(2 * time.Second):
		t.Fatal("Delivery loop was not started")
	}

	// Startup fetch plus at least one ticker fire.
	time.Sleep(60 * time.Millisecond)
	scheduler.Stop()

	select {
	case <-loop.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Delivery loop was not stopped")
	}

	if calls := f.calls.Load(); calls < 2 {
		t.Errorf("Expected startup fetch plus ticker fetches, got %d calls", calls)
	}
}

func TestSchedulerRefresh(t *testing.T) {
	f := &countingFetcher{}
	loop := &trackingLoop{
		started: make(chan struct{}),
		stopped: make(chan struct{}),
	}

	scheduler := NewScheduler(f, loop, time.Hour)
	scheduler.Start()
	defer scheduler.Stop()

	<-loop.started

	// Wait out the startup fetch first.
	deadline := time.After(2 * time.Second)
	for f.calls.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("Startup fetch never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}

	scheduler.Refresh()

	deadline = time.After(2 * time.Second)
	for f.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("Refresh fetch never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRefreshAfterStopIsNoop(t *testing.T) {
	f := &countingFetcher{}
	loop := &trackingLoop{
		started: make(chan struct{}),
		stopped: make(chan struct{}),
	}

	scheduler := NewScheduler(f, loop, time.Hour)
	scheduler.Start()
	<-loop.started
	scheduler.Stop()

	before := f.calls.Load()
	scheduler.Refresh()

	time.Sleep(30 * time.Millisecond)
	if got := f.calls.Load(); got != before {
		t.Errorf("Expected no fetch after Stop, got %d extra calls", got-before)
	}
}
