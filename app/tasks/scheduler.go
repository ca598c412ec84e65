// Package tasks owns the background lifecycle: periodic feed refresh and
// the webhook delivery loop.
package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/apth/kairos/app/fetcher"
	"github.com/apth/kairos/app/webhook"
)

type Fetcher interface {
	FetchAll(ctx context.Context) (fetcher.Summary, error)
}

var _ Fetcher = (*fetcher.Engine)(nil)

type DeliveryLoop interface {
	Run(ctx context.Context)
}

var _ DeliveryLoop = (*webhook.Queue)(nil)

type Scheduler struct {
	fetcher  Fetcher
	delivery DeliveryLoop
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewScheduler(f Fetcher, delivery DeliveryLoop, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		fetcher:  f,
		delivery: delivery,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the refresh ticker and the delivery loop. An initial
// fetch runs immediately so a fresh deployment is populated without
// waiting a full interval.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runFetch()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runFetch()
			}
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.delivery.Run(s.ctx)
	}()

	slog.Info("Scheduler started", "refresh_interval", s.interval)
}

// Stop cancels background work and waits for it to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

// Refresh triggers an out-of-band fetch cycle without disturbing the
// ticker cadence. After Stop it is a no-op: adding to the WaitGroup
// while Stop waits on it is not allowed.
func (s *Scheduler) Refresh() {
	if s.ctx.Err() != nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runFetch()
	}()
}

func (s *Scheduler) runFetch() {
	if s.ctx.Err() != nil {
		return
	}

	if _, err := s.fetcher.FetchAll(s.ctx); err != nil {
		slog.Error("Scheduled fetch cycle failed", "error", err)
	}
}
