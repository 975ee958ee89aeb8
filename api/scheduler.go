/*
scheduler.go - Idle session reaper

PURPOSE:
  Sessions live only in memory. A user who closes the browser never deletes
  theirs, so a background goroutine periodically drops sessions that have
  not been touched for longer than the configured TTL.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Each check removes sessions whose last update is older than now-TTL
  - Stop waits for the goroutine to exit, so shutdown leaks nothing

CONFIGURATION:
  - [server] session_ttl:   idle lifetime (default 12h)
  - [server] reap_interval: how often to check (default 10m)

USAGE:
  reaper := NewSessionReaper(store, ttl, interval, log)
  reaper.Start()
  // ... later
  reaper.Stop()

SEE ALSO:
  - session/store.go: Memory.Expire
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Expirer removes sessions idle since a cutoff.
type Expirer interface {
	Expire(ctx context.Context, cutoff time.Time) (int, error)
}

// SessionReaper drops idle sessions on a ticker.
type SessionReaper struct {
	Store         Expirer
	TTL           time.Duration
	CheckInterval time.Duration
	Log           *zap.Logger

	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSessionReaper creates a reaper. It does nothing until Start.
func NewSessionReaper(store Expirer, ttl, interval time.Duration, log *zap.Logger) *SessionReaper {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionReaper{
		Store:         store,
		TTL:           ttl,
		CheckInterval: interval,
		Log:           log,
		now:           time.Now,
	}
}

// Start begins the background loop. Calling Start twice is a no-op.
func (sr *SessionReaper) Start() {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if sr.ticker != nil {
		return
	}
	sr.ticker = time.NewTicker(sr.CheckInterval)
	sr.stop = make(chan struct{})
	sr.wg.Add(1)
	go sr.run(sr.ticker, sr.stop)

	sr.Log.Info("session reaper started",
		zap.Duration("ttl", sr.TTL),
		zap.Duration("interval", sr.CheckInterval),
	)
}

// Stop ends the loop and waits for it to exit.
func (sr *SessionReaper) Stop() {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if sr.ticker == nil {
		return
	}
	sr.ticker.Stop()
	close(sr.stop)
	sr.wg.Wait()
	sr.ticker = nil
	sr.Log.Info("session reaper stopped")
}

func (sr *SessionReaper) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer sr.wg.Done()
	for {
		select {
		case <-ticker.C:
			sr.Reap(context.Background())
		case <-stop:
			return
		}
	}
}

// Reap runs one check and returns how many sessions were dropped.
func (sr *SessionReaper) Reap(ctx context.Context) int {
	cutoff := sr.now().Add(-sr.TTL)
	n, err := sr.Store.Expire(ctx, cutoff)
	if err != nil {
		sr.Log.Error("session reap failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		sr.Log.Info("idle sessions dropped", zap.Int("count", n), zap.Time("cutoff", cutoff))
	}
	return n
}
