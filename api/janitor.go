/*
janitor.go - Periodic purge of expired uploads

PURPOSE:
  Uploaded sheets carry beneficiary names and birth dates. They are needed
  only between the upload and the check, so anything older than the
  configured TTL is deleted on a fixed interval.

DESIGN:
  - Runs a background goroutine with a ticker
  - Purges once immediately on start
  - Stop waits for an in-flight purge to finish

USAGE:
  janitor := NewUploadJanitor(store, ttl, interval, logger)
  janitor.Start()
  // ... later
  janitor.Stop()

SEE ALSO:
  - sheet/upload.go: Store.DeleteBefore
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/carecheck/attendance-engine/sheet"
)

// UploadJanitor deletes uploads older than TTL.
type UploadJanitor struct {
	Store    sheet.Store
	TTL      time.Duration
	Interval time.Duration
	Logger   *zap.Logger

	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewUploadJanitor creates a janitor.
func NewUploadJanitor(store sheet.Store, ttl, interval time.Duration, logger *zap.Logger) *UploadJanitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadJanitor{
		Store:    store,
		TTL:      ttl,
		Interval: interval,
		Logger:   logger.Named("janitor"),
		now:      time.Now,
	}
}

// Start begins purging. Calling Start on a running janitor does nothing.
func (j *UploadJanitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.ticker != nil {
		return
	}
	j.ticker = time.NewTicker(j.Interval)
	j.stop = make(chan struct{})
	j.wg.Add(1)

	go j.run(j.ticker, j.stop)

	j.Logger.Info("started", zap.Duration("ttl", j.TTL), zap.Duration("interval", j.Interval))
}

// Stop halts the janitor and waits for it to exit.
func (j *UploadJanitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.ticker == nil {
		return
	}
	j.ticker.Stop()
	close(j.stop)
	j.wg.Wait()
	j.ticker = nil
	j.Logger.Info("stopped")
}

func (j *UploadJanitor) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer j.wg.Done()

	j.Purge(context.Background())

	for {
		select {
		case <-ticker.C:
			j.Purge(context.Background())
		case <-stop:
			return
		}
	}
}

// Purge deletes expired uploads once and returns how many were removed.
func (j *UploadJanitor) Purge(ctx context.Context) int {
	cutoff := j.now().Add(-j.TTL)
	n, err := j.Store.DeleteBefore(ctx, cutoff)
	if err != nil {
		j.Logger.Error("purge failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		j.Logger.Info("purged expired uploads", zap.Int("count", n), zap.Time("cutoff", cutoff))
	}
	return n
}
