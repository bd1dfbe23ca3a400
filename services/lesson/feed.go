package lesson

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Feed keeps a session's snapshot fresh while its screen is on display.
// It is a lifecycle-scoped handle owned by the screen controller: the
// owner starts it on view entry and stops it on exit, instead of sharing
// one ambient connection across the whole app.
type Feed struct {
	session  *Session
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewFeed creates a feed that refreshes session every interval.
func NewFeed(session *Session, interval time.Duration, logger *zap.Logger) *Feed {
	return &Feed{
		session:  session,
		interval: interval,
		logger:   logger,
	}
}

// Start begins polling until Stop is called or ctx is canceled. Calling
// Start on a running feed is a no-op.
func (f *Feed) Start(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		return
	}

	ctx, f.cancel = context.WithCancel(ctx)
	f.done = make(chan struct{})
	done := f.done

	go func() {
		defer close(done)
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := f.session.Refresh(ctx); err != nil {
					// Background refreshes are best effort; the next user
					// action refetches anyway.
					f.logger.Warn("background snapshot refresh failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop halts polling and waits for the worker to exit. Safe to call more
// than once.
func (f *Feed) Stop() {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel = nil
	f.done = nil
	f.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
