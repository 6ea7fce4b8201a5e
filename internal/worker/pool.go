package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/akrishnanDG/legacy-profile-migrator/pkg/config"
)

// Pool runs per-record work with bounded concurrency and retries
type Pool struct {
	workers       int
	retryAttempts int
	retryDelay    time.Duration
	limiter       *RateLimiter
}

// NewPool creates a new worker pool
func NewPool(cfg *config.Config) *Pool {
	workers := cfg.Concurrency.Workers
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers:       workers,
		retryAttempts: cfg.Concurrency.RetryAttempts,
		retryDelay:    cfg.Concurrency.RetryDelay,
		limiter:       NewRateLimiter(cfg.Concurrency.RateLimit),
	}
}

// Workers returns the concurrency limit
func (p *Pool) Workers() int {
	return p.workers
}

// WorkFunc processes one record
type WorkFunc func(ctx context.Context, id int64) error

// ProgressCallback is called after each item is processed
type ProgressCallback func()

// Execute runs work for every id. The returned slice is index-aligned with ids.
// A single worker processes ids strictly in order.
func (p *Pool) Execute(ctx context.Context, ids []int64, work WorkFunc) []error {
	return p.ExecuteWithProgress(ctx, ids, work, nil)
}

// ExecuteWithProgress executes work with progress callback
func (p *Pool) ExecuteWithProgress(ctx context.Context, ids []int64, work WorkFunc, progress ProgressCallback) []error {
	if p.workers == 1 {
		return p.executeSequential(ctx, ids, work, progress)
	}

	errors := make([]error, len(ids))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			err := p.executeWithRetry(ctx, id, work)
			mu.Lock()
			errors[i] = err
			if progress != nil {
				progress()
			}
			mu.Unlock()
			return nil // Don't propagate errors to stop other goroutines
		})
	}

	g.Wait()
	return errors
}

// ExecuteSequential executes work items one after another
func (p *Pool) ExecuteSequential(ctx context.Context, ids []int64, work WorkFunc) []error {
	return p.executeSequential(ctx, ids, work, nil)
}

func (p *Pool) executeSequential(ctx context.Context, ids []int64, work WorkFunc, progress ProgressCallback) []error {
	errors := make([]error, len(ids))

	for i, id := range ids {
		select {
		case <-ctx.Done():
			for j := i; j < len(ids); j++ {
				errors[j] = ctx.Err()
			}
			return errors
		default:
		}

		errors[i] = p.executeWithRetry(ctx, id, work)
		if progress != nil {
			progress()
		}
	}

	return errors
}

func (p *Pool) executeWithRetry(ctx context.Context, id int64, work WorkFunc) error {
	var lastErr error

	for attempt := 0; attempt <= p.retryAttempts; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}

		err := work(ctx, id)
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt < p.retryAttempts {
			// Wait before retry with exponential backoff
			delay := p.retryDelay * time.Duration(1<<attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return lastErr
}
