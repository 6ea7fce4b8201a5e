package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/mapper"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/worker"
)

// VerifiedChecker reports whether a user already has a verified target row.
type VerifiedChecker interface {
	IsVerified(ctx context.Context, userID int64) (bool, error)
}

// Notifier is told about every imported user when send_emails is set.
// Delivery is up to the implementation.
type Notifier interface {
	UserImported(ctx context.Context, userID int64, outcome models.ImportOutcome) error
}

// LogNotifier records would-be notifications in the log.
type LogNotifier struct{}

// UserImported logs the notification.
func (LogNotifier) UserImported(ctx context.Context, userID int64, outcome models.ImportOutcome) error {
	slog.InfoContext(ctx, "Migration notice queued", "user_id", userID, "fields_mapped", outcome.FieldsMapped)
	return nil
}

// Runner pages through an adapter's users and aggregates results.
type Runner struct {
	pool     *worker.Pool
	verified VerifiedChecker
	notifier Notifier
	cursor   bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithNotifier sets the send_emails notifier.
func WithNotifier(n Notifier) RunnerOption {
	return func(r *Runner) { r.notifier = n }
}

// WithCursor makes RunAll continue by last-seen user ID instead of offset.
func WithCursor(enabled bool) RunnerOption {
	return func(r *Runner) { r.cursor = enabled }
}

// NewRunner creates a Runner.
func NewRunner(pool *worker.Pool, verified VerifiedChecker, opts ...RunnerOption) *Runner {
	r := &Runner{pool: pool, verified: verified, notifier: LogNotifier{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunBatch imports one page of users. It never returns an error: failures
// are reported in the result.
func (r *Runner) RunBatch(ctx context.Context, a Adapter, opts models.Options, mapping mapper.Table) *models.MigrationResult {
	if err := a.CheckPreconditions(ctx); err != nil {
		slog.Warn("Precondition failed", "plugin", a.Slug(), "error", err)
		return models.PreconditionFailed(err)
	}

	page := opts.Page()
	ids, err := a.UserIDsForBatch(ctx, page)
	if err != nil {
		return models.PreconditionFailed(fmt.Errorf("failed to list users: %w", err))
	}
	slog.Debug("Processing page", "plugin", a.Slug(), "offset", page.Offset, "after_id", page.AfterID, "users", len(ids))

	outcomes := make([]models.ImportOutcome, len(ids))
	index := make(map[int64]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	var mu sync.Mutex

	errs := r.pool.Execute(ctx, ids, func(ctx context.Context, userID int64) error {
		outcome, err := r.importOne(ctx, a, userID, opts, mapping)
		if err != nil {
			return err
		}
		mu.Lock()
		outcomes[index[userID]] = outcome
		mu.Unlock()
		return nil
	})

	result := models.NewMigrationResult()
	for i, id := range ids {
		if errs[i] != nil {
			result.AddError("User ID %d: %s", id, errs[i])
			continue
		}
		o := outcomes[i]
		if o.Skipped {
			result.Skipped++
			continue
		}
		result.Imported++
		result.PhotosMigrated += o.PhotosMigrated
		result.FieldsMapped += o.FieldsMapped
		result.AddUnmapped(o.FieldsUnmapped...)
	}

	result.Advance(page, len(ids))
	result.LastID = page.AfterID
	if len(ids) > 0 {
		result.LastID = ids[len(ids)-1]
	}
	return result
}

func (r *Runner) importOne(ctx context.Context, a Adapter, userID int64, opts models.Options, mapping mapper.Table) (outcome models.ImportOutcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("Import panicked", "user_id", userID, "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	if opts.SkipExisting && r.verified != nil {
		verified, err := r.verified.IsVerified(ctx, userID)
		if err != nil {
			return outcome, err
		}
		if verified {
			return models.ImportOutcome{Skipped: true, SkipReason: "already verified"}, nil
		}
	}

	outcome, err = a.ImportUser(ctx, userID, opts, mapping)
	if err != nil || outcome.Skipped {
		return outcome, err
	}

	if opts.SendEmails && r.notifier != nil {
		if nerr := r.notifier.UserImported(ctx, userID, outcome); nerr != nil {
			slog.Warn("Notification failed", "user_id", userID, "error", nerr)
		}
	}
	return outcome, nil
}

// PageFunc observes each finished page together with the options that
// select the next one.
type PageFunc func(page *models.MigrationResult, next models.Options) error

// RunAll processes pages until one reports batch_complete. It stops early
// when ctx is cancelled or onPage returns an error.
func (r *Runner) RunAll(ctx context.Context, a Adapter, opts models.Options, mapping mapper.Table, onPage PageFunc) (*models.MigrationResult, error) {
	total := models.NewMigrationResult()
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		page := r.RunBatch(ctx, a, opts, mapping)
		total.Merge(page)
		next := r.nextOptions(opts, page)

		if onPage != nil {
			if err := onPage(page, next); err != nil {
				return total, err
			}
		}
		if page.BatchComplete {
			return total, nil
		}
		opts = next
	}
}

func (r *Runner) nextOptions(opts models.Options, page *models.MigrationResult) models.Options {
	next := opts
	if r.cursor || opts.AfterID > 0 {
		next.AfterID = page.LastID
		next.BatchOffset = 0
		return next
	}
	next.BatchOffset = page.NextOffset
	return next
}
