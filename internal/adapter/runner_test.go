package adapter

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/mapper"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/worker"
	"github.com/akrishnanDG/legacy-profile-migrator/pkg/config"
)

// fakeAdapter serves users 1..n and fails or panics on request.
type fakeAdapter struct {
	ids      []int64
	fail     map[int64]error
	panics   map[int64]bool
	precond  error
	mu       sync.Mutex
	imported []int64
}

func newFakeAdapter(n int) *fakeAdapter {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	return &fakeAdapter{ids: ids, fail: map[int64]error{}, panics: map[int64]bool{}}
}

func (f *fakeAdapter) Name() string { return "Fake" }
func (f *fakeAdapter) Slug() string { return "fake" }
func (f *fakeAdapter) IsActive(ctx context.Context) (bool, error) { return true, nil }
func (f *fakeAdapter) CheckPreconditions(ctx context.Context) error { return f.precond }
func (f *fakeAdapter) UserCount(ctx context.Context) (int64, error) {
	return int64(len(f.ids)), nil
}
func (f *fakeAdapter) DefaultFieldMapping(ctx context.Context) (mapper.Table, error) {
	return mapper.Table{"phone_number": mapper.Direct("phone")}, nil
}
func (f *fakeAdapter) DiscoverCustomFields(ctx context.Context) ([]models.DiscoveredField, error) {
	return nil, nil
}
func (f *fakeAdapter) PreviewImport(ctx context.Context, limit int, mapping mapper.Table) ([]models.PreviewRow, error) {
	return nil, nil
}

func (f *fakeAdapter) ImportUser(ctx context.Context, userID int64, opts models.Options, mapping mapper.Table) (models.ImportOutcome, error) {
	if f.panics[userID] {
		panic("nil map")
	}
	if err := f.fail[userID]; err != nil {
		return models.ImportOutcome{}, err
	}
	f.mu.Lock()
	f.imported = append(f.imported, userID)
	f.mu.Unlock()
	return models.ImportOutcome{FieldsMapped: 2, FieldsUnmapped: []string{"favorite_color"}, PhotosMigrated: 1}, nil
}

func (f *fakeAdapter) UserIDsForBatch(ctx context.Context, page models.Page) ([]int64, error) {
	var out []int64
	for _, id := range f.ids {
		if page.Keyset() && id <= page.AfterID {
			continue
		}
		out = append(out, id)
	}
	if page.Unbounded() {
		return out, nil
	}
	if !page.Keyset() {
		if page.Offset >= len(out) {
			return nil, nil
		}
		out = out[page.Offset:]
	}
	if len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, nil
}

type MockVerified struct {
	mock.Mock
}

func (m *MockVerified) IsVerified(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) UserImported(ctx context.Context, userID int64, outcome models.ImportOutcome) error {
	args := m.Called(ctx, userID, outcome)
	return args.Error(0)
}

func newPool(workers int) *worker.Pool {
	cfg := config.NewDefaultConfig()
	cfg.Concurrency.Workers = workers
	cfg.Concurrency.RetryDelay = time.Millisecond
	return worker.NewPool(cfg)
}

func TestRunBatch_PagesOf50Over120Users(t *testing.T) {
	ctx := context.Background()
	a := newFakeAdapter(120)
	runner := NewRunner(newPool(1), nil)

	opts := models.DefaultOptions()
	opts.SkipExisting = false

	tests := []struct {
		offset   int
		total    int
		complete bool
	}{
		{0, 50, false},
		{50, 50, false},
		{100, 20, true},
	}

	imported := 0
	for _, tt := range tests {
		opts.BatchOffset = tt.offset
		res := runner.RunBatch(ctx, a, opts, nil)
		assert.Equal(t, tt.total, res.Total, "offset %d", tt.offset)
		assert.Equal(t, tt.complete, res.BatchComplete, "offset %d", tt.offset)
		assert.Equal(t, tt.offset+tt.total, res.NextOffset)
		imported += res.Imported
	}
	assert.Equal(t, 120, imported)
}

func TestRunBatch_PreconditionFailure(t *testing.T) {
	a := newFakeAdapter(3)
	a.precond = errors.New("BuddyPress table wp_bp_xprofile_fields not found")

	res := NewRunner(newPool(1), nil).RunBatch(context.Background(), a, models.DefaultOptions(), nil)

	assert.Equal(t, 0, res.Total)
	assert.True(t, res.BatchComplete)
	assert.Equal(t, []string{"BuddyPress table wp_bp_xprofile_fields not found"}, res.Errors)
	assert.Empty(t, a.imported)
}

func TestRunBatch_PerUserFailures(t *testing.T) {
	a := newFakeAdapter(4)
	a.fail[2] = errors.New("database is locked")
	a.panics[3] = true

	opts := models.DefaultOptions()
	opts.SkipExisting = false
	res := NewRunner(newPool(1), nil).RunBatch(context.Background(), a, opts, nil)

	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 2, res.Imported)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "User ID 2: database is locked", res.Errors[0])
	assert.Equal(t, "User ID 3: panic: nil map", res.Errors[1])
	assert.Equal(t, 2, res.PhotosMigrated)
	assert.Equal(t, 4, res.FieldsMapped)
	assert.Equal(t, []string{"favorite_color"}, res.FieldsUnmapped)
	assert.Equal(t, int64(4), res.LastID)
}

func TestRunBatch_SkipExisting(t *testing.T) {
	ctx := context.Background()
	a := newFakeAdapter(3)
	verified := &MockVerified{}
	verified.On("IsVerified", mock.Anything, int64(1)).Return(false, nil)
	verified.On("IsVerified", mock.Anything, int64(2)).Return(true, nil)
	verified.On("IsVerified", mock.Anything, int64(3)).Return(false, errors.New("no such table"))

	res := NewRunner(newPool(1), verified).RunBatch(ctx, a, models.DefaultOptions(), nil)

	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"User ID 3: no such table"}, res.Errors)
	assert.Equal(t, []int64{1}, a.imported)
	verified.AssertExpectations(t)
}

func TestRunBatch_SendEmails(t *testing.T) {
	ctx := context.Background()
	a := newFakeAdapter(2)
	notifier := &MockNotifier{}
	notifier.On("UserImported", mock.Anything, mock.AnythingOfType("int64"), mock.Anything).Return(nil)

	opts := models.DefaultOptions()
	opts.SkipExisting = false
	opts.SendEmails = true
	NewRunner(newPool(1), nil, WithNotifier(notifier)).RunBatch(ctx, a, opts, nil)

	notifier.AssertNumberOfCalls(t, "UserImported", 2)

	opts.SendEmails = false
	quiet := &MockNotifier{}
	NewRunner(newPool(1), nil, WithNotifier(quiet)).RunBatch(ctx, a, opts, nil)
	quiet.AssertNotCalled(t, "UserImported", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunBatch_Unbounded(t *testing.T) {
	a := newFakeAdapter(7)
	opts := models.DefaultOptions()
	opts.SkipExisting = false
	opts.BatchSize = 0
	opts.BatchOffset = 3

	res := NewRunner(newPool(1), nil).RunBatch(context.Background(), a, opts, nil)

	assert.Equal(t, 7, res.Total)
	assert.True(t, res.BatchComplete)
}

func TestRunAll(t *testing.T) {
	for _, tc := range []struct {
		name    string
		cursor  bool
		workers int
	}{
		{"offset", false, 1},
		{"cursor", true, 1},
		{"cursor with workers", true, 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := newFakeAdapter(120)
			opts := models.DefaultOptions()
			opts.SkipExisting = false

			var pages []int
			var cursors []int64
			runner := NewRunner(newPool(tc.workers), nil, WithCursor(tc.cursor))
			total, err := runner.RunAll(context.Background(), a, opts, nil, func(page *models.MigrationResult, next models.Options) error {
				pages = append(pages, page.Total)
				cursors = append(cursors, next.AfterID)
				return nil
			})
			require.NoError(t, err)

			assert.Equal(t, []int{50, 50, 20}, pages)
			assert.Equal(t, 120, total.Total)
			assert.Equal(t, 120, total.Imported)
			assert.True(t, total.BatchComplete)
			if tc.cursor {
				assert.Equal(t, []int64{50, 100, 120}, cursors)
			}

			sort.Slice(a.imported, func(i, j int) bool { return a.imported[i] < a.imported[j] })
			require.Len(t, a.imported, 120)
			for i, id := range a.imported {
				assert.Equal(t, int64(i+1), id)
			}
		})
	}
}

func TestRunAll_StopsOnCallbackError(t *testing.T) {
	a := newFakeAdapter(120)
	opts := models.DefaultOptions()
	opts.SkipExisting = false
	stop := errors.New("checkpoint write failed")

	total, err := NewRunner(newPool(1), nil).RunAll(context.Background(), a, opts, nil,
		func(page *models.MigrationResult, next models.Options) error { return stop })

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 50, total.Total)
}

func TestRunAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(newPool(1), nil).RunAll(ctx, newFakeAdapter(10), models.DefaultOptions(), nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
