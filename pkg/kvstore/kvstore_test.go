package kvstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "@planner:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "@planner:a", `{"v":1}`))
	require.NoError(t, store.Set(ctx, "@planner:b", "true"))
	require.NoError(t, store.Set(ctx, "@planner:a", `{"v":2}`))

	value, ok, err := store.Get(ctx, "@planner:a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"v":2}`, value)

	require.NoError(t, store.RemoveMany(ctx, "@planner:a", "@planner:b", "@planner:missing"))
	_, ok, err = store.Get(ctx, "@planner:a")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.Get(ctx, "@planner:b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	exerciseStore(t, store)

	require.NoError(t, store.Set(context.Background(), "@planner:schedule_config", "{}"))
	_, err = os.Stat(store.Path("@planner:schedule_config"))
	require.NoError(t, err)

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	value, ok, err := reopened.Get(context.Background(), "@planner:schedule_config")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "{}", value)
}

type recordingObserver struct {
	ops  []string
	errs int
}

func (o *recordingObserver) ObserveStorageOperation(backend, operation string, _ time.Duration, err error) {
	o.ops = append(o.ops, backend+":"+operation)
	if err != nil {
		o.errs++
	}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk gone")
}
func (brokenStore) Set(context.Context, string, string) error { return errors.New("disk gone") }
func (brokenStore) RemoveMany(context.Context, ...string) error {
	return errors.New("disk gone")
}

func TestInstrumentReportsOperations(t *testing.T) {
	observer := &recordingObserver{}
	store := Instrument(NewMemoryStore(), observer, "memory")
	exerciseStore(t, store)
	assert.Contains(t, observer.ops, "memory:get")
	assert.Contains(t, observer.ops, "memory:set")
	assert.Contains(t, observer.ops, "memory:remove_many")
	assert.Zero(t, observer.errs)

	failing := Instrument(brokenStore{}, observer, "broken")
	require.Error(t, failing.Set(context.Background(), "k", "v"))
	assert.Equal(t, 1, observer.errs)
}

func TestInstrumentWithoutObserver(t *testing.T) {
	store := NewMemoryStore()
	assert.Same(t, store, Instrument(store, nil, "memory"))
}

type deadlineStore struct {
	deadlines []time.Duration
}

func (s *deadlineStore) record(ctx context.Context) {
	deadline, ok := ctx.Deadline()
	if !ok {
		s.deadlines = append(s.deadlines, 0)
		return
	}
	s.deadlines = append(s.deadlines, time.Until(deadline))
}

func (s *deadlineStore) Get(ctx context.Context, _ string) (string, bool, error) {
	s.record(ctx)
	return "", false, nil
}

func (s *deadlineStore) Set(ctx context.Context, _, _ string) error {
	s.record(ctx)
	return nil
}

func (s *deadlineStore) RemoveMany(ctx context.Context, _ ...string) error {
	s.record(ctx)
	return nil
}

func TestWithTimeoutSetsDeadline(t *testing.T) {
	inner := &deadlineStore{}
	store := WithTimeout(inner, time.Minute)
	ctx := context.Background()

	_, _, _ = store.Get(ctx, "a")
	_ = store.Set(ctx, "a", "b")
	_ = store.RemoveMany(ctx, "a")

	require.Len(t, inner.deadlines, 3)
	for _, remaining := range inner.deadlines {
		assert.Greater(t, remaining, 50*time.Second)
		assert.LessOrEqual(t, remaining, time.Minute)
	}

	assert.Same(t, inner, WithTimeout(inner, 0))
}
