package pricing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name  string
	table *Table
	err   error
	calls int
}

func (s *stubSource) Load(context.Context) (*Table, error) {
	s.calls++
	return s.table, s.err
}

func (s *stubSource) Name() string { return s.name }

type stubPersister struct {
	got []*Table
	err error
}

func (p *stubPersister) Persist(_ context.Context, t *Table) error {
	p.got = append(p.got, t)
	return p.err
}

type stubRecorder struct {
	mu          sync.Mutex
	resolutions map[string]int
	refreshes   []error
}

func (r *stubRecorder) RecordResolution(rule string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolutions == nil {
		r.resolutions = make(map[string]int)
	}
	r.resolutions[rule]++
}

func (r *stubRecorder) RecordRefresh(_ string, err error, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshes = append(r.refreshes, err)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStore_RefreshSuccess(t *testing.T) {
	next := testTable(t, PriceEntry{Model: "gpt-9", InputCostPer1K: 1, OutputCostPer1K: 2})
	src := &stubSource{name: "stub", table: next}
	persister := &stubPersister{}
	recorder := &stubRecorder{}

	store := NewStore(nil,
		WithSource(src),
		WithPersister(persister),
		WithRecorder(recorder),
		WithLogger(quietLogger()),
	)

	_, ok := store.GetModelPricing("gpt-9")
	require.False(t, ok)

	require.NoError(t, store.Refresh(context.Background()))

	entry, ok := store.GetModelPricing("gpt-9")
	require.True(t, ok)
	assert.Equal(t, 1.0, entry.InputCostPer1K)
	assert.Equal(t, 1, store.Table().Len())

	require.Len(t, persister.got, 1)
	assert.Same(t, next, persister.got[0])

	require.Len(t, recorder.refreshes, 1)
	assert.NoError(t, recorder.refreshes[0])

	status := store.LastRefresh()
	require.NotNil(t, status)
	assert.Equal(t, "stub", status.Source)
	assert.NoError(t, status.Err)
	assert.Equal(t, 1, status.Entries)
	assert.Zero(t, store.FailedRefreshes())
}

func TestStore_RefreshFailureKeepsTable(t *testing.T) {
	tests := []struct {
		name string
		src  *stubSource
	}{
		{"load error", &stubSource{name: "broken", err: &FetchError{URL: "http://x", StatusCode: 500, Err: errors.New("boom")}}},
		{"nil table", &stubSource{name: "nil"}},
		{"parse error", &stubSource{name: "bad", err: &ParseError{Line: 2, Err: errors.New("bad price")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			persister := &stubPersister{}
			recorder := &stubRecorder{}
			store := NewStore(nil, WithSource(tt.src), WithPersister(persister), WithRecorder(recorder), WithLogger(quietLogger()))

			before := store.GetAllModelPricings()
			beforeEntry, ok := store.GetModelPricing("gpt-4o-mini")
			require.True(t, ok)

			err := store.Refresh(context.Background())
			require.Error(t, err)

			assert.Equal(t, before, store.GetAllModelPricings())
			afterEntry, ok := store.GetModelPricing("gpt-4o-mini")
			require.True(t, ok)
			assert.Equal(t, beforeEntry, afterEntry)

			assert.Empty(t, persister.got)
			require.Len(t, recorder.refreshes, 1)
			assert.Error(t, recorder.refreshes[0])
			assert.Equal(t, int64(1), store.FailedRefreshes())
			assert.Error(t, store.LastRefresh().Err)
		})
	}
}

func TestStore_PersisterFailureDoesNotUndoSwap(t *testing.T) {
	next := testTable(t, PriceEntry{Model: "gpt-9"})
	store := NewStore(nil,
		WithSource(&stubSource{name: "stub", table: next}),
		WithPersister(&stubPersister{err: errors.New("disk full")}),
		WithLogger(quietLogger()),
	)

	require.NoError(t, store.Refresh(context.Background()))
	assert.Same(t, next, store.Table())
}

func TestStore_Replace(t *testing.T) {
	store := NewStore(nil, WithLogger(quietLogger()))
	assert.ErrorIs(t, store.Replace(nil), ErrEmptyTable)
	assert.ErrorIs(t, store.Replace(&Table{}), ErrEmptyTable)
	assert.Equal(t, EmbeddedTable().Len(), store.Table().Len())
}

func TestStore_RefreshFromNilSource(t *testing.T) {
	store := NewStore(nil, WithLogger(quietLogger()))
	assert.Error(t, store.RefreshFrom(context.Background(), nil))
}

func TestStore_ResolveRecordsRule(t *testing.T) {
	recorder := &stubRecorder{}
	store := NewStore(nil, WithRecorder(recorder), WithLogger(quietLogger()))

	store.Resolve("gpt-4o-mini-2024-07-18")
	store.Resolve("gpt-4-32k")
	store.Resolve("gpt-4o-mini")
	store.Resolve("nope")

	assert.Equal(t, map[string]int{
		string(RuleExactVersion): 1,
		string(RuleExactModel):   1,
		string(RulePrefix):       1,
		string(RuleMiss):         1,
	}, recorder.resolutions)
}

func TestStore_ConcurrentReadsDuringRefresh(t *testing.T) {
	a := testTable(t, PriceEntry{Model: "gpt-4o", InputCostPer1K: 1, OutputCostPer1K: 1})
	b := testTable(t, PriceEntry{Model: "gpt-4o", InputCostPer1K: 2, OutputCostPer1K: 2})
	store := NewStore(a, WithLogger(quietLogger()))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				e, ok := store.GetModelPricing("gpt-4o")
				if !ok || e.InputCostPer1K != e.OutputCostPer1K {
					t.Errorf("observed inconsistent entry: %+v", e)
					return
				}
			}
		}()
	}

	for i := range 200 {
		next := a
		if i%2 == 0 {
			next = b
		}
		require.NoError(t, store.RefreshFrom(context.Background(), &stubSource{name: "flip", table: next}))
	}
	close(stop)
	wg.Wait()
}

func TestDefaultStore(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	custom := NewStore(testTable(t, PriceEntry{Model: "only-model", InputCostPer1K: 1}),
		WithSource(&stubSource{name: "fail", err: errors.New("offline")}),
		WithLogger(quietLogger()),
	)
	SetDefault(custom)

	e, ok := GetModelPricing("only-model")
	require.True(t, ok)
	assert.Equal(t, "only-model", e.Model)
	assert.Len(t, GetAllModelPricings(), 1)

	assert.Error(t, RefreshPricing(context.Background()))
	assert.Len(t, GetAllModelPricings(), 1)
}

func TestStore_ReloadSkipsPersisters(t *testing.T) {
	next := testTable(t, PriceEntry{Model: "gpt-9"})
	persister := &stubPersister{}
	store := NewStore(nil, WithPersister(persister), WithLogger(quietLogger()))

	require.NoError(t, store.Reload(context.Background(), &stubSource{name: "file", table: next}))
	assert.Same(t, next, store.Table())
	assert.Empty(t, persister.got)
}
