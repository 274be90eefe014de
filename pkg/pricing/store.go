package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Recorder receives pricing events, typically a metrics collector.
type Recorder interface {
	// RecordResolution is called once per Store.Resolve with the matching
	// rule, or RuleMiss.
	RecordResolution(rule string)

	// RecordRefresh is called once per refresh attempt. entries is the size
	// of the table that is current after the attempt.
	RecordRefresh(source string, err error, entries int)
}

// Store holds the current price table. Readers load one immutable snapshot
// per operation, so a concurrent Refresh is never observed half-applied.
type Store struct {
	table atomic.Pointer[Table]

	source     Source
	persisters []Persister
	recorder   Recorder
	logger     *slog.Logger

	// refreshMu serializes refreshes; readers never take it.
	refreshMu sync.Mutex

	lastRefresh   atomic.Pointer[RefreshStatus]
	refreshFailed atomic.Int64
}

// RefreshStatus describes the most recent refresh attempt.
type RefreshStatus struct {
	Source  string
	At      time.Time
	Err     error
	Entries int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSource sets the source used by Refresh.
func WithSource(src Source) StoreOption {
	return func(s *Store) { s.source = src }
}

// WithPersister adds a persister run after every successful refresh.
func WithPersister(p Persister) StoreOption {
	return func(s *Store) { s.persisters = append(s.persisters, p) }
}

// WithRecorder sets the event recorder.
func WithRecorder(r Recorder) StoreOption {
	return func(s *Store) { s.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a store serving initial. A nil initial table means the
// embedded table. Refresh defaults to the published remote CSV.
func NewStore(initial *Table, opts ...StoreOption) *Store {
	if initial == nil {
		initial = EmbeddedTable()
	}

	s := &Store{
		source: &RemoteSource{},
		logger: slog.Default().With("component", "pricing.store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.table.Store(initial)

	return s
}

// Table returns the current table snapshot.
func (s *Store) Table() *Table {
	return s.table.Load()
}

// Resolve maps a model identifier against the current table and reports the
// outcome to the recorder.
func (s *Store) Resolve(model string) (Resolution, bool) {
	res, ok := s.table.Load().Resolve(model)
	if s.recorder != nil {
		rule := string(res.Rule)
		if !ok {
			rule = string(RuleMiss)
		}
		s.recorder.RecordResolution(rule)
	}
	return res, ok
}

// GetModelPricing returns the best-matching entry for model.
func (s *Store) GetModelPricing(model string) (PriceEntry, bool) {
	res, ok := s.Resolve(model)
	return res.Entry, ok
}

// GetAllModelPricings returns every entry in declaration order.
func (s *Store) GetAllModelPricings() []PriceEntry {
	return s.table.Load().Entries()
}

// Replace swaps in t. It is the only way the table changes.
func (s *Store) Replace(t *Table) error {
	if t == nil || t.Len() == 0 {
		return ErrEmptyTable
	}
	s.table.Store(t)
	return nil
}

// Refresh loads a new table from the configured source and swaps it in.
func (s *Store) Refresh(ctx context.Context) error {
	return s.RefreshFrom(ctx, s.source)
}

// RefreshFrom loads a table from src and swaps it in. On failure the current
// table is left untouched and the error is returned. Persisters run after the
// swap; their failures are logged but do not undo it.
func (s *Store) RefreshFrom(ctx context.Context, src Source) error {
	return s.refresh(ctx, src, true)
}

// Reload is RefreshFrom without the persisters. File watchers use it so that
// a persister rewriting the watched file does not trigger another reload.
func (s *Store) Reload(ctx context.Context, src Source) error {
	return s.refresh(ctx, src, false)
}

func (s *Store) refresh(ctx context.Context, src Source, persist bool) error {
	if src == nil {
		return errors.New("pricing: no refresh source configured")
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "pricing.refresh")
	defer span.End()
	span.SetAttributes(attribute.String("pricing.source", src.Name()))

	start := time.Now()
	t, err := src.Load(ctx)
	if err == nil {
		err = s.Replace(t)
	}

	status := &RefreshStatus{Source: src.Name(), At: time.Now().UTC(), Err: err, Entries: s.table.Load().Len()}
	s.lastRefresh.Store(status)
	if s.recorder != nil {
		s.recorder.RecordRefresh(src.Name(), err, status.Entries)
	}

	if err != nil {
		s.refreshFailed.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		s.logger.Warn("pricing refresh failed, keeping current table",
			"source", src.Name(),
			"error", err,
			"entries", status.Entries,
		)
		return fmt.Errorf("refreshing pricing from %s: %w", src.Name(), err)
	}

	s.logger.Info("pricing table refreshed",
		"source", src.Name(),
		"entries", t.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if !persist {
		return nil
	}
	for _, p := range s.persisters {
		if perr := p.Persist(ctx, t); perr != nil {
			s.logger.Error("persisting refreshed pricing failed", "error", perr)
		}
	}

	return nil
}

// LastRefresh returns the most recent refresh attempt, or nil if none ran.
func (s *Store) LastRefresh() *RefreshStatus {
	return s.lastRefresh.Load()
}

// FailedRefreshes returns how many refresh attempts failed.
func (s *Store) FailedRefreshes() int64 {
	return s.refreshFailed.Load()
}

var defaultStore atomic.Pointer[Store]

// Default returns the process-wide store, creating it from the embedded
// table on first use.
func Default() *Store {
	if s := defaultStore.Load(); s != nil {
		return s
	}
	defaultStore.CompareAndSwap(nil, NewStore(nil))
	return defaultStore.Load()
}

// SetDefault replaces the process-wide store.
func SetDefault(s *Store) {
	defaultStore.Store(s)
}

// GetModelPricing resolves model against the default store.
func GetModelPricing(model string) (PriceEntry, bool) {
	return Default().GetModelPricing(model)
}

// GetAllModelPricings returns every entry of the default store.
func GetAllModelPricings() []PriceEntry {
	return Default().GetAllModelPricings()
}

// RefreshPricing refreshes the default store from its configured source.
func RefreshPricing(ctx context.Context) error {
	return Default().Refresh(ctx)
}
