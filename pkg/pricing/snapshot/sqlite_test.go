package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/o1x3/ctoken/pkg/pricing"
)

func newTestStore(t *testing.T, keep int) *Store {
	t.Helper()

	store, err := NewWithConfig(Config{
		DBPath: filepath.Join(t.TempDir(), "pricing.db"),
		Keep:   keep,
	})
	if err != nil {
		t.Fatalf("Failed to create snapshot store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func mustTable(t *testing.T, source string, entries ...pricing.PriceEntry) *pricing.Table {
	t.Helper()
	table, err := pricing.NewTable(entries, pricing.Metadata{Source: source})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return table
}

func TestStore_LoadEmpty(t *testing.T) {
	store := newTestStore(t, 0)

	_, err := store.Load(context.Background())
	if !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("Expected ErrNoSnapshot, got %v", err)
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	want := pricing.EmbeddedTable()
	id, err := store.Save(ctx, want)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if id == "" {
		t.Error("Expected snapshot id")
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	wantEntries := want.Entries()
	gotEntries := got.Entries()
	if len(gotEntries) != len(wantEntries) {
		t.Fatalf("Expected %d entries, got %d", len(wantEntries), len(gotEntries))
	}
	for i := range wantEntries {
		if gotEntries[i] != wantEntries[i] {
			t.Errorf("Entry %d: expected %+v, got %+v", i, wantEntries[i], gotEntries[i])
		}
	}

	if got.Metadata().Source != pricing.SourceEmbedded {
		t.Errorf("Expected source %q, got %q", pricing.SourceEmbedded, got.Metadata().Source)
	}
	if !got.Metadata().LoadedAt.Equal(want.Metadata().LoadedAt) {
		t.Errorf("Expected loaded at %v, got %v", want.Metadata().LoadedAt, got.Metadata().LoadedAt)
	}
}

func TestStore_LatestWins(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	first := mustTable(t, "first", pricing.PriceEntry{Model: "gpt-4o", InputCostPer1K: 1})
	second := mustTable(t, "second", pricing.PriceEntry{Model: "gpt-4o", InputCostPer1K: 2})

	if _, err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if got.Metadata().Source != "second" {
		t.Errorf("Expected newest snapshot, got source %q", got.Metadata().Source)
	}

	infos, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(infos))
	}
	if infos[0].Source != "second" || infos[1].Source != "first" {
		t.Errorf("Expected newest first, got %q then %q", infos[0].Source, infos[1].Source)
	}
}

func TestStore_SaveRejectsEmpty(t *testing.T) {
	store := newTestStore(t, 0)

	if _, err := store.Save(context.Background(), nil); !errors.Is(err, pricing.ErrEmptyTable) {
		t.Errorf("Expected ErrEmptyTable, got %v", err)
	}
}

func TestStore_PersistPrunes(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	for _, src := range []string{"a", "b", "c", "d"} {
		table := mustTable(t, src, pricing.PriceEntry{Model: "gpt-4o", InputCostPer1K: 1})
		if err := store.Persist(ctx, table); err != nil {
			t.Fatalf("Persist failed: %v", err)
		}
	}

	infos, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Expected 2 snapshots after prune, got %d", len(infos))
	}
	if infos[0].Source != "d" || infos[1].Source != "c" {
		t.Errorf("Expected d and c to survive, got %q and %q", infos[0].Source, infos[1].Source)
	}

	var entries int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM pricing_entries`).Scan(&entries); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if entries != 2 {
		t.Errorf("Expected orphaned entries to be pruned, got %d rows", entries)
	}
}

func TestStore_PruneValidation(t *testing.T) {
	store := newTestStore(t, 0)

	if _, err := store.Prune(context.Background(), 0); err == nil {
		t.Error("Expected error for keep < 1")
	}
}

func TestStore_AsRefreshSource(t *testing.T) {
	snap := newTestStore(t, 0)
	ctx := context.Background()

	refreshed := mustTable(t, "remote", pricing.PriceEntry{Model: "gpt-9", InputCostPer1K: 1, OutputCostPer1K: 2})
	if err := snap.Persist(ctx, refreshed); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	prices := pricing.NewStore(nil)
	if err := prices.RefreshFrom(ctx, snap); err != nil {
		t.Fatalf("RefreshFrom failed: %v", err)
	}

	if _, ok := prices.GetModelPricing("gpt-9"); !ok {
		t.Error("Expected snapshot table to be served")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := newTestStore(t, 3)
	ctx := context.Background()
	table := pricing.EmbeddedTable()

	if err := store.Persist(ctx, table); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := store.Persist(ctx, table); err != nil {
				t.Errorf("Persist failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := store.Load(ctx); err != nil {
				t.Errorf("Load failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestStore_CloseIdempotent(t *testing.T) {
	store := newTestStore(t, 0)

	if err := store.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestNewWithConfig_Validation(t *testing.T) {
	if _, err := NewWithConfig(Config{}); err == nil {
		t.Error("Expected error for empty path")
	}
	if _, err := NewWithConfig(Config{DBPath: filepath.Join(t.TempDir(), "x.db"), Keep: -1}); err == nil {
		t.Error("Expected error for negative keep")
	}
}
