// Package snapshot persists refreshed pricing tables in SQLite.
//
// # Overview
//
// A Store records every table handed to Persist as a numbered snapshot and
// serves the newest one back through Load, so a process that refreshed its
// prices from the network can start from the last good table instead of the
// built-in one:
//
//	snap, err := snapshot.New("/var/lib/ctoken/pricing.db")
//	if err != nil {
//	    return err
//	}
//	defer snap.Close()
//
//	initial, err := snap.Load(ctx)
//	if errors.Is(err, snapshot.ErrNoSnapshot) {
//	    initial = pricing.EmbeddedTable()
//	}
//
//	store := pricing.NewStore(initial, pricing.WithPersister(snap))
//
// # Thread Safety
//
// Store is safe for concurrent use. Writes are serialized internally.
package snapshot
