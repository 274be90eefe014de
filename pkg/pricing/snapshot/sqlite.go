package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/o1x3/ctoken/pkg/pricing"
)

// ErrNoSnapshot is returned by Load and Latest when the database holds no
// snapshot yet.
var ErrNoSnapshot = errors.New("no pricing snapshot stored")

// Info describes one stored snapshot.
type Info struct {
	ID        string
	Source    string
	LoadedAt  time.Time
	CreatedAt time.Time
	Entries   int
}

// Store keeps refreshed price tables in SQLite so the last good table
// survives restarts. It implements both pricing.Source and pricing.Persister.
type Store struct {
	db        *sql.DB
	dbPath    string
	keep      int
	mu        sync.RWMutex
	closeOnce sync.Once

	latestStmt  *sql.Stmt
	entriesStmt *sql.Stmt
	listStmt    *sql.Stmt
}

// Config configures the snapshot store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// Keep is how many snapshots Persist retains. Zero keeps all.
	// Default: 10
	Keep int

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// New opens a snapshot store with default settings.
func New(dbPath string) (*Store, error) {
	return NewWithConfig(Config{DBPath: dbPath, Keep: 10})
}

// NewWithConfig opens a snapshot store with custom configuration.
func NewWithConfig(cfg Config) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.Keep < 0 {
		return nil, fmt.Errorf("keep cannot be negative")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{
		db:     db,
		dbPath: cfg.DBPath,
		keep:   cfg.Keep,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pricing_snapshots (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		loaded_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		entries INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pricing_entries (
		snapshot_id TEXT NOT NULL REFERENCES pricing_snapshots(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		model TEXT NOT NULL,
		version TEXT NOT NULL,
		input_per_1k REAL NOT NULL,
		cached_input_per_1k REAL NOT NULL,
		output_per_1k REAL NOT NULL,
		PRIMARY KEY (snapshot_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_created ON pricing_snapshots(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) prepareStatements() error {
	var err error

	s.latestStmt, err = s.db.Prepare(`
		SELECT id, source, loaded_at, created_at, entries
		FROM pricing_snapshots
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare latest statement: %w", err)
	}

	s.entriesStmt, err = s.db.Prepare(`
		SELECT model, version, input_per_1k, cached_input_per_1k, output_per_1k
		FROM pricing_entries
		WHERE snapshot_id = ?
		ORDER BY position
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare entries statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT id, source, loaded_at, created_at, entries
		FROM pricing_snapshots
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	return nil
}

// Name returns "sqlite:<path>".
func (s *Store) Name() string {
	return "sqlite:" + s.dbPath
}

// Save writes t as a new snapshot and returns its id. Entries keep their
// declaration order.
func (s *Store) Save(ctx context.Context, t *pricing.Table) (string, error) {
	if t == nil || t.Len() == 0 {
		return "", pricing.ErrEmptyTable
	}

	id := uuid.NewString()
	meta := t.Metadata()
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO pricing_snapshots (id, source, loaded_at, created_at, entries) VALUES (?, ?, ?, ?, ?)`,
		id, meta.Source, meta.LoadedAt.UnixNano(), now.UnixNano(), t.Len(),
	); err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO pricing_entries (snapshot_id, position, model, version, input_per_1k, cached_input_per_1k, output_per_1k)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer insert.Close()

	for i, e := range t.Entries() {
		if _, err := insert.ExecContext(ctx, id, i, e.Model, e.Version,
			e.InputCostPer1K, e.CachedInputCostPer1K, e.OutputCostPer1K); err != nil {
			return "", fmt.Errorf("failed to save entry %s: %w", e.ID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit snapshot: %w", err)
	}

	return id, nil
}

// Persist saves t and prunes old snapshots down to the configured limit.
func (s *Store) Persist(ctx context.Context, t *pricing.Table) error {
	if _, err := s.Save(ctx, t); err != nil {
		return err
	}
	if s.keep > 0 {
		if _, err := s.Prune(ctx, s.keep); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the most recent snapshot as a table.
func (s *Store) Load(ctx context.Context) (*pricing.Table, error) {
	return s.Latest(ctx)
}

// Latest returns the most recent snapshot, or ErrNoSnapshot.
func (s *Store) Latest(ctx context.Context) (*pricing.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, err := scanInfo(s.latestStmt.QueryRowContext(ctx))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}

	return s.loadEntries(ctx, info)
}

func (s *Store) loadEntries(ctx context.Context, info Info) (*pricing.Table, error) {
	rows, err := s.entriesStmt.QueryContext(ctx, info.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot entries: %w", err)
	}
	defer rows.Close()

	entries := make([]pricing.PriceEntry, 0, info.Entries)
	for rows.Next() {
		var e pricing.PriceEntry
		if err := rows.Scan(&e.Model, &e.Version, &e.InputCostPer1K, &e.CachedInputCostPer1K, &e.OutputCostPer1K); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return pricing.NewTable(entries, pricing.Metadata{Source: info.Source, LoadedAt: info.LoadedAt})
}

// List returns all snapshots, newest first.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.listStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return out, nil
}

// Prune deletes all but the newest keep snapshots and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		return 0, fmt.Errorf("keep must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stale := `SELECT id FROM pricing_snapshots ORDER BY created_at DESC, rowid DESC LIMIT -1 OFFSET ?`

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM pricing_entries WHERE snapshot_id IN (`+stale+`)`, keep); err != nil {
		return 0, fmt.Errorf("failed to prune entries: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM pricing_snapshots WHERE id IN (`+stale+`)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}

	return int(deleted), nil
}

// Close releases the database. Close is idempotent.
func (s *Store) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.latestStmt, s.entriesStmt, s.listStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(row scanner) (Info, error) {
	var (
		info      Info
		loadedAt  int64
		createdAt int64
	)
	if err := row.Scan(&info.ID, &info.Source, &loadedAt, &createdAt, &info.Entries); err != nil {
		return Info{}, err
	}
	info.LoadedAt = time.Unix(0, loadedAt).UTC()
	info.CreatedAt = time.Unix(0, createdAt).UTC()
	return info, nil
}
