package pricing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Persister stores a table after a successful refresh.
type Persister interface {
	Persist(ctx context.Context, t *Table) error
}

// CSVFilePersister rewrites a local CSV mirror of the table.
type CSVFilePersister struct {
	Path string
}

// Persist writes t to a temporary file next to Path and renames it into
// place, so readers never observe a half-written file.
func (p CSVFilePersister) Persist(_ context.Context, t *Table) error {
	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".pricing-*.csv")
	if err != nil {
		return fmt.Errorf("creating temporary csv: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := WriteCSV(tmp, t); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary csv: %w", err)
	}

	if err := os.Rename(tmpName, p.Path); err != nil {
		return fmt.Errorf("replacing %q: %w", p.Path, err)
	}
	return nil
}
