package pricing

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Table is an immutable, ordered set of price entries. Declaration order is
// significant: it breaks ties between equally good matches.
type Table struct {
	entries []PriceEntry
	meta    Metadata
}

// NewTable validates entries and builds a Table. Blank versions become
// LatestVersion. The input slice is copied.
func NewTable(entries []PriceEntry, meta Metadata) (*Table, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyTable
	}

	seen := make(map[string]struct{}, len(entries))
	out := make([]PriceEntry, 0, len(entries))

	for i, e := range entries {
		e.Model = strings.ToLower(strings.TrimSpace(e.Model))
		e.Version = strings.ToLower(strings.TrimSpace(e.Version))
		if e.Version == "" {
			e.Version = LatestVersion
		}

		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		key := e.Model + "\x00" + e.Version
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("entry %d: %w: %s", i, ErrDuplicateEntry, e.ID())
		}
		seen[key] = struct{}{}

		out = append(out, e)
	}

	if meta.LoadedAt.IsZero() {
		meta.LoadedAt = time.Now().UTC()
	}

	return &Table{entries: out, meta: meta}, nil
}

// Entries returns a copy of all entries in declaration order.
func (t *Table) Entries() []PriceEntry {
	out := make([]PriceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Metadata returns where and when the table was loaded.
func (t *Table) Metadata() Metadata {
	return t.meta
}

// Models returns the distinct model names in declaration order.
func (t *Table) Models() []string {
	seen := make(map[string]struct{}, len(t.entries))
	var models []string
	for _, e := range t.entries {
		if _, ok := seen[e.Model]; ok {
			continue
		}
		seen[e.Model] = struct{}{}
		models = append(models, e.Model)
	}
	return models
}

// Lookup returns the entry for an exact (model, version) pair.
// An empty version means LatestVersion.
func (t *Table) Lookup(model, version string) (PriceEntry, bool) {
	model = normalizeModelID(model)
	version = strings.ToLower(strings.TrimSpace(version))
	if version == "" {
		version = LatestVersion
	}

	for _, e := range t.entries {
		if e.Model == model && e.Version == version {
			return e, true
		}
	}
	return PriceEntry{}, false
}

// Resolve maps a free-form model identifier to its best price entry:
//
//  1. exact (model, version) pair, where the version is whatever follows a
//     table model name and a "-" separator
//  2. exact model name against an entry whose version is "latest"
//  3. the longest table model name that is a prefix of the input
//
// The first step that matches wins; within a step the earliest declared
// entry wins.
func (t *Table) Resolve(model string) (Resolution, bool) {
	id := normalizeModelID(model)
	if id == "" {
		return Resolution{}, false
	}

	for _, e := range t.entries {
		if id == e.Model+"-"+e.Version {
			return Resolution{Entry: e, Rule: RuleExactVersion, Input: id}, true
		}
	}

	for _, e := range t.entries {
		if e.Model == id && e.Version == LatestVersion {
			return Resolution{Entry: e, Rule: RuleExactModel, Input: id}, true
		}
	}

	best := -1
	for i, e := range t.entries {
		if !strings.HasPrefix(id, e.Model) {
			continue
		}
		// Strictly longer only, so the first declared entry keeps ties.
		if best < 0 || len(e.Model) > len(t.entries[best].Model) {
			best = i
		}
	}
	if best >= 0 {
		return Resolution{Entry: t.entries[best], Rule: RulePrefix, Input: id}, true
	}

	return Resolution{Input: id}, false
}

var snapshotSuffix = regexp.MustCompile(`-(\d{4}-\d{2}-\d{2}|\d{4})$`)

// SplitSnapshot splits a dated snapshot suffix off a model identifier:
// "gpt-4o-mini-2024-07-18" gives ("gpt-4o-mini", "2024-07-18") and
// "gpt-4-0613" gives ("gpt-4", "0613"). Identifiers without a dated suffix
// return LatestVersion.
func SplitSnapshot(id string) (base, version string) {
	id = normalizeModelID(id)
	loc := snapshotSuffix.FindStringSubmatchIndex(id)
	if loc == nil {
		return id, LatestVersion
	}
	return id[:loc[0]], id[loc[2]:loc[3]]
}

func normalizeModelID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
