package pricing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// CSV column headers. The published file quotes prices per 1M tokens.
const (
	ColumnModel       = "Model"
	ColumnVersion     = "Version"
	ColumnInput       = "Input"
	ColumnCachedInput = "Cached input"
	ColumnOutput      = "Output"
)

var csvHeader = []string{ColumnModel, ColumnVersion, ColumnInput, ColumnCachedInput, ColumnOutput}

// tokensPerQuote is the unit the CSV prices are quoted in.
const tokensPerQuote = 1_000_000

// ParseCSV reads a pricing CSV and builds a Table. Any malformed row rejects
// the whole input; a partially parsed table is never returned.
func ParseCSV(r io.Reader, meta Metadata) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyTable
	}
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{ColumnModel, ColumnInput, ColumnOutput} {
		if _, ok := cols[strings.ToLower(required)]; !ok {
			return nil, &ParseError{Line: 1, Column: required, Err: errors.New("missing required column")}
		}
	}

	field := func(record []string, name string) string {
		i, ok := cols[strings.ToLower(name)]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var entries []PriceEntry
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				line = csvErr.Line
			}
			return nil, &ParseError{Line: line, Err: err}
		}
		line, _ := reader.FieldPos(0)

		model := field(record, ColumnModel)
		if model == "" {
			// Blank rows are tolerated; a row with prices but no model is not.
			if strings.TrimSpace(strings.Join(record, "")) == "" {
				continue
			}
			return nil, &ParseError{Line: line, Column: ColumnModel, Err: errors.New("model name is empty")}
		}

		entry := PriceEntry{Model: model, Version: field(record, ColumnVersion)}

		prices := []struct {
			column string
			dst    *float64
		}{
			{ColumnInput, &entry.InputCostPer1K},
			{ColumnCachedInput, &entry.CachedInputCostPer1K},
			{ColumnOutput, &entry.OutputCostPer1K},
		}
		for _, p := range prices {
			perQuote, err := parsePrice(field(record, p.column))
			if err != nil {
				return nil, &ParseError{Line: line, Column: p.column, Err: err}
			}
			*p.dst = perQuote / (tokensPerQuote / 1000)
		}

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, ErrEmptyTable
	}

	return NewTable(entries, meta)
}

// parsePrice parses "$2.50", "2.5", "$1,000.00". "-", "N/A" and blank mean
// the model has no price of that kind.
func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "-", "n/a", "na":
		return 0, nil
	}

	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return v, nil
}

// WriteCSV writes t in the same format ParseCSV reads.
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, e := range t.entries {
		version := e.Version
		if version == LatestVersion {
			version = ""
		}
		record := []string{
			e.Model,
			version,
			formatPrice(e.InputCostPer1K),
			formatPrice(e.CachedInputCostPer1K),
			formatPrice(e.OutputCostPer1K),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", e.ID(), err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatPrice(per1K float64) string {
	if per1K == 0 {
		return "-"
	}
	perQuote := math.Round(per1K*(tokensPerQuote/1000)*1e6) / 1e6
	s := strconv.FormatFloat(perQuote, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".00"
	} else if len(s)-strings.Index(s, ".") == 2 {
		s += "0"
	}
	return "$" + s
}
