// Package loader reads firm registries and raw-entity batches from CSV and
// XLSX files. Malformed rows are skipped and counted; only an unreadable file
// or a missing required column is fatal.
package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// Stats summarizes one load.
type Stats struct {
	Rows    int
	Loaded  int
	Skipped int
}

// header maps lowercased column names to their position in the file.
type header map[string]int

func newHeader(row []string) header {
	h := make(header, len(row))
	for i, col := range row {
		h[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return h
}

// require verifies the named columns exist, returning the first missing one.
func (h header) require(cols ...string) error {
	for _, col := range cols {
		if _, ok := h[col]; !ok {
			return eris.Errorf("loader: missing required column %q", col)
		}
	}
	return nil
}

func (h header) get(row []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// splitList splits a pipe-delimited multi-value cell.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// rows reads every row of a CSV or XLSX file, dispatching on extension.
// The first row is the header.
func rows(ctx context.Context, path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return xlsxRows(path)
	case ".csv", ".txt":
		return csvRows(ctx, path)
	default:
		return nil, eris.Errorf("loader: unsupported file type %q", filepath.Ext(path))
	}
}

func csvRows(ctx context.Context, path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "loader: open csv")
	}
	defer f.Close()

	rowCh, errCh := streamCSV(ctx, f)
	var out [][]string
	for row := range rowCh {
		out = append(out, row)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return out, nil
}

func xlsxRows(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "loader: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("loader: workbook has no sheets")
	}

	sheet := f.Sheets[0]
	out := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = cell.String()
		}
		out = append(out, cells)
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func logSkip(log *zap.Logger, path string, row int, reason string) {
	log.Warn("skipping row",
		zap.String("file", path),
		zap.Int("row", row),
		zap.String("reason", reason))
}
