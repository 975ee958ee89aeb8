/*
Package sheet moves tables in and out of spreadsheet files.

PURPOSE:
  Uploaded requester lists and master rosters arrive as .xlsx workbooks or
  .csv exports. This package reads either into a roster.Table, and writes
  the computed payout table back out as a formatted workbook. It knows
  nothing about DNIs or payouts beyond their column layout.

FORMATS:
  .xlsx/.xlsm  first worksheet, first row is the header (excelize)
  .csv/.txt    UTF-8 (with or without BOM), UTF-16 with BOM, or
               Windows-1252; "," or ";" delimiter sniffed from the header

BLANK ROWS:
  Rows whose cells are all blank are skipped on read.

SEE ALSO:
  - writer.go: payout workbook export
  - roster/types.go: Table
*/
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/warp/bono-engine/roster"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for file extensions we cannot read.
	ErrUnsupportedFormat = errors.New("unsupported file format (want .xlsx or .csv)")

	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("file has no header row")
)

// ReadTable reads an uploaded file, choosing the parser by extension.
func ReadTable(name string, r io.Reader) (roster.Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	case ".csv", ".txt":
		data, err := io.ReadAll(r)
		if err != nil {
			return roster.Table{}, fmt.Errorf("read %s: %w", name, err)
		}
		return ReadCSV(data)
	}
	return roster.Table{}, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
}

// ReadXLSX reads the first worksheet of a workbook.
func ReadXLSX(r io.Reader) (roster.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return roster.Table{}, fmt.Errorf("failed to open excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return roster.Table{}, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return roster.Table{}, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return toTable(rows, nil)
}

// toTable splits the header row off and drops blank rows. lines[i] is the
// 1-based source line of rows[i]; nil means row i sits on line i+1.
func toTable(rows [][]string, lines []int) (roster.Table, error) {
	line := func(i int) int {
		if lines != nil {
			return lines[i]
		}
		return i + 1
	}

	start := 0
	for start < len(rows) && isBlank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return roster.Table{}, ErrEmptyFile
	}

	headers := make([]string, len(rows[start]))
	for i, h := range rows[start] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	n := len(rows) - start - 1
	t := roster.Table{Headers: headers, Rows: make([][]string, 0, n), Lines: make([]int, 0, n)}
	for i := start + 1; i < len(rows); i++ {
		if isBlank(rows[i]) {
			continue
		}
		t.Rows = append(t.Rows, rows[i])
		t.Lines = append(t.Lines, line(i))
	}
	return t, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// firstLine returns data up to the first newline.
func firstLine(data []byte) []byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[:i]
	}
	return data
}
