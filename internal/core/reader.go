package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"
)

// ReadFile loads one source file into a RecordSet. Spreadsheets use their
// first sheet; delimited files are decoded with DefaultEncodings. The first
// non-empty row is the header. A nil logger uses slog.Default.
//
// Every failure is returned as a *FatalError. Legacy .xls workbooks are not
// readable and fail with ErrUnsupportedFormat.
func ReadFile(path string, logger *slog.Logger) (*RecordSet, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FatalError{Op: "extract", Path: path, Err: ErrMissingInput}
		}
		return nil, &FatalError{Op: "extract", Path: path, Err: err}
	}

	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		records, err = readSpreadsheet(path)
	case ".csv":
		records, err = readDelimited(path, logger)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, &FatalError{Op: "extract", Path: path, Err: err}
	}

	rs, err := buildRecordSet(path, records)
	if err != nil {
		return nil, &FatalError{Op: "extract", Path: path, Err: err}
	}
	return rs, nil
}

func readSpreadsheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrEmptyInput)
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("open rows iterator for sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	var records [][]string
	for rows.Next() {
		row, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read row in sheet %s: %w", sheets[0], err)
		}
		records = append(records, row)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	return records, nil
}

func readDelimited(path string, logger *slog.Logger) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	counter := NewCountingReader(f)
	data, err := io.ReadAll(NewBOMSkippingReader(counter))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	text, encName, err := decodeText(logger, path, data, DefaultEncodings)
	if err != nil {
		return nil, err
	}
	logger.Debug("decoded delimited file", "file", path, "encoding", encName, "bytes", counter.BytesRead)

	return parseCSV(text)
}

func parseCSV(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return records, nil
}

// buildRecordSet turns raw records into a RecordSet. Blank rows are skipped,
// short rows are padded with empty cells and trailing empty cells beyond the
// header are dropped. A row with extra non-empty cells is an error.
func buildRecordSet(path string, records [][]string) (*RecordSet, error) {
	start := 0
	for start < len(records) && isEmptyRow(records[start]) {
		start++
	}
	if start == len(records) {
		return nil, fmt.Errorf("%w: no header row", ErrEmptyInput)
	}

	header := trimTrailingEmpty(records[start])
	rs := &RecordSet{
		Source:  path,
		Columns: append([]string(nil), header...),
	}

	for i, rec := range records[start+1:] {
		if isEmptyRow(rec) {
			continue
		}
		rec = trimTrailingEmpty(rec)
		if len(rec) > len(header) {
			return nil, fmt.Errorf("line %d: %d fields, header has %d", start+i+2, len(rec), len(header))
		}

		row := make([]pgtype.Text, len(header))
		for j := range row {
			var v string
			if j < len(rec) {
				v = rec[j]
			}
			row[j] = pgtype.Text{String: v, Valid: true}
		}
		rs.Rows = append(rs.Rows, row)
	}

	return rs, nil
}

func trimTrailingEmpty(row []string) []string {
	n := len(row)
	for n > 0 && row[n-1] == "" {
		n--
	}
	return row[:n]
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
