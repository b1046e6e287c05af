package core

// loader.go reads a delimited file (or an .xlsx workbook) into a Table.
//
// The flow:
//  1. Open the source; missing/unreadable/empty -> DataUnavailableError
//  2. Skip a UTF-8 BOM, parse rows, replace invalid UTF-8 in cells
//  3. Validate the header against PatientSchema -> SchemaError
//  4. Drop optional columns that are null in every row
//  5. Coerce each row; drop rows with invalid required cells or repeated ids
//
// Every drop is logged at WARN and recorded in the table's LoadReport.

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
	zipMagic = []byte("PK\x03\x04")
)

// Loader reads patient tables. The zero value logs to slog.Default().
type Loader struct {
	Logger *slog.Logger
}

// Load reads the file at path using a default Loader.
func Load(path string) (*Table, error) {
	return Loader{}.Load(path)
}

// LoadReader reads r using a default Loader. name is used for logging and
// for detecting the format from its extension.
func LoadReader(r io.Reader, name string) (*Table, error) {
	return Loader{}.LoadReader(r, name)
}

// Load opens path read-only and reads it.
func (l Loader) Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, unavailable(path, ReasonNotFound, err)
		}
		return nil, unavailable(path, ReasonUnreadable, err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.IsDir() {
		return nil, unavailable(path, ReasonUnreadable, fmt.Errorf("is a directory"))
	}

	return l.LoadReader(f, path)
}

// LoadReader reads a table from r.
func (l Loader) LoadReader(r io.Reader, name string) (*Table, error) {
	log := l.logger().With("source", name)

	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, unavailable(name, ReasonEmpty, nil)
		}
		return nil, unavailable(name, ReasonUnreadable, err)
	}

	var (
		raw *rawTable
		err error
	)
	if isWorkbook(br, name) {
		raw, err = readWorkbook(br, name)
	} else {
		raw, err = readDelimited(br, name)
	}
	if err != nil {
		return nil, err
	}

	t, err := buildTable(raw, name, log)
	if err != nil {
		return nil, err
	}
	t.report.Source = name

	log.Info("table loaded",
		"rows_read", t.report.RowsRead,
		"rows_kept", t.report.RowsKept,
		"rows_dropped", t.report.RowsDropped(),
		"columns_dropped", len(t.report.DroppedColumns),
	)
	return t, nil
}

func (l Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// rawRow is an unparsed data row with its 1-based source line.
type rawRow struct {
	line  int
	cells []string
}

type rawTable struct {
	header []string
	rows   []rawRow
}

func isWorkbook(br *bufio.Reader, name string) bool {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return true
	}
	head, _ := br.Peek(len(zipMagic))
	return bytes.Equal(head, zipMagic)
}

// readDelimited parses CSV text. Blank lines are skipped by encoding/csv.
func readDelimited(br *bufio.Reader, name string) (*rawTable, error) {
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var raw *rawTable
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, unavailable(name, ReasonUnparsable, err)
		}
		line, _ := cr.FieldPos(0)
		sanitize(rec)

		if raw == nil {
			raw = &rawTable{header: rec}
			continue
		}
		raw.rows = append(raw.rows, rawRow{line: line, cells: rec})
	}

	if raw == nil {
		return nil, unavailable(name, ReasonEmpty, nil)
	}
	return raw, nil
}

// readWorkbook reads the first sheet of an .xlsx workbook.
func readWorkbook(r io.Reader, name string) (*rawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, unavailable(name, ReasonUnparsable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, unavailable(name, ReasonEmpty, nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, unavailable(name, ReasonUnparsable, err)
	}

	var raw *rawTable
	for i, rec := range rows {
		if isBlank(rec) {
			continue
		}
		sanitize(rec)
		if raw == nil {
			raw = &rawTable{header: rec}
			continue
		}
		raw.rows = append(raw.rows, rawRow{line: i + 1, cells: rec})
	}

	if raw == nil {
		return nil, unavailable(name, ReasonEmpty, nil)
	}
	return raw, nil
}

// buildTable validates the header, drops empty optional columns and coerces
// every row.
func buildTable(raw *rawTable, name string, log *slog.Logger) (*Table, error) {
	idx, err := ValidateHeaders(raw.header, PatientSchema)
	if err != nil {
		return nil, err
	}

	if len(raw.rows) == 0 {
		return nil, unavailable(name, ReasonNoRows, nil)
	}

	report := newLoadReport(len(raw.rows))

	var emptyRequired []string
	for pos, col := range raw.header {
		col = CleanCell(col)
		if col == "" || idx[strings.ToLower(col)] != pos || !columnAllNull(raw.rows, pos) {
			continue
		}
		if isRequired(col) {
			emptyRequired = append(emptyRequired, col)
			continue
		}
		report.DroppedColumns = append(report.DroppedColumns, col)
		log.Warn("column dropped", "column", col, "reason", "no values in any row")
	}
	if len(emptyRequired) > 0 {
		return nil, &SchemaError{Empty: emptyRequired}
	}

	validator := NewRowValidator(PatientSchema, idx)
	seen := make(map[string]int, len(raw.rows))
	records := make([]PatientRecord, 0, len(raw.rows))

	for _, row := range raw.rows {
		rec, errs := validator.Parse(row.cells)
		if len(errs) > 0 {
			report.DroppedRows = append(report.DroppedRows, dropRow(log, row.line, joinValidationErrors(errs)))
			continue
		}
		if first, dup := seen[rec.PatientID]; dup {
			reason := fmt.Sprintf("duplicate patient_id %q (first seen on line %d)", rec.PatientID, first)
			report.DroppedRows = append(report.DroppedRows, dropRow(log, row.line, reason))
			continue
		}
		seen[rec.PatientID] = row.line
		if rec.Age < 18 || rec.Age > 100 {
			log.Debug("age outside expected range", "line", row.line, "patient_id", rec.PatientID, "age", rec.Age)
		}
		records = append(records, rec)
	}

	report.RowsKept = len(records)
	return &Table{records: records, report: report}, nil
}

func dropRow(log *slog.Logger, line int, reason string) DroppedRow {
	log.Warn("row dropped", "line", line, "reason", reason)
	return DroppedRow{Line: line, Reason: reason}
}

func columnAllNull(rows []rawRow, pos int) bool {
	for _, r := range rows {
		if pos < len(r.cells) && !IsNull(CleanCell(r.cells[pos])) {
			return false
		}
	}
	return true
}

func isRequired(column string) bool {
	for _, spec := range PatientSchema {
		if spec.Required && strings.EqualFold(spec.Name, column) {
			return true
		}
	}
	return false
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// sanitize replaces invalid UTF-8 sequences in place.
func sanitize(rec []string) {
	for i, c := range rec {
		rec[i] = strings.ToValidUTF8(c, "?")
	}
}
