package core

import "time"

// FieldType represents the expected data type for a column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldDate
	FieldInteger
	FieldBool
)

// FieldSpec defines the coercion rules for a single column.
type FieldSpec struct {
	Name     string    // Column header name (matched case-insensitively)
	Type     FieldType // Expected data type
	Required bool      // Column must exist and every kept row must have a valid value
}

// HeaderIndex maps column names (lowercase) to their position in a row.
type HeaderIndex map[string]int

// PatientRecord is one validated row of the trial dataset.
type PatientRecord struct {
	PatientID      string    `json:"patient_id" yaml:"patient_id"`
	TrialSite      string    `json:"trial_site" yaml:"trial_site"`
	EnrollmentDate time.Time `json:"enrollment_date" yaml:"enrollment_date"`
	Age            int       `json:"age" yaml:"age"`
	AdverseEvent   bool      `json:"adverse_event" yaml:"adverse_event"`
	CompletedTrial bool      `json:"completed_trial" yaml:"completed_trial"`
}

// DroppedRow describes a row the loader discarded.
type DroppedRow struct {
	Line   int    `json:"line" yaml:"line"`
	Reason string `json:"reason" yaml:"reason"`
}

// LoadReport summarizes what the loader read and what it discarded.
type LoadReport struct {
	Source         string       `json:"source" yaml:"source"`
	RowsRead       int          `json:"rows_read" yaml:"rows_read"`
	RowsKept       int          `json:"rows_kept" yaml:"rows_kept"`
	DroppedRows    []DroppedRow `json:"dropped_rows" yaml:"dropped_rows"`
	DroppedColumns []string     `json:"dropped_columns" yaml:"dropped_columns"`
}

// newLoadReport returns a report whose dropped lists are empty, not nil, so
// a clean load serializes them as [].
func newLoadReport(rowsRead int) LoadReport {
	return LoadReport{RowsRead: rowsRead, DroppedRows: []DroppedRow{}, DroppedColumns: []string{}}
}

// RowsDropped returns the number of discarded rows.
func (r LoadReport) RowsDropped() int {
	return len(r.DroppedRows)
}

// Table is the cleaned, immutable set of patient records the statistics
// engine works on. A nil *Table behaves as an empty table.
type Table struct {
	records []PatientRecord
	report  LoadReport
}

// NewTable builds a table from already-validated records. The slice is copied.
func NewTable(records []PatientRecord) *Table {
	rs := make([]PatientRecord, len(records))
	copy(rs, records)
	report := newLoadReport(len(rs))
	report.RowsKept = len(rs)
	return &Table{records: rs, report: report}
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Records returns a copy of the records.
func (t *Table) Records() []PatientRecord {
	if t == nil {
		return nil
	}
	rs := make([]PatientRecord, len(t.records))
	copy(rs, t.records)
	return rs
}

// Report returns what the loader did while building the table.
func (t *Table) Report() LoadReport {
	if t == nil {
		return newLoadReport(0)
	}
	return t.report
}

// rows exposes the backing slice to the engine, which only reads it.
func (t *Table) rows() []PatientRecord {
	if t == nil {
		return nil
	}
	return t.records
}
