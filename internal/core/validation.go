package core

// validation.go checks header and rows against PatientSchema.
//
// Header problems are fatal for the whole file (SchemaError). Row problems
// are recovered locally: RowValidator reports every failing cell and the
// loader drops the row.

import (
	"fmt"
	"strings"
)

// ValidationError describes a single cell that failed coercion.
type ValidationError struct {
	Field   string // Column name
	Value   string // The offending raw value (empty for missing cells)
	Message string // Human-readable reason
}

func (e ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (%q)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// RowValidator converts raw rows into PatientRecords.
type RowValidator struct {
	specs     []FieldSpec
	headerIdx HeaderIndex
}

// NewRowValidator creates a validator for the given specs and header index.
func NewRowValidator(specs []FieldSpec, headerIdx HeaderIndex) *RowValidator {
	return &RowValidator{specs: specs, headerIdx: headerIdx}
}

// Parse validates every schema cell of row. It returns the record when all
// cells are valid, otherwise every validation error found.
func (v *RowValidator) Parse(row []string) (PatientRecord, []ValidationError) {
	var (
		rec  PatientRecord
		errs []ValidationError
	)

	for _, spec := range v.specs {
		raw := v.cell(row, spec.Name)

		if IsNull(raw) {
			if spec.Required {
				errs = append(errs, ValidationError{Field: spec.Name, Message: "missing value"})
			}
			continue
		}

		if err := assign(&rec, spec, raw); err != nil {
			errs = append(errs, *err)
		}
	}

	if len(errs) > 0 {
		return PatientRecord{}, errs
	}
	return rec, nil
}

// cell returns the cleaned value of the named column, or "" when the row is
// too short or the column is unknown.
func (v *RowValidator) cell(row []string, name string) string {
	pos, ok := v.headerIdx[strings.ToLower(name)]
	if !ok || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}

// assign coerces raw according to spec and stores it on rec.
func assign(rec *PatientRecord, spec FieldSpec, raw string) *ValidationError {
	invalid := func(msg string) *ValidationError {
		return &ValidationError{Field: spec.Name, Value: raw, Message: msg}
	}

	switch spec.Name {
	case ColPatientID:
		rec.PatientID = raw
	case ColTrialSite:
		rec.TrialSite = raw
	case ColEnrollmentDate:
		d, ok := ParseISODate(raw)
		if !ok {
			return invalid("invalid date (use YYYY-MM-DD)")
		}
		rec.EnrollmentDate = d
	case ColAge:
		n, ok := ParseAge(raw)
		if !ok {
			return invalid("invalid age (must be a whole number)")
		}
		rec.Age = n
	case ColAdverseEvent, ColCompletedTrial:
		b, ok := ParseBool(raw)
		if !ok {
			return invalid("invalid boolean (use true/false, yes/no or 1/0)")
		}
		if spec.Name == ColAdverseEvent {
			rec.AdverseEvent = b
		} else {
			rec.CompletedTrial = b
		}
	}
	return nil
}

// ValidateHeaders checks that all required columns exist in the header.
func ValidateHeaders(header []string, specs []FieldSpec) (HeaderIndex, error) {
	idx := MakeHeaderIndex(header)
	var missing []string

	for _, spec := range specs {
		if !spec.Required {
			continue
		}
		if _, ok := idx[strings.ToLower(spec.Name)]; !ok {
			missing = append(missing, spec.Name)
		}
	}

	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return idx, nil
}

// joinValidationErrors renders errs as a single "; "-separated reason.
func joinValidationErrors(errs []ValidationError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}
