package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/trialstats/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const header = "patient_id,trial_site,enrollment_date,age,adverse_event,completed_trial\n"

const exampleCSV = header +
	"P001,Boston,2024-01-15,45,false,true\n" +
	"P002,Chicago,2024-01-20,32,true,true\n" +
	"P003,NewYork,2024-02-01,67,false,false\n"

// load reads csv and returns the table plus everything that was logged.
func load(t *testing.T, csv string) (*Table, string, error) {
	t.Helper()
	var buf bytes.Buffer
	l := Loader{Logger: logging.New(&buf, "debug", "text")}
	tbl, err := l.LoadReader(strings.NewReader(csv), "test.csv")
	return tbl, buf.String(), err
}

func TestLoad_Example(t *testing.T) {
	tbl, _, err := load(t, exampleCSV)
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())

	rec := tbl.Records()[1]
	assert.Equal(t, "P002", rec.PatientID)
	assert.Equal(t, "Chicago", rec.TrialSite)
	assert.Equal(t, 32, rec.Age)
	assert.True(t, rec.AdverseEvent)
	assert.True(t, rec.CompletedTrial)
	assert.Equal(t, "2024-01-20", rec.EnrollmentDate.Format(ISODateLayout))

	report := tbl.Report()
	assert.Equal(t, "test.csv", report.Source)
	assert.Equal(t, 3, report.RowsRead)
	assert.Equal(t, 3, report.RowsKept)
	assert.Zero(t, report.RowsDropped())
}

func TestLoad_CleanReportListsAreEmpty(t *testing.T) {
	tbl, _, err := load(t, exampleCSV)
	require.NoError(t, err)

	out, err := json.Marshal(tbl.Report())
	require.NoError(t, err)
	assert.Contains(t, string(out), `"dropped_rows":[]`)
	assert.Contains(t, string(out), `"dropped_columns":[]`)

	for _, r := range []LoadReport{NewTable(nil).Report(), (*Table)(nil).Report()} {
		assert.NotNil(t, r.DroppedRows)
		assert.NotNil(t, r.DroppedColumns)
	}
}

func TestLoad_MalformedAgeDroppedAndLogged(t *testing.T) {
	csv := exampleCSV + "P004,Boston,2024-02-10,unknown,false,true\n"

	tbl, logs, err := load(t, csv)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	report := tbl.Report()
	require.Len(t, report.DroppedRows, 1)
	assert.Equal(t, 5, report.DroppedRows[0].Line)
	assert.Contains(t, report.DroppedRows[0].Reason, "age")

	assert.Contains(t, logs, "row dropped")
	assert.Contains(t, logs, "line=5")
	assert.Equal(t, 3, Summarize(tbl).TotalPatients)
}

func TestLoad_RowDropRules(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"null token", "P009,NA,2024-01-01,40,false,true"},
		{"empty cell", "P009,Boston,,40,false,true"},
		{"bad boolean", "P009,Boston,2024-01-01,40,maybe,true"},
		{"bad date", "P009,Boston,01/02/2024,40,false,true"},
		{"negative age", "P009,Boston,2024-01-01,-1,false,true"},
		{"short row", "P009,Boston"},
		{"duplicate id", "P001,Boston,2024-03-01,50,false,true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, logs, err := load(t, exampleCSV+tt.row+"\n")
			require.NoError(t, err)
			assert.Equal(t, 3, tbl.Len())
			assert.Equal(t, 1, tbl.Report().RowsDropped())
			assert.Contains(t, logs, "row dropped")
		})
	}
}

func TestLoad_DuplicateKeepsFirst(t *testing.T) {
	tbl, _, err := load(t, exampleCSV+"P001,Denver,2024-03-01,50,true,false\n")
	require.NoError(t, err)

	assert.Equal(t, "Boston", tbl.Records()[0].TrialSite)
	assert.Contains(t, tbl.Report().DroppedRows[0].Reason, "duplicate patient_id")
}

func TestLoad_CaseInsensitiveTokens(t *testing.T) {
	csv := "Patient_ID,TRIAL_SITE,Enrollment_Date,Age,Adverse_Event,Completed_Trial\n" +
		"P001,Boston,2024-01-15,45,YES,No\n" +
		"P002,Boston,2024-01-16,46.0,0,1\n"

	tbl, _, err := load(t, csv)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())

	recs := tbl.Records()
	assert.True(t, recs[0].AdverseEvent)
	assert.False(t, recs[0].CompletedTrial)
	assert.Equal(t, 46, recs[1].Age)
	assert.True(t, recs[1].CompletedTrial)
}

func TestLoad_ExtraColumns(t *testing.T) {
	csv := "patient_id,trial_site,notes,enrollment_date,age,adverse_event,completed_trial,arm\n" +
		"P001,Boston,,2024-01-15,45,false,true,A\n" +
		"P002,Boston,null,2024-01-16,50,false,true,B\n"

	tbl, logs, err := load(t, csv)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"notes"}, tbl.Report().DroppedColumns)
	assert.Contains(t, logs, "column dropped")
}

func TestLoad_BOMAndCRLF(t *testing.T) {
	csv := "\xEF\xBB\xBF" + strings.ReplaceAll(exampleCSV, "\n", "\r\n")

	tbl, _, err := load(t, csv)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, "P001", tbl.Records()[0].PatientID)
}

func TestLoad_InvalidUTF8Replaced(t *testing.T) {
	csv := header + "P001,Bost\xffon,2024-01-15,45,false,true\n"

	tbl, _, err := load(t, csv)
	require.NoError(t, err)
	assert.Equal(t, "Bost?on", tbl.Records()[0].TrialSite)
}

func TestLoad_Unavailable(t *testing.T) {
	tests := []struct {
		name       string
		csv        string
		wantReason string
	}{
		{"empty file", "", ReasonEmpty},
		{"blank lines only", "\n\n\n", ReasonEmpty},
		{"header only", header, ReasonNoRows},
		{"unparsable", header + "P001,\"Bos\"ton,2024-01-15,45,false,true\n", ReasonUnparsable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, _, err := load(t, tt.csv)
			require.Error(t, err)
			assert.Nil(t, tbl)
			assert.True(t, errors.Is(err, ErrDataUnavailable), "got %v", err)

			var dataErr *DataUnavailableError
			require.True(t, errors.As(err, &dataErr))
			assert.Equal(t, tt.wantReason, dataErr.Reason)
		})
	}
}

func TestLoad_SchemaErrors(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		csv := "patient_id,trial_site,enrollment_date,adverse_event,completed_trial\nP001,Boston,2024-01-15,false,true\n"
		_, _, err := load(t, csv)
		require.ErrorIs(t, err, ErrSchema)

		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []string{"age"}, schemaErr.Missing)
	})

	t.Run("required column empty", func(t *testing.T) {
		csv := header + "P001,Boston,2024-01-15,,false,true\nP002,Boston,2024-01-16,NA,false,true\n"
		_, _, err := load(t, csv)

		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []string{"age"}, schemaErr.Empty)
	})
}

func TestLoad_Files(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.csv"))
		var dataErr *DataUnavailableError
		require.ErrorAs(t, err, &dataErr)
		assert.Equal(t, ReasonNotFound, dataErr.Reason)
	})

	t.Run("zero bytes", func(t *testing.T) {
		path := filepath.Join(dir, "empty.csv")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrDataUnavailable)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := Load(dir)
		assert.ErrorIs(t, err, ErrDataUnavailable)
	})

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(dir, "trial.csv")
		require.NoError(t, os.WriteFile(path, []byte(exampleCSV), 0o644))
		tbl, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 3, tbl.Len())
		assert.Equal(t, path, tbl.Report().Source)
	})
}

func TestLoad_Workbook(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"patient_id", "trial_site", "enrollment_date", "age", "adverse_event", "completed_trial"},
		{"P001", "Boston", "2024-01-15", 45, "false", "true"},
		{"P002", "Chicago", "2024-01-20", 32, "true", "true"},
		{"P003", "NewYork", "2024-02-01", "unknown", "false", "false"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	tbl, err := LoadReader(&buf, "upload.bin")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	require.Len(t, tbl.Report().DroppedRows, 1)
	assert.Equal(t, 4, tbl.Report().DroppedRows[0].Line)
}

func TestLoad_RoundTripCount(t *testing.T) {
	var b strings.Builder
	b.WriteString(header)
	for i := 0; i < 25; i++ {
		b.WriteString("P")
		b.WriteString(string(rune('A' + i)))
		b.WriteString(",Site,2024-03-01,40,false,true\n")
	}

	tbl, _, err := load(t, b.String())
	require.NoError(t, err)
	require.Zero(t, tbl.Report().RowsDropped())
	assert.Equal(t, 25, Summarize(tbl).TotalPatients)
}
