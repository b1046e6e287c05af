package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/trialstats/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const exampleCSV = "patient_id,trial_site,enrollment_date,age,adverse_event,completed_trial\n" +
	"P001,Boston,2024-01-15,45,false,true\n" +
	"P002,Chicago,2024-01-20,32,true,true\n" +
	"P003,NewYork,2024-02-01,67,false,false\n" +
	"P004,Boston,2024-02-03,,false,true\n"

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trial.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes trialctl with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSummary_JSON(t *testing.T) {
	path := writeDataset(t, exampleCSV)

	out, stderr, err := run(t, "summary", path, "--format", "json")
	require.NoError(t, err)

	var s core.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 3, s.TotalPatients)
	assert.Equal(t, 66.7, s.CompletionRate)
	assert.Len(t, s.PatientsPerSite, 3)

	// dropped rows are reported at WARN on stderr
	assert.Contains(t, stderr, "row dropped")
	assert.Contains(t, stderr, "line=5")
}

func TestSummary_YAML(t *testing.T) {
	path := writeDataset(t, exampleCSV)

	out, _, err := run(t, "summary", path, "-f", "yaml")
	require.NoError(t, err)

	var s map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &s))
	assert.Equal(t, 3, s["total_patients"])
	assert.Equal(t, 66.7, s["completion_rate"])
}

func TestSummary_Text(t *testing.T) {
	path := writeDataset(t, exampleCSV)

	out, _, err := run(t, "summary", path)
	require.NoError(t, err)
	for _, want := range []string{"Summary", "Patients", "66.7%", "Patients per site", "Boston", "100.0%"} {
		assert.Contains(t, out, want)
	}
}

func TestSummary_DataPathFromEnv(t *testing.T) {
	t.Setenv("DATA_PATH", writeDataset(t, exampleCSV))

	out, _, err := run(t, "summary", "--format", "json", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_patients": 3`)
}

func TestAnalyze(t *testing.T) {
	path := writeDataset(t, exampleCSV)

	out, _, err := run(t, "analyze", path, "--format", "json")
	require.NoError(t, err)

	var a map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	for _, key := range []string{"summary_statistics", "site_performance", "age_group_analysis", "temporal_analysis", "correlation_analysis", "insights", "key_insights", "data_quality"} {
		assert.Contains(t, a, key)
	}

	text, _, err := run(t, "analyze", path)
	require.NoError(t, err)
	for _, want := range []string{"Site performance", "Age groups", "Monthly trends", "Correlations", "Data quality", "line 5"} {
		assert.Contains(t, text, want)
	}
}

func TestInsights_ThresholdFlags(t *testing.T) {
	path := writeDataset(t, exampleCSV)

	out, _, err := run(t, "insights", path, "--format", "json")
	require.NoError(t, err)
	var got insightsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotEmpty(t, got.Insights)
	assert.Contains(t, got.Insights[0], "Low completion")
	assert.Len(t, got.KeyInsights.Recommendations, 4)

	out, _, err = run(t, "insights", path, "--format", "json", "--min-completion", "50", "--max-adverse", "40")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{core.InsightAllClear}, got.Insights)
}

func TestReport(t *testing.T) {
	path := writeDataset(t, exampleCSV)
	dir := t.TempDir()

	tests := []struct {
		file   string
		prefix string
	}{
		{"report.md", "# "},
		{"report.html", "<!DOCTYPE html>"},
		{"report.xlsx", "PK"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			dst := filepath.Join(dir, tt.file)
			out, _, err := run(t, "report", path, "--out", dst)
			require.NoError(t, err)
			assert.Contains(t, out, "Wrote")

			data, err := os.ReadFile(dst)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, []byte(tt.prefix)), "%s starts with %q", tt.file, data[:min(len(data), 16)])
		})
	}
}

func TestReport_Stdout(t *testing.T) {
	out, _, err := run(t, "report", writeDataset(t, exampleCSV))
	require.NoError(t, err)
	assert.Contains(t, out, "## Site Performance")
}

func TestReport_UnsupportedExtension(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "report.pdf")
	_, _, err := run(t, "report", writeDataset(t, exampleCSV), "--out", dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported report extension")
	assert.NoFileExists(t, dst)
}

func TestErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, _, err := run(t, "summary", filepath.Join(t.TempDir(), "nope.csv"))
		require.ErrorIs(t, err, core.ErrDataUnavailable)

		var buf bytes.Buffer
		printError(&buf, err)
		assert.Contains(t, buf.String(), "DATA001")
	})

	t.Run("schema", func(t *testing.T) {
		_, _, err := run(t, "summary", writeDataset(t, "patient_id,age\nP1,40\n"))
		require.ErrorIs(t, err, core.ErrSchema)

		var buf bytes.Buffer
		printError(&buf, err)
		assert.Contains(t, buf.String(), "SCH001")
	})

	t.Run("bad format", func(t *testing.T) {
		_, _, err := run(t, "summary", writeDataset(t, exampleCSV), "--format", "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--format")
	})

	t.Run("too many args", func(t *testing.T) {
		_, _, err := run(t, "summary", "a.csv", "b.csv")
		require.Error(t, err)
	})
}
