package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

// ============================================================================
// Conversion Benchmarks
// ============================================================================

// BenchmarkParseISODate is called once per row during load.
func BenchmarkParseISODate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		ParseISODate("2024-01-15")
	}
}

// BenchmarkParseBool covers the accepted spellings.
func BenchmarkParseBool(b *testing.B) {
	testCases := []string{"true", "FALSE", "1", "0", "yes", "no", "maybe"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseBool(tc)
		}
	}
}

// BenchmarkParseAge includes the float form and garbage.
func BenchmarkParseAge(b *testing.B) {
	testCases := []string{"45", "45.0", " 67 ", "unknown", ""}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseAge(tc)
		}
	}
}

func BenchmarkCleanCell(b *testing.B) {
	for i := 0; i < b.N; i++ {
		CleanCell("  Boston  ")
	}
}

// ============================================================================
// Row Validation Benchmarks
// ============================================================================

func BenchmarkRowValidator(b *testing.B) {
	idx, err := ValidateHeaders(SchemaColumns(), PatientSchema)
	if err != nil {
		b.Fatal(err)
	}
	v := NewRowValidator(PatientSchema, idx)
	row := []string{"P001", "Boston", "2024-01-15", "45", "false", "true"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v.Parse(row)
	}
}

// ============================================================================
// Load Benchmarks
// ============================================================================

func BenchmarkLoadReader(b *testing.B) {
	for _, rows := range []int{100, 10_000} {
		data := generateTrialCSV(rows)
		b.Run(fmt.Sprintf("rows=%d", rows), func(b *testing.B) {
			l := Loader{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := l.LoadReader(bytes.NewReader(data), "bench.csv"); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// ============================================================================
// Engine Benchmarks
// ============================================================================

func BenchmarkAnalyze(b *testing.B) {
	l := Loader{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	t, err := l.LoadReader(bytes.NewReader(generateTrialCSV(10_000)), "bench.csv")
	if err != nil {
		b.Fatal(err)
	}
	th := DefaultThresholds()

	b.Run("Summarize", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			Summarize(t)
		}
	})
	b.Run("CorrelationAnalysis", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			CorrelationAnalysis(t)
		}
	})
	b.Run("Analyze", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			Analyze(t, th)
		}
	})
}

// ============================================================================
// Helper Functions
// ============================================================================

var benchSites = []string{"Boston", "Chicago", "NewYork", "Denver", "Seattle"}

// generateTrialCSV generates a valid dataset with the given number of rows.
func generateTrialCSV(rows int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(SchemaColumns())

	for i := 0; i < rows; i++ {
		w.Write([]string{
			fmt.Sprintf("P%06d", i),
			benchSites[i%len(benchSites)],
			fmt.Sprintf("2024-%02d-%02d", i%12+1, i%28+1),
			fmt.Sprint(18 + i%63),
			fmt.Sprint(i%4 == 0),
			fmt.Sprint(i%3 != 0),
		})
	}
	w.Flush()
	return buf.Bytes()
}
