package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsNull(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"NA", true},
		{"na", true},
		{"NULL", true},
		{"None", true},
		{"n/a", false},
		{"0", false},
		{"false", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsNull(tt.input), "IsNull(%q)", tt.input)
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input  string
		want   bool
		wantOK bool
	}{
		{"true", true, true},
		{"TRUE", true, true},
		{"1", true, true},
		{"Yes", true, true},
		{"false", false, true},
		{"0", false, true},
		{"no", false, true},
		{" No ", false, true},
		{"y", false, false},
		{"2", false, false},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		got, ok := ParseBool(tt.input)
		assert.Equal(t, tt.wantOK, ok, "ParseBool(%q) ok", tt.input)
		assert.Equal(t, tt.want, got, "ParseBool(%q)", tt.input)
	}
}

func TestParseISODate(t *testing.T) {
	tests := []struct {
		input  string
		want   time.Time
		wantOK bool
	}{
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{" 2024-02-29 ", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), true},
		{"2023-02-29", time.Time{}, false},
		{"01/15/2024", time.Time{}, false},
		{"2024-1-5", time.Time{}, false},
		{"20240115", time.Time{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseISODate(tt.input)
		assert.Equal(t, tt.wantOK, ok, "ParseISODate(%q) ok", tt.input)
		assert.True(t, got.Equal(tt.want), "ParseISODate(%q) = %v, want %v", tt.input, got, tt.want)
	}
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"45", 45, true},
		{"0", 0, true},
		{"45.0", 45, true},
		{"45.5", 0, false},
		{"-3", 0, false},
		{"unknown", 0, false},
		{"NaN", 0, false},
		{"1e3", 1000, true},
	}

	for _, tt := range tests {
		got, ok := ParseAge(tt.input)
		assert.Equal(t, tt.wantOK, ok, "ParseAge(%q) ok", tt.input)
		assert.Equal(t, tt.want, got, "ParseAge(%q)", tt.input)
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Boston  ", "Boston"},
		{`="P001"`, "P001"},
		{"=45", "45"},
		{`"quoted"`, "quoted"},
		{"'single'", "single"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanCell(tt.input), "CleanCell(%q)", tt.input)
	}
}

func TestMakeHeaderIndex(t *testing.T) {
	idx := MakeHeaderIndex([]string{" Patient_ID ", "trial_site", "", "AGE", "age"})

	assert.Equal(t, HeaderIndex{"patient_id": 0, "trial_site": 1, "age": 3}, idx)
}
