package core

import "sort"

// MonthLayout formats the monthly bucket key.
const MonthLayout = "2006-01"

// MonthlyTrend is the enrollment activity of one calendar month.
type MonthlyTrend struct {
	Month            string  `json:"month" yaml:"month"`
	Enrollments      int     `json:"enrollments" yaml:"enrollments"`
	CompletionRate   float64 `json:"completion_rate" yaml:"completion_rate"`
	AdverseEventRate float64 `json:"adverse_event_rate" yaml:"adverse_event_rate"`
}

// TemporalTrends groups records by enrollment year-month, ascending.
func TemporalTrends(t *Table) []MonthlyTrend {
	groups := groupBy(t.rows(), func(r PatientRecord) (string, bool) {
		return r.EnrollmentDate.Format(MonthLayout), true
	})

	out := make([]MonthlyTrend, 0, len(groups))
	for month, c := range groups {
		out = append(out, MonthlyTrend{
			Month:            month,
			Enrollments:      c.patients,
			CompletionRate:   c.completionRate(),
			AdverseEventRate: c.adverseEventRate(),
		})
	}
	// YYYY-MM sorts chronologically as text.
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
