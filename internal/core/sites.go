package core

import "sort"

// SitePerformance is the per-site breakdown.
type SitePerformance struct {
	Site              string  `json:"site" yaml:"site"`
	Patients          int     `json:"patients" yaml:"patients"`
	CompletedCount    int     `json:"completed_count" yaml:"completed_count"`
	CompletionRate    float64 `json:"completion_rate" yaml:"completion_rate"`
	AdverseEventCount int     `json:"adverse_event_count" yaml:"adverse_event_count"`
	AdverseEventRate  float64 `json:"adverse_event_rate" yaml:"adverse_event_rate"`
	AverageAge        float64 `json:"average_age" yaml:"average_age"`
}

// SitePerformanceAnalysis returns one entry per site that has patients,
// sorted by completion rate descending then site name.
func SitePerformanceAnalysis(t *Table) []SitePerformance {
	groups := groupBy(t.rows(), func(r PatientRecord) (string, bool) {
		return r.TrialSite, true
	})

	out := make([]SitePerformance, 0, len(groups))
	for site, c := range groups {
		out = append(out, SitePerformance{
			Site:              site,
			Patients:          c.patients,
			CompletedCount:    c.completed,
			CompletionRate:    c.completionRate(),
			AdverseEventCount: c.adverse,
			AdverseEventRate:  c.adverseEventRate(),
			AverageAge:        c.averageAge(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletionRate != out[j].CompletionRate {
			return out[i].CompletionRate > out[j].CompletionRate
		}
		return out[i].Site < out[j].Site
	})
	return out
}
