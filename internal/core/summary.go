package core

import "sort"

// SiteCount is the number of patients enrolled at one site.
type SiteCount struct {
	Site  string `json:"site" yaml:"site"`
	Count int    `json:"count" yaml:"count"`
}

// Summary holds the headline metrics for a table. Rates are percentages
// (0-100) with one decimal. The conditional completion rates are nil when
// their subgroup is empty.
type Summary struct {
	TotalPatients           int         `json:"total_patients" yaml:"total_patients"`
	PatientsPerSite         []SiteCount `json:"patients_per_site" yaml:"patients_per_site"`
	AverageAge              float64     `json:"average_age" yaml:"average_age"`
	CompletionRate          float64     `json:"completion_rate" yaml:"completion_rate"`
	AdverseEventRate        float64     `json:"adverse_event_rate" yaml:"adverse_event_rate"`
	CompletionRateWithAE    *float64    `json:"completion_rate_with_ae,omitempty" yaml:"completion_rate_with_ae,omitempty"`
	CompletionRateWithoutAE *float64    `json:"completion_rate_without_ae,omitempty" yaml:"completion_rate_without_ae,omitempty"`
}

// Summarize computes the Summary of t. An empty table yields zero values.
func Summarize(t *Table) Summary {
	rows := t.rows()

	var all, withAE, withoutAE cohort
	for _, r := range rows {
		all.add(r)
		if r.AdverseEvent {
			withAE.add(r)
		} else {
			withoutAE.add(r)
		}
	}

	s := Summary{
		TotalPatients:    all.patients,
		PatientsPerSite:  patientsPerSite(rows),
		AverageAge:       all.averageAge(),
		CompletionRate:   all.completionRate(),
		AdverseEventRate: all.adverseEventRate(),
	}
	if withAE.patients > 0 {
		rate := withAE.completionRate()
		s.CompletionRateWithAE = &rate
	}
	if withoutAE.patients > 0 {
		rate := withoutAE.completionRate()
		s.CompletionRateWithoutAE = &rate
	}
	return s
}

// patientsPerSite counts records per site, sorted by count descending then
// site name ascending.
func patientsPerSite(rows []PatientRecord) []SiteCount {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.TrialSite]++
	}

	out := make([]SiteCount, 0, len(counts))
	for site, n := range counts {
		out = append(out, SiteCount{Site: site, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Site < out[j].Site
	})
	return out
}
