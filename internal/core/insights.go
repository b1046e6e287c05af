package core

import "fmt"

// Thresholds drive the insight rules.
type Thresholds struct {
	MinCompletionRate   float64 // flag completion below this
	MaxAdverseEventRate float64 // flag adverse events above this
	AECompletionGap     float64 // flag when without-AE minus with-AE completion reaches this
}

// DefaultThresholds returns the standard rule thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinCompletionRate:   70,
		MaxAdverseEventRate: 25,
		AECompletionGap:     15,
	}
}

// Insight messages without parameters.
const (
	InsightNoPatients = "No patient records available: load a dataset with at least one valid row."
	InsightAllClear   = "All monitored metrics are within thresholds."
)

// GenerateInsights evaluates the rules against s in this fixed order:
//
//  1. no patients: a single message, no further rules
//  2. low completion: CompletionRate < MinCompletionRate
//  3. elevated adverse events: AdverseEventRate > MaxAdverseEventRate
//  4. adverse events linked to dropout: both conditional rates defined and
//     without-AE minus with-AE >= AECompletionGap
//  5. enrollment imbalance: more than one site and the largest site has at
//     least twice the patients of the smallest
//  6. none of the above: all clear
func GenerateInsights(s Summary, th Thresholds) []string {
	if s.TotalPatients == 0 {
		return []string{InsightNoPatients}
	}

	var out []string

	if s.CompletionRate < th.MinCompletionRate {
		out = append(out, fmt.Sprintf(
			"Low completion: %.1f%% of patients completed the trial (target %.1f%%). Review retention support at underperforming sites.",
			s.CompletionRate, th.MinCompletionRate))
	}

	if s.AdverseEventRate > th.MaxAdverseEventRate {
		out = append(out, fmt.Sprintf(
			"Elevated adverse events: %.1f%% of patients reported an adverse event (limit %.1f%%). Escalate to safety monitoring.",
			s.AdverseEventRate, th.MaxAdverseEventRate))
	}

	if s.CompletionRateWithAE != nil && s.CompletionRateWithoutAE != nil {
		gap := *s.CompletionRateWithoutAE - *s.CompletionRateWithAE
		if gap >= th.AECompletionGap {
			out = append(out, fmt.Sprintf(
				"Adverse events associated with dropout: completion is %.1f%% with an adverse event vs %.1f%% without. Consider additional support after adverse events.",
				*s.CompletionRateWithAE, *s.CompletionRateWithoutAE))
		}
	}

	if n := len(s.PatientsPerSite); n > 1 {
		largest, smallest := s.PatientsPerSite[0], s.PatientsPerSite[n-1]
		if largest.Count >= 2*smallest.Count {
			out = append(out, fmt.Sprintf(
				"Enrollment imbalance: %s has %d patients while %s has %d. Rebalance recruitment across sites.",
				largest.Site, largest.Count, smallest.Site, smallest.Count))
		}
	}

	if len(out) == 0 {
		out = append(out, InsightAllClear)
	}
	return out
}

// SiteHighlight names a site and its headline rates.
type SiteHighlight struct {
	Name             string  `json:"name" yaml:"name"`
	CompletionRate   float64 `json:"completion_rate" yaml:"completion_rate"`
	AdverseEventRate float64 `json:"adverse_event_rate" yaml:"adverse_event_rate"`
}

// AgeGroupHighlight names an age bracket and its completion rate.
type AgeGroupHighlight struct {
	Name           string  `json:"name" yaml:"name"`
	CompletionRate float64 `json:"completion_rate" yaml:"completion_rate"`
}

// KeyInsights highlights the extremes of the site and age-group views.
// Highlights are nil when the view is empty.
type KeyInsights struct {
	BestSite        *SiteHighlight     `json:"best_site" yaml:"best_site"`
	WorstSite       *SiteHighlight     `json:"worst_site" yaml:"worst_site"`
	BestAgeGroup    *AgeGroupHighlight `json:"best_age_group" yaml:"best_age_group"`
	WorstAgeGroup   *AgeGroupHighlight `json:"worst_age_group" yaml:"worst_age_group"`
	Recommendations []string           `json:"recommendations" yaml:"recommendations"`
}

var recommendations = []string{
	"Investigate why certain sites have lower completion rates",
	"Focus support on underperforming age groups",
	"Monitor temporal trends for seasonal patterns",
	"Analyze correlations to identify key success factors",
}

// ComputeKeyInsights derives KeyInsights from already computed views.
// Ties on completion rate keep the earlier entry.
func ComputeKeyInsights(sites []SitePerformance, groups []AgeGroupStats) KeyInsights {
	ki := KeyInsights{Recommendations: append([]string(nil), recommendations...)}

	if len(sites) > 0 {
		// sites arrive sorted by completion rate descending
		best, worst := sites[0], sites[len(sites)-1]
		ki.BestSite = &SiteHighlight{best.Site, best.CompletionRate, best.AdverseEventRate}
		ki.WorstSite = &SiteHighlight{worst.Site, worst.CompletionRate, worst.AdverseEventRate}
	}

	if len(groups) > 0 {
		best, worst := groups[0], groups[0]
		for _, g := range groups[1:] {
			if g.CompletionRate > best.CompletionRate {
				best = g
			}
			if g.CompletionRate < worst.CompletionRate {
				worst = g
			}
		}
		ki.BestAgeGroup = &AgeGroupHighlight{best.AgeGroup, best.CompletionRate}
		ki.WorstAgeGroup = &AgeGroupHighlight{worst.AgeGroup, worst.CompletionRate}
	}

	return ki
}

// KeyInsightsFor computes KeyInsights directly from a table.
func KeyInsightsFor(t *Table) KeyInsights {
	return ComputeKeyInsights(SitePerformanceAnalysis(t), AgeGroupAnalysis(t))
}
