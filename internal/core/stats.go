package core

import (
	"github.com/montanaflynn/stats"
)

// round1 rounds half away from zero to one decimal place.
func round1(v float64) float64 {
	return roundTo(v, 1)
}

func roundTo(v float64, places int) float64 {
	r, err := stats.Round(v, places)
	if err != nil {
		return v
	}
	return r
}

// percent returns 100*n/d rounded to one decimal, or 0 when d is 0.
func percent(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return round1(100 * float64(n) / float64(d))
}

// cohort accumulates the counters shared by every grouped view.
type cohort struct {
	patients  int
	completed int
	adverse   int
	ages      stats.Float64Data
}

func (c *cohort) add(r PatientRecord) {
	c.patients++
	if r.CompletedTrial {
		c.completed++
	}
	if r.AdverseEvent {
		c.adverse++
	}
	c.ages = append(c.ages, float64(r.Age))
}

func (c *cohort) completionRate() float64 { return percent(c.completed, c.patients) }

func (c *cohort) adverseEventRate() float64 { return percent(c.adverse, c.patients) }

func (c *cohort) averageAge() float64 {
	mean, err := stats.Mean(c.ages)
	if err != nil {
		return 0
	}
	return round1(mean)
}

func (c *cohort) ageRange() (minAge, maxAge int) {
	lo, err := stats.Min(c.ages)
	if err != nil {
		return 0, 0
	}
	hi, _ := stats.Max(c.ages)
	return int(lo), int(hi)
}

// groupBy collects records into cohorts keyed by key. Records for which key
// reports ok=false are skipped.
func groupBy(rows []PatientRecord, key func(PatientRecord) (string, bool)) map[string]*cohort {
	groups := make(map[string]*cohort)
	for _, r := range rows {
		k, ok := key(r)
		if !ok {
			continue
		}
		c := groups[k]
		if c == nil {
			c = &cohort{}
			groups[k] = c
		}
		c.add(r)
	}
	return groups
}
