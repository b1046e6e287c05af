package core

// AgeBracket is a closed age range used for grouped analysis.
type AgeBracket struct {
	Label string
	Min   int
	Max   int
}

// AgeBrackets are the fixed brackets in reporting order. Ages outside all
// of them are excluded from age-group analysis only.
var AgeBrackets = []AgeBracket{
	{Label: "18-30", Min: 18, Max: 30},
	{Label: "31-50", Min: 31, Max: 50},
	{Label: "51-70", Min: 51, Max: 70},
	{Label: "71-80", Min: 71, Max: 80},
}

// BracketFor returns the label of the bracket containing age.
func BracketFor(age int) (string, bool) {
	for _, b := range AgeBrackets {
		if age >= b.Min && age <= b.Max {
			return b.Label, true
		}
	}
	return "", false
}

// AgeGroupStats is the breakdown for one age bracket.
type AgeGroupStats struct {
	AgeGroup         string  `json:"age_group" yaml:"age_group"`
	Patients         int     `json:"patients" yaml:"patients"`
	CompletedCount   int     `json:"completed_count" yaml:"completed_count"`
	CompletionRate   float64 `json:"completion_rate" yaml:"completion_rate"`
	AdverseEventRate float64 `json:"adverse_event_rate" yaml:"adverse_event_rate"`
	MinAge           int     `json:"min_age" yaml:"min_age"`
	MaxAge           int     `json:"max_age" yaml:"max_age"`
	AverageAge       float64 `json:"average_age" yaml:"average_age"`
}

// AgeGroupAnalysis returns stats for every non-empty bracket in bracket
// order.
func AgeGroupAnalysis(t *Table) []AgeGroupStats {
	groups := groupBy(t.rows(), func(r PatientRecord) (string, bool) {
		return BracketFor(r.Age)
	})

	out := make([]AgeGroupStats, 0, len(groups))
	for _, b := range AgeBrackets {
		c, ok := groups[b.Label]
		if !ok {
			continue
		}
		lo, hi := c.ageRange()
		out = append(out, AgeGroupStats{
			AgeGroup:         b.Label,
			Patients:         c.patients,
			CompletedCount:   c.completed,
			CompletionRate:   c.completionRate(),
			AdverseEventRate: c.adverseEventRate(),
			MinAge:           lo,
			MaxAge:           hi,
			AverageAge:       c.averageAge(),
		})
	}
	return out
}
