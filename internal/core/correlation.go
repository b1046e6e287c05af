package core

import (
	"gonum.org/v1/gonum/stat"
)

// Correlation variables. Booleans are encoded as 0/1; enrollment_month is
// the calendar month (1-12) of the enrollment date.
const (
	VarAge             = "age"
	VarAdverseEvent    = "adverse_event"
	VarCompletedTrial  = "completed_trial"
	VarEnrollmentMonth = "enrollment_month"
)

// Reasons reported when a coefficient is undefined.
const (
	CorrInsufficientData = "insufficient data"
	CorrZeroVariance     = "zero variance"
)

// CorrelationVariables lists the variables in reporting order.
var CorrelationVariables = []string{VarAge, VarAdverseEvent, VarCompletedTrial, VarEnrollmentMonth}

// Correlation is the Pearson coefficient for one variable pair. Coefficient
// is nil, and Reason set, when it is undefined.
type Correlation struct {
	X           string   `json:"x" yaml:"x"`
	Y           string   `json:"y" yaml:"y"`
	N           int      `json:"n" yaml:"n"`
	Coefficient *float64 `json:"coefficient" yaml:"coefficient"`
	Reason      string   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// CorrelationAnalysis computes every unordered pair of CorrelationVariables.
// Coefficients are rounded to three decimals.
func CorrelationAnalysis(t *Table) []Correlation {
	rows := t.rows()

	series := make(map[string][]float64, len(CorrelationVariables))
	for _, name := range CorrelationVariables {
		series[name] = make([]float64, len(rows))
	}
	for i, r := range rows {
		series[VarAge][i] = float64(r.Age)
		series[VarAdverseEvent][i] = boolToFloat(r.AdverseEvent)
		series[VarCompletedTrial][i] = boolToFloat(r.CompletedTrial)
		series[VarEnrollmentMonth][i] = float64(r.EnrollmentDate.Month())
	}

	var out []Correlation
	for i, x := range CorrelationVariables {
		for _, y := range CorrelationVariables[i+1:] {
			out = append(out, pearson(x, y, series[x], series[y]))
		}
	}
	return out
}

func pearson(xName, yName string, x, y []float64) Correlation {
	c := Correlation{X: xName, Y: yName, N: len(x)}
	switch {
	case len(x) < 2:
		c.Reason = CorrInsufficientData
	case isConstant(x) || isConstant(y):
		c.Reason = CorrZeroVariance
	default:
		r := roundTo(stat.Correlation(x, y, nil), 3)
		c.Coefficient = &r
	}
	return c
}

func isConstant(v []float64) bool {
	for _, f := range v[1:] {
		if f != v[0] {
			return false
		}
	}
	return true
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
