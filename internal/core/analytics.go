package core

// Analytics bundles every view of one table.
type Analytics struct {
	Summary      Summary           `json:"summary_statistics" yaml:"summary_statistics"`
	Sites        []SitePerformance `json:"site_performance" yaml:"site_performance"`
	AgeGroups    []AgeGroupStats   `json:"age_group_analysis" yaml:"age_group_analysis"`
	Trends       []MonthlyTrend    `json:"temporal_analysis" yaml:"temporal_analysis"`
	Correlations []Correlation     `json:"correlation_analysis" yaml:"correlation_analysis"`
	Insights     []string          `json:"insights" yaml:"insights"`
	KeyInsights  KeyInsights       `json:"key_insights" yaml:"key_insights"`
	DataQuality  LoadReport        `json:"data_quality" yaml:"data_quality"`
}

// Analyze computes all views of t with the given insight thresholds.
func Analyze(t *Table, th Thresholds) Analytics {
	summary := Summarize(t)
	sites := SitePerformanceAnalysis(t)
	groups := AgeGroupAnalysis(t)

	return Analytics{
		Summary:      summary,
		Sites:        sites,
		AgeGroups:    groups,
		Trends:       TemporalTrends(t),
		Correlations: CorrelationAnalysis(t),
		Insights:     GenerateInsights(summary, th),
		KeyInsights:  ComputeKeyInsights(sites, groups),
		DataQuality:  t.Report(),
	}
}
