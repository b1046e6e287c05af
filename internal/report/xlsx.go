package report

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/trialstats/internal/core"
	"github.com/xuri/excelize/v2"
)

// Sheet names in workbook order.
const (
	SheetSummary      = "Summary"
	SheetSites        = "Sites"
	SheetAgeGroups    = "Age Groups"
	SheetTrends       = "Trends"
	SheetCorrelations = "Correlations"
	SheetInsights     = "Insights"
)

// WriteXLSX writes a as a workbook with one sheet per view.
func WriteXLSX(w io.Writer, a core.Analytics, meta Meta) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	s := a.Summary
	summary := [][]any{
		{"Metric", "Value"},
		{"Source", meta.Source},
		{"Total patients", s.TotalPatients},
		{"Average age", s.AverageAge},
		{"Completion rate (%)", s.CompletionRate},
		{"Adverse event rate (%)", s.AdverseEventRate},
		{"Completion rate with adverse event (%)", optional(s.CompletionRateWithAE)},
		{"Completion rate without adverse event (%)", optional(s.CompletionRateWithoutAE)},
		{"Rows read", a.DataQuality.RowsRead},
		{"Rows dropped", a.DataQuality.RowsDropped()},
	}

	sites := [][]any{{"Site", "Patients", "Completed", "Completion rate (%)", "Adverse events", "Adverse event rate (%)", "Average age"}}
	for _, sp := range a.Sites {
		sites = append(sites, []any{sp.Site, sp.Patients, sp.CompletedCount, sp.CompletionRate, sp.AdverseEventCount, sp.AdverseEventRate, sp.AverageAge})
	}

	groups := [][]any{{"Age group", "Patients", "Completed", "Completion rate (%)", "Adverse event rate (%)", "Min age", "Max age", "Average age"}}
	for _, g := range a.AgeGroups {
		groups = append(groups, []any{g.AgeGroup, g.Patients, g.CompletedCount, g.CompletionRate, g.AdverseEventRate, g.MinAge, g.MaxAge, g.AverageAge})
	}

	trends := [][]any{{"Month", "Enrollments", "Completion rate (%)", "Adverse event rate (%)"}}
	for _, m := range a.Trends {
		trends = append(trends, []any{m.Month, m.Enrollments, m.CompletionRate, m.AdverseEventRate})
	}

	corr := [][]any{{"X", "Y", "N", "Pearson r", "Note"}}
	for _, c := range a.Correlations {
		corr = append(corr, []any{c.X, c.Y, c.N, optional(c.Coefficient), c.Reason})
	}

	insights := [][]any{{"Insight"}}
	for _, in := range a.Insights {
		insights = append(insights, []any{in})
	}
	for _, r := range a.KeyInsights.Recommendations {
		insights = append(insights, []any{"Recommendation: " + r})
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetSummary, summary},
		{SheetSites, sites},
		{SheetAgeGroups, groups},
		{SheetTrends, trends},
		{SheetCorrelations, corr},
		{SheetInsights, insights},
	}
	for i, sh := range sheets {
		if i > 0 {
			if _, err := f.NewSheet(sh.name); err != nil {
				return fmt.Errorf("create sheet %s: %w", sh.name, err)
			}
		}
		if err := writeRows(f, sh.name, sh.rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// optional renders a nil rate as an empty cell.
func optional(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
