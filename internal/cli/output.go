package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/trialstats/internal/core"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginTop(1)
	labelStyle  = lipgloss.NewStyle().Width(28).Foreground(lipgloss.Color("245"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

func validFormat(f string) bool {
	switch f {
	case formatText, formatJSON, formatYAML:
		return true
	}
	return false
}

// write encodes v in format, using text to render the human-readable form.
func write(w io.Writer, format string, v any, text func(*strings.Builder)) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		var b strings.Builder
		text(&b)
		_, err := io.WriteString(w, b.String())
		return err
	}
}

func section(b *strings.Builder, title string) {
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
}

func field(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString(value)
	b.WriteString("\n")
}

func grid(b *strings.Builder, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	b.WriteString(t.String())
	b.WriteString("\n")
}

func pct(v float64) string { return fmt.Sprintf("%.1f%%", v) }

func optPct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return pct(*v)
}

func textSummary(b *strings.Builder, s core.Summary) {
	section(b, "Summary")
	field(b, "Patients", fmt.Sprint(s.TotalPatients))
	field(b, "Average age", fmt.Sprintf("%.1f", s.AverageAge))
	field(b, "Completion rate", pct(s.CompletionRate))
	field(b, "Adverse event rate", pct(s.AdverseEventRate))
	field(b, "Completion with AE", optPct(s.CompletionRateWithAE))
	field(b, "Completion without AE", optPct(s.CompletionRateWithoutAE))

	if len(s.PatientsPerSite) == 0 {
		return
	}
	rows := make([][]string, 0, len(s.PatientsPerSite))
	for _, sc := range s.PatientsPerSite {
		rows = append(rows, []string{sc.Site, fmt.Sprint(sc.Count)})
	}
	section(b, "Patients per site")
	grid(b, []string{"Site", "Patients"}, rows)
}

func textAnalytics(b *strings.Builder, a core.Analytics) {
	textSummary(b, a.Summary)

	if len(a.Sites) > 0 {
		rows := make([][]string, 0, len(a.Sites))
		for _, s := range a.Sites {
			rows = append(rows, []string{s.Site, fmt.Sprint(s.Patients), pct(s.CompletionRate), pct(s.AdverseEventRate), fmt.Sprintf("%.1f", s.AverageAge)})
		}
		section(b, "Site performance")
		grid(b, []string{"Site", "Patients", "Completion", "Adverse events", "Avg age"}, rows)
	}

	if len(a.AgeGroups) > 0 {
		rows := make([][]string, 0, len(a.AgeGroups))
		for _, g := range a.AgeGroups {
			rows = append(rows, []string{g.AgeGroup, fmt.Sprint(g.Patients), pct(g.CompletionRate), pct(g.AdverseEventRate), fmt.Sprintf("%d-%d", g.MinAge, g.MaxAge)})
		}
		section(b, "Age groups")
		grid(b, []string{"Age group", "Patients", "Completion", "Adverse events", "Ages"}, rows)
	}

	if len(a.Trends) > 0 {
		rows := make([][]string, 0, len(a.Trends))
		for _, m := range a.Trends {
			rows = append(rows, []string{m.Month, fmt.Sprint(m.Enrollments), pct(m.CompletionRate), pct(m.AdverseEventRate)})
		}
		section(b, "Monthly trends")
		grid(b, []string{"Month", "Enrollments", "Completion", "Adverse events"}, rows)
	}

	rows := make([][]string, 0, len(a.Correlations))
	for _, c := range a.Correlations {
		coef := c.Reason
		if c.Coefficient != nil {
			coef = fmt.Sprintf("%.3f", *c.Coefficient)
		}
		rows = append(rows, []string{c.X + " / " + c.Y, fmt.Sprint(c.N), coef})
	}
	section(b, "Correlations")
	grid(b, []string{"Variables", "N", "Pearson r"}, rows)

	textInsights(b, a.Insights, a.KeyInsights)
	textDataQuality(b, a.DataQuality)
}

func textInsights(b *strings.Builder, insights []string, ki core.KeyInsights) {
	section(b, "Insights")
	for _, msg := range insights {
		b.WriteString("  • " + msg + "\n")
	}

	if ki.BestSite != nil {
		field(b, "Best site", fmt.Sprintf("%s (%s)", ki.BestSite.Name, pct(ki.BestSite.CompletionRate)))
		field(b, "Worst site", fmt.Sprintf("%s (%s)", ki.WorstSite.Name, pct(ki.WorstSite.CompletionRate)))
	}
	if ki.BestAgeGroup != nil {
		field(b, "Best age group", fmt.Sprintf("%s (%s)", ki.BestAgeGroup.Name, pct(ki.BestAgeGroup.CompletionRate)))
		field(b, "Worst age group", fmt.Sprintf("%s (%s)", ki.WorstAgeGroup.Name, pct(ki.WorstAgeGroup.CompletionRate)))
	}
	for _, r := range ki.Recommendations {
		b.WriteString("  - " + r + "\n")
	}
}

func textDataQuality(b *strings.Builder, r core.LoadReport) {
	if r.RowsDropped() == 0 && len(r.DroppedColumns) == 0 {
		return
	}
	section(b, "Data quality")
	field(b, "Rows read", fmt.Sprint(r.RowsRead))
	field(b, "Rows kept", fmt.Sprint(r.RowsKept))
	for _, d := range r.DroppedRows {
		b.WriteString(warnStyle.Render(fmt.Sprintf("  line %d: %s", d.Line, d.Reason)) + "\n")
	}
	if len(r.DroppedColumns) > 0 {
		field(b, "Dropped columns", strings.Join(r.DroppedColumns, ", "))
	}
}
