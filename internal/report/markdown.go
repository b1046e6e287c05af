// Package report renders analytics as Markdown, HTML and XLSX documents.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/trialstats/internal/core"
)

// Meta describes where a report's data came from.
type Meta struct {
	Title       string
	Source      string
	GeneratedAt time.Time
}

func (m Meta) title() string {
	if m.Title != "" {
		return m.Title
	}
	return "Clinical Trial Analytics Report"
}

// Markdown renders a as a Markdown document.
func Markdown(a core.Analytics, meta Meta) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# %s\n\n", escape(meta.title()))
	if meta.Source != "" {
		fmt.Fprintf(&b, "- Source: `%s`\n", codeSpan(meta.Source))
	}
	if !meta.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "- Generated: %s\n", meta.GeneratedAt.UTC().Format(time.RFC3339))
	}
	q := a.DataQuality
	fmt.Fprintf(&b, "- Rows read: %d, kept: %d, dropped: %d\n\n", q.RowsRead, q.RowsKept, q.RowsDropped())

	s := a.Summary
	b.WriteString("## Summary\n\n")
	table(&b, []string{"Metric", "Value"}, [][]string{
		{"Total patients", fmt.Sprint(s.TotalPatients)},
		{"Average age", num(s.AverageAge)},
		{"Completion rate", pct(s.CompletionRate)},
		{"Adverse event rate", pct(s.AdverseEventRate)},
		{"Completion rate with adverse event", optPct(s.CompletionRateWithAE)},
		{"Completion rate without adverse event", optPct(s.CompletionRateWithoutAE)},
	})

	b.WriteString("## Insights\n\n")
	for _, in := range a.Insights {
		fmt.Fprintf(&b, "- %s\n", escape(in))
	}
	b.WriteString("\n")

	b.WriteString("## Site Performance\n\n")
	rows := make([][]string, 0, len(a.Sites))
	for _, sp := range a.Sites {
		rows = append(rows, []string{sp.Site, fmt.Sprint(sp.Patients), pct(sp.CompletionRate), pct(sp.AdverseEventRate), num(sp.AverageAge)})
	}
	table(&b, []string{"Site", "Patients", "Completion", "Adverse events", "Average age"}, rows)

	b.WriteString("## Age Groups\n\n")
	rows = rows[:0]
	for _, g := range a.AgeGroups {
		rows = append(rows, []string{g.AgeGroup, fmt.Sprint(g.Patients), pct(g.CompletionRate), pct(g.AdverseEventRate), fmt.Sprintf("%d-%d", g.MinAge, g.MaxAge)})
	}
	table(&b, []string{"Age group", "Patients", "Completion", "Adverse events", "Observed ages"}, rows)

	b.WriteString("## Monthly Trends\n\n")
	rows = rows[:0]
	for _, m := range a.Trends {
		rows = append(rows, []string{m.Month, fmt.Sprint(m.Enrollments), pct(m.CompletionRate), pct(m.AdverseEventRate)})
	}
	table(&b, []string{"Month", "Enrollments", "Completion", "Adverse events"}, rows)

	b.WriteString("## Correlations\n\n")
	rows = rows[:0]
	for _, c := range a.Correlations {
		coef := "n/a (" + c.Reason + ")"
		if c.Coefficient != nil {
			coef = fmt.Sprintf("%.3f", *c.Coefficient)
		}
		rows = append(rows, []string{c.X, c.Y, fmt.Sprint(c.N), coef})
	}
	table(&b, []string{"X", "Y", "N", "Pearson r"}, rows)

	ki := a.KeyInsights
	b.WriteString("## Key Insights\n\n")
	if ki.BestSite != nil {
		fmt.Fprintf(&b, "- Best site: **%s** (%s completion)\n", escape(ki.BestSite.Name), pct(ki.BestSite.CompletionRate))
		fmt.Fprintf(&b, "- Worst site: **%s** (%s completion)\n", escape(ki.WorstSite.Name), pct(ki.WorstSite.CompletionRate))
	}
	if ki.BestAgeGroup != nil {
		fmt.Fprintf(&b, "- Best age group: **%s** (%s completion)\n", escape(ki.BestAgeGroup.Name), pct(ki.BestAgeGroup.CompletionRate))
		fmt.Fprintf(&b, "- Worst age group: **%s** (%s completion)\n", escape(ki.WorstAgeGroup.Name), pct(ki.WorstAgeGroup.CompletionRate))
	}
	b.WriteString("\n### Recommendations\n\n")
	for i, r := range ki.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}

	if len(q.DroppedRows) > 0 || len(q.DroppedColumns) > 0 {
		b.WriteString("\n## Data Quality\n\n")
		for _, col := range q.DroppedColumns {
			fmt.Fprintf(&b, "- Column `%s` dropped: no values\n", codeSpan(col))
		}
		for _, d := range q.DroppedRows {
			fmt.Fprintf(&b, "- Line %d dropped: %s\n", d.Line, escape(d.Reason))
		}
	}

	return b.Bytes()
}

func table(b *bytes.Buffer, header []string, rows [][]string) {
	if len(rows) == 0 {
		b.WriteString("_No data._\n\n")
		return
	}
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")
	for _, r := range rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = escape(c)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	b.WriteString("\n")
}

var mdEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "'", "<", "&lt;", ">", "&gt;")

// escape makes user data inert in Markdown text and table cells.
func escape(s string) string { return mdEscaper.Replace(s) }

// codeSpan keeps s inside a single backtick code span.
func codeSpan(s string) string { return strings.ReplaceAll(s, "`", "'") }

func num(v float64) string { return fmt.Sprintf("%.1f", v) }

func pct(v float64) string { return fmt.Sprintf("%.1f%%", v) }

func optPct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return pct(*v)
}
