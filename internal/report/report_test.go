package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/trialstats/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sample = "patient_id,trial_site,enrollment_date,age,adverse_event,completed_trial\n" +
	"P001,Boston,2024-01-15,45,false,true\n" +
	"P002,Chicago,2024-01-20,32,true,true\n" +
	"P003,NewYork,2024-02-01,67,false,false\n" +
	"P004,Boston,2024-02-03,bad,false,true\n"

func analytics(t *testing.T) core.Analytics {
	t.Helper()
	tbl, err := core.LoadReader(strings.NewReader(sample), "sample.csv")
	require.NoError(t, err)
	return core.Analyze(tbl, core.DefaultThresholds())
}

var meta = Meta{Source: "sample.csv", GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

func TestMarkdown(t *testing.T) {
	md := string(Markdown(analytics(t), meta))

	for _, want := range []string{
		"# Clinical Trial Analytics Report",
		"- Source: `sample.csv`",
		"- Generated: 2024-03-01T12:00:00Z",
		"- Rows read: 4, kept: 3, dropped: 1",
		"| Completion rate | 66.7% |",
		"| Boston | 1 | 100.0% | 0.0% | 45.0 |",
		"| 2024-02 | 1 | 0.0% | 0.0% |",
		"Low completion",
		"Best site: **Boston**",
		"## Data Quality",
		"- Line 5 dropped:",
	} {
		assert.Contains(t, md, want)
	}
}

func TestMarkdown_Empty(t *testing.T) {
	md := string(Markdown(core.Analyze(core.NewTable(nil), core.DefaultThresholds()), Meta{}))

	assert.Contains(t, md, "_No data._")
	assert.Contains(t, md, core.InsightNoPatients)
	assert.NotContains(t, md, "Best site")
	assert.NotContains(t, md, "## Data Quality")
}

func TestHTML(t *testing.T) {
	page := string(HTML(Markdown(analytics(t), meta), meta))

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>Clinical Trial Analytics Report</title>")
	assert.Contains(t, page, "<h2")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<strong>Boston</strong>")
}

func TestToHTML_EscapesSiteNames(t *testing.T) {
	out := string(ToHTML([]byte("| Site |\n| --- |\n| " + escape("<script>") + " |\n")))
	assert.NotContains(t, out, "<script>")
}

func TestHTML_EscapesUntrustedSiteNames(t *testing.T) {
	csv := "patient_id,trial_site,enrollment_date,age,adverse_event,completed_trial\n" +
		"P001,<script>alert(1)</script>,2024-01-15,45,false,true\n" +
		"P002,Chicago,2024-01-20,32,true,false\n"
	tbl, err := core.LoadReader(strings.NewReader(csv), "hostile.csv")
	require.NoError(t, err)
	a := core.Analyze(tbl, core.DefaultThresholds())
	require.Equal(t, "<script>alert(1)</script>", a.KeyInsights.BestSite.Name)

	md := string(Markdown(a, Meta{Source: "hostile`.csv"}))
	assert.Contains(t, md, "- Best site: **&lt;script&gt;alert(1)&lt;/script&gt;**")
	assert.Contains(t, md, "- Source: `hostile'.csv`")

	page := string(HTML([]byte(md), meta))
	assert.NotContains(t, page, "<script>")
	assert.Contains(t, page, "<strong>&lt;script&gt;alert(1)&lt;/script&gt;</strong>")
}

func TestToHTML_SkipsRawHTML(t *testing.T) {
	out := string(ToHTML([]byte("before <script>alert(1)</script> after\n\n<div onclick=\"x()\">block</div>\n")))
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "onclick")
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, analytics(t), meta))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetSites, SheetAgeGroups, SheetTrends, SheetCorrelations, SheetInsights}, f.GetSheetList())

	total, err := f.GetCellValue(SheetSummary, "B3")
	require.NoError(t, err)
	assert.Equal(t, "3", total)

	sites, err := f.GetRows(SheetSites)
	require.NoError(t, err)
	require.Len(t, sites, 4)
	assert.Equal(t, "Boston", sites[1][0])

	corr, err := f.GetRows(SheetCorrelations)
	require.NoError(t, err)
	assert.Len(t, corr, 7)
}
