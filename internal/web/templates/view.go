// Package templates holds the HTML components of the dashboard.
package templates

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/trialstats/internal/core"
)

// DashboardView is everything the dashboard page shows.
type DashboardView struct {
	Source    string
	Analytics *core.Analytics
	Error     *core.UserMessage
	History   []core.UploadRecord
	MaxUpload int64
}

func sourceLine(source string, q core.LoadReport) string {
	return fmt.Sprintf("Source: %s. %d rows read, %d kept, %d dropped.", source, q.RowsRead, q.RowsKept, q.RowsDropped())
}

func uploadHint(maxUpload int64) string {
	return fmt.Sprintf("Up to %.1f MB. Columns: %s.", float64(maxUpload)/(1<<20), strings.Join(core.SchemaColumns(), ", "))
}

func historyStatus(r core.UploadRecord) string {
	if r.Error != "" {
		return r.Status + ": " + r.Error
	}
	return r.Status
}

func num(v float64) string { return fmt.Sprintf("%.1f", v) }

func pct(v float64) string { return fmt.Sprintf("%.1f%%", v) }

func optPct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return pct(*v)
}
