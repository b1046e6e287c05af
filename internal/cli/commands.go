package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/trialstats/internal/core"
	"github.com/JonMunkholm/trialstats/internal/report"
	"github.com/spf13/cobra"
)

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary [file]",
		Short: "Print headline statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := opts.service(cmd, args).Summary(cmd.Context())
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), opts.format, s, func(b *strings.Builder) { textSummary(b, s) })
		},
	}
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [file]",
		Short: "Print every analytics view",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.service(cmd, args).Analytics(cmd.Context())
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), opts.format, a, func(b *strings.Builder) { textAnalytics(b, a) })
		},
	}
}

// insightsOutput is the machine-readable form of the insights command.
type insightsOutput struct {
	Insights    []string         `json:"insights" yaml:"insights"`
	KeyInsights core.KeyInsights `json:"key_insights" yaml:"key_insights"`
}

func newInsightsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "insights [file]",
		Short: "Print rule-based insights and best/worst performers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.service(cmd, args).Analytics(cmd.Context())
			if err != nil {
				return err
			}
			out := insightsOutput{Insights: a.Insights, KeyInsights: a.KeyInsights}
			return write(cmd.OutOrStdout(), opts.format, out, func(b *strings.Builder) {
				textInsights(b, a.Insights, a.KeyInsights)
			})
		},
	}
}

func newReportCmd(opts *options) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "report [file]",
		Short: "Export a report as Markdown, HTML or XLSX",
		Long: `Export the full analysis. The format follows the --out extension
(.md, .html or .xlsx). Without --out, Markdown is written to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := opts.service(cmd, args)
			a, err := svc.Analytics(cmd.Context())
			if err != nil {
				return err
			}
			meta := report.Meta{Source: filepath.Base(svc.DataPath()), GeneratedAt: time.Now().UTC()}

			if out == "" {
				_, err := cmd.OutOrStdout().Write(report.Markdown(a, meta))
				return err
			}

			data, err := renderReport(out, a, meta)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Wrote"), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (.md, .html or .xlsx)")
	return cmd
}

func renderReport(path string, a core.Analytics, meta report.Meta) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return report.Markdown(a, meta), nil
	case ".html", ".htm":
		return report.HTML(report.Markdown(a, meta), meta), nil
	case ".xlsx":
		var buf bytes.Buffer
		if err := report.WriteXLSX(&buf, a, meta); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported report extension %q (want .md, .html or .xlsx)", filepath.Ext(path))
	}
}
