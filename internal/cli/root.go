// Package cli implements trialctl, the command-line front end of the
// analytics engine.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JonMunkholm/trialstats/internal/config"
	"github.com/JonMunkholm/trialstats/internal/core"
	"github.com/JonMunkholm/trialstats/internal/logging"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every command.
type options struct {
	format   string
	logLevel string

	minCompletion float64
	maxAdverse    float64
	aeGap         float64

	cfg *config.Config
}

// NewRootCmd builds a fresh command tree. Each call has its own flag state.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "trialctl",
		Short: "Analyze clinical trial patient datasets",
		Long: `trialctl loads a patient dataset (CSV or XLSX), drops rows it cannot
use and reports summary statistics, per-site and per-age-group breakdowns,
monthly trends, correlations and rule-based insights.

Without a file argument the dataset at DATA_PATH is used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&opts.format, "format", "f", formatText, "output format: text, json or yaml")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level for loader diagnostics on stderr")
	f.Float64Var(&opts.minCompletion, "min-completion", 0, "completion rate below which an insight is raised (overrides INSIGHT_MIN_COMPLETION_RATE)")
	f.Float64Var(&opts.maxAdverse, "max-adverse", 0, "adverse event rate above which an insight is raised (overrides INSIGHT_MAX_ADVERSE_EVENT_RATE)")
	f.Float64Var(&opts.aeGap, "ae-gap", 0, "completion gap that links adverse events to dropout (overrides INSIGHT_AE_COMPLETION_GAP)")

	root.AddCommand(
		newSummaryCmd(opts),
		newAnalyzeCmd(opts),
		newInsightsCmd(opts),
		newReportCmd(opts),
	)
	return root
}

// Execute runs trialctl and exits non-zero on error.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		printError(root.ErrOrStderr(), err)
		os.Exit(1)
	}
}

func (o *options) init(cmd *cobra.Command) error {
	if !validFormat(o.format) {
		return fmt.Errorf("unsupported --format %q (want text, json or yaml)", o.format)
	}
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), o.logLevel, "text"))

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

// thresholds starts from the configured values and applies changed flags.
func (o *options) thresholds(cmd *cobra.Command) core.Thresholds {
	th := core.Thresholds{
		MinCompletionRate:   o.cfg.Insights.MinCompletionRate,
		MaxAdverseEventRate: o.cfg.Insights.MaxAdverseEventRate,
		AECompletionGap:     o.cfg.Insights.AECompletionGap,
	}
	f := cmd.Flags()
	if f.Changed("min-completion") {
		th.MinCompletionRate = o.minCompletion
	}
	if f.Changed("max-adverse") {
		th.MaxAdverseEventRate = o.maxAdverse
	}
	if f.Changed("ae-gap") {
		th.AECompletionGap = o.aeGap
	}
	return th
}

// service builds a Service over the file argument, or DATA_PATH without one.
func (o *options) service(cmd *cobra.Command, args []string) *core.Service {
	path := o.cfg.Data.DefaultPath
	if len(args) > 0 {
		path = args[0]
	}
	th := o.thresholds(cmd)
	return core.NewService(core.Options{DataPath: path, Thresholds: &th})
}

// printError writes err with the user-facing guidance for known failures.
func printError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("Error:"), err)

	if errors.Is(err, core.ErrDataUnavailable) || errors.Is(err, core.ErrSchema) {
		msg := core.MapError(err)
		fmt.Fprintf(w, "  %s (%s)\n", msg.Action, msg.Code)
	}
}
