// Package commands implements CLI command handlers for gitsong.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/gitsong/internal/config"
	"github.com/Sumatoshi-tech/gitsong/pkg/engine"
	"github.com/Sumatoshi-tech/gitsong/pkg/observability"
	"github.com/Sumatoshi-tech/gitsong/pkg/persist"
	"github.com/Sumatoshi-tech/gitsong/pkg/session"
	"github.com/Sumatoshi-tech/gitsong/pkg/version"
)

// Summary output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// shareScale converts a fraction to percent.
const shareScale = 100

// ErrUnknownFormat indicates an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown format (expected table, json or yaml)")

// AnalyzeCommand holds configuration and flag state for the analyze command.
type AnalyzeCommand struct {
	configPath string
	branch     string
	tool       string
	output     string
	format     string
	silent     bool
	noColor    bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	ac := &AnalyzeCommand{}

	cmd := &cobra.Command{
		Use:   "analyze [repository]",
		Short: "Walk a repository's history and persist the analysis session",
		Long: "Analyze checks out every commit of the chosen branch, counts the\n" +
			"language composition at each one and writes the session document,\n" +
			"resuming incrementally from a compatible previous run.",
		Args: cobra.MaximumNArgs(1),
		RunE: ac.run,
	}

	cmd.Flags().StringVar(&ac.configPath, "config", "", "Config file path (default: .gitsong.yaml in CWD or $HOME)")
	cmd.Flags().StringVarP(&ac.branch, "branch", "b", "", "Branch to analyze (overrides config)")
	cmd.Flags().StringVarP(&ac.tool, "tool", "t", "", "Counter tool: scc or cloc (overrides config)")
	cmd.Flags().StringVarP(&ac.output, "output", "o", "", "Session output path (overrides config)")
	cmd.Flags().StringVar(&ac.format, "format", FormatTable, "Summary format: table, json, yaml")
	cmd.Flags().BoolVar(&ac.silent, "silent", false, "Disable progress output")
	cmd.Flags().BoolVar(&ac.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (ac *AnalyzeCommand) run(cmd *cobra.Command, args []string) error {
	source := "."
	if len(args) > 0 {
		source = args[0]
	}

	cfg, err := ac.loadConfig()
	if err != nil {
		return err
	}

	silent := ac.isSilent(cmd)
	if ac.noColor {
		color.NoColor = true
	}

	providers, obsErr := observability.Init(ac.observabilityConfig(cmd, cfg))
	if obsErr != nil {
		return fmt.Errorf("init observability: %w", obsErr)
	}

	defer func() {
		shutdownErr := providers.Shutdown(cmd.Context())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	metrics, metricsErr := observability.NewEngineMetrics(providers.Meter)
	if metricsErr != nil {
		return metricsErr
	}

	timeout, timeoutErr := cfg.CounterTimeout()
	if timeoutErr != nil {
		return timeoutErr
	}

	eng, engErr := engine.New(engine.Options{
		Source:         source,
		Branch:         cfg.Analysis.Branch,
		Tool:           cfg.Analysis.CounterTool,
		OutputPath:     cfg.Analysis.Output,
		CounterTimeout: timeout,
		Logger:         providers.Logger,
		Tracer:         providers.Tracer,
		Metrics:        metrics,
		Reporter:       ac.progressReporter(silent, cmd.ErrOrStderr()),
	})
	if engErr != nil {
		return engErr
	}

	startedAt := time.Now()

	result, runErr := eng.Run(cmd.Context())
	if runErr != nil {
		return runErr
	}

	return ac.renderSummary(cmd.OutOrStdout(), source, cfg, result, time.Since(startedAt))
}

// loadConfig loads the file/env configuration and applies flag overrides.
// A flag explicitly set on the command line wins over every other source.
func (ac *AnalyzeCommand) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(ac.configPath)
	if err != nil {
		return nil, err
	}

	if ac.branch != "" {
		cfg.Analysis.Branch = ac.branch
	}

	if ac.tool != "" {
		cfg.Analysis.CounterTool = ac.tool
	}

	if ac.output != "" {
		cfg.Analysis.Output = ac.output
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	return cfg, nil
}

func (ac *AnalyzeCommand) observabilityConfig(cmd *cobra.Command, cfg *config.Config) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Observability.Environment
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Observability.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.PrometheusAddr = cfg.Observability.PrometheusAddr
	obsCfg.LogJSON = cfg.Observability.LogJSON

	verbose, err := cmd.Flags().GetBool("verbose")
	if err == nil && verbose {
		obsCfg.LogLevel = slog.LevelDebug
	}

	if ac.isSilent(cmd) {
		obsCfg.LogLevel = slog.LevelError
	}

	return obsCfg
}

func (ac *AnalyzeCommand) isSilent(cmd *cobra.Command) bool {
	if ac.silent {
		return true
	}

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return false
	}

	return quiet
}

// progressReporter renders engine progress to the given writer.
func (ac *AnalyzeCommand) progressReporter(silent bool, writer io.Writer) engine.Reporter {
	if silent {
		return nil
	}

	return func(stage engine.Stage, percent int, message string, _ map[string]any) {
		_, _ = fmt.Fprintf(writer, "progress: [%s] %3d%% %s\n", stage, percent, message)
	}
}

// runSummary is the machine-readable completion summary.
type runSummary struct {
	Repository  string   `json:"repository"  yaml:"repository"`
	CounterTool string   `json:"counterTool" yaml:"counterTool"`
	Output      string   `json:"output"      yaml:"output"`
	Commits     int      `json:"commits"     yaml:"commits"`
	NewCommits  int      `json:"newCommits"  yaml:"newCommits"`
	Languages   []string `json:"languages"   yaml:"languages"`
	TotalLines  int      `json:"totalLines"  yaml:"totalLines"`
	TotalFiles  int      `json:"totalFiles"  yaml:"totalFiles"`
	TotalBytes  int64    `json:"totalBytes"  yaml:"totalBytes"`
	Elapsed     string   `json:"elapsed"     yaml:"elapsed"`
}

func buildSummary(source string, cfg *config.Config, result *engine.Result, elapsed time.Duration) runSummary {
	summary := runSummary{
		Repository:  source,
		CounterTool: cfg.Analysis.CounterTool,
		Output:      cfg.Analysis.Output,
		Commits:     len(result.Session.Results),
		NewCommits:  result.NewCommits,
		Languages:   result.Session.AllLanguages,
		Elapsed:     elapsed.Round(time.Millisecond).String(),
	}

	if len(result.Session.Results) > 0 {
		final := result.Session.Results[len(result.Session.Results)-1]
		summary.TotalLines = final.TotalLines
		summary.TotalFiles = final.TotalFiles
		summary.TotalBytes = final.TotalBytes
	}

	return summary
}

func (ac *AnalyzeCommand) renderSummary(
	writer io.Writer,
	source string,
	cfg *config.Config,
	result *engine.Result,
	elapsed time.Duration,
) error {
	summary := buildSummary(source, cfg, result, elapsed)

	switch ac.format {
	case FormatJSON:
		return persist.NewJSONCodec().Encode(writer, summary)
	case FormatYAML:
		return yaml.NewEncoder(writer).Encode(summary)
	case FormatTable:
		renderSummaryTable(writer, summary, result.Session)

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, ac.format)
	}
}

// renderSummaryTable prints the human summary: a headline and the final
// commit's language composition ranked by share.
func renderSummaryTable(writer io.Writer, summary runSummary, doc *session.AnalysisSession) {
	headline := fmt.Sprintf("%d commits (%d new), %d languages, %s, %s with %s",
		summary.Commits, summary.NewCommits, len(summary.Languages),
		humanize.Bytes(safeUint64(summary.TotalBytes)), summary.Elapsed, summary.CounterTool)

	fmt.Fprintln(writer, color.New(color.Bold).Sprint("gitsong: ")+headline)

	if len(doc.Results) == 0 {
		fmt.Fprintln(writer, "no commits analyzed")

		return
	}

	final := doc.Results[len(doc.Results)-1]

	tbl := table.NewWriter()
	tbl.SetOutputMirror(writer)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"#", "Language", "Files", "Code", "Share"})

	for rank, language := range doc.AllLanguages {
		stats, ok := final.Languages[language]
		if !ok {
			continue
		}

		share := 0.0
		if final.TotalLines > 0 {
			share = float64(stats.Code) / float64(final.TotalLines) * shareScale
		}

		tbl.AppendRow(table.Row{
			rank + 1,
			language,
			stats.Files,
			humanize.Comma(int64(stats.Code)),
			fmt.Sprintf("%.1f%%", share),
		})
	}

	tbl.AppendFooter(table.Row{"", "Total", final.TotalFiles, humanize.Comma(int64(final.TotalLines)), ""})
	tbl.Render()

	fmt.Fprintln(writer, "session written to "+color.New(color.FgGreen).Sprint(summary.Output))
}

func safeUint64(v int64) uint64 {
	if v < 0 {
		return 0
	}

	return uint64(v)
}
