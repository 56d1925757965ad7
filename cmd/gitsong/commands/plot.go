package commands

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/gitsong/pkg/persist"
	"github.com/Sumatoshi-tech/gitsong/pkg/session"
)

// shortHashLen is the abbreviated commit hash length used for axis labels.
const shortHashLen = 7

// fullZoomPct is the initial data-zoom window in percent.
const fullZoomPct = 100

// areaOpacity is the fill opacity of the stacked series.
const areaOpacity = 0.5

// PlotCommand holds flag state for the plot command.
type PlotCommand struct {
	input  string
	output string
}

// NewPlotCommand creates the plot command.
func NewPlotCommand() *cobra.Command {
	pc := &PlotCommand{}

	cmd := &cobra.Command{
		Use:   "plot [data.json]",
		Short: "Render a persisted session as an interactive HTML chart",
		Long: "Plot reads a session document produced by analyze and renders a\n" +
			"stacked line chart of per-language code lines over the commit history.",
		Args: cobra.MaximumNArgs(1),
		RunE: pc.run,
	}

	cmd.Flags().StringVarP(&pc.output, "output", "o", "gitsong.html", "HTML output path")

	return cmd
}

func (pc *PlotCommand) run(_ *cobra.Command, args []string) error {
	pc.input = "data.json"
	if len(args) > 0 {
		pc.input = args[0]
	}

	persister := persist.NewPersister[session.AnalysisSession](pc.input, persist.NewJSONCodec())

	doc, loadErr := persister.Load(session.ValidateDocument)
	if loadErr != nil {
		return fmt.Errorf("load session %s: %w", pc.input, loadErr)
	}

	chart := generateChart(doc)

	out, createErr := os.Create(pc.output)
	if createErr != nil {
		return fmt.Errorf("create %s: %w", pc.output, createErr)
	}
	defer out.Close()

	renderErr := chart.Render(out)
	if renderErr != nil {
		return fmt.Errorf("render chart: %w", renderErr)
	}

	return nil
}

// generateChart builds a stacked line chart: one series per ranked language,
// one sample per commit, code lines on the Y axis.
func generateChart(doc *session.AnalysisSession) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Language Composition History",
			Subtitle: fmt.Sprintf("%s · %d commits", doc.Metadata.RepositoryURL, len(doc.Results)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Top: "5px"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: fullZoomPct}, opts.DataZoom{Type: "inside"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Commit",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Code Lines",
		}),
	)

	xLabels := make([]string, len(doc.Results))
	for i, rec := range doc.Results {
		hash := rec.Commit
		if len(hash) > shortHashLen {
			hash = hash[:shortHashLen]
		}

		xLabels[i] = hash
	}

	line.SetXAxis(xLabels)

	for _, language := range doc.AllLanguages {
		data := make([]opts.LineData, len(doc.Results))

		for i, rec := range doc.Results {
			data[i] = opts.LineData{Value: rec.Languages[language].Code}
		}

		line.AddSeries(
			language,
			data,
			charts.WithLineChartOpts(opts.LineChart{Stack: "total"}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(areaOpacity)}),
		)
	}

	return line
}
