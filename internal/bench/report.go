package bench

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteReport renders an HTML comparison page for a set of benchmark
// results: per-instance runtime and solution-quality rates per solver.
func WriteReport(results []Result, path string) error {
	names := make([]string, 0, len(results))
	runtime := make([]opts.BarData, 0, len(results))
	gtFound := make([]opts.BarData, 0, len(results))
	valid := make([]opts.BarData, 0, len(results))

	for _, r := range results {
		names = append(names, r.Name)

		perInstance := 0.0
		if r.Instances > 0 {
			perInstance = float64(r.RuntimeNS) / float64(r.Instances)
		}
		runtime = append(runtime, opts.BarData{Value: perInstance})

		gtPct, validPct := 0.0, 0.0
		if r.Instances > 0 {
			gtPct = 100 * float64(r.FoundGT) / float64(r.Instances)
		}
		if r.Solutions > 0 {
			validPct = 100 * float64(r.ValidSolutions) / float64(r.Solutions)
		}
		gtFound = append(gtFound, opts.BarData{Value: gtPct})
		valid = append(valid, opts.BarData{Value: validPct})
	}

	runtimeBar := charts.NewBar()
	runtimeBar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Solver runtime",
			Subtitle: "median wall time per instance (ns)",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	runtimeBar.SetXAxis(names).AddSeries("runtime (ns)", runtime)

	qualityBar := charts.NewBar()
	qualityBar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Solution quality",
			Subtitle: "ground truth recovery and valid-solution rates (%)",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	qualityBar.SetXAxis(names).
		AddSeries("gt found (%)", gtFound).
		AddSeries("valid (%)", valid)

	page := components.NewPage()
	page.PageTitle = "Minimal solver benchmark"
	page.AddCharts(runtimeBar, qualityBar)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating benchmark report: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("rendering benchmark report: %w", err)
	}
	return nil
}
