package report

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteChart renders the per-query latencies of all successful engines
// as a self-contained HTML line chart at path.
func WriteChart(path string, doc Document) error {
	line, err := buildLatencyChart(doc)
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.AddCharts(line)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}

func buildLatencyChart(doc Document) (*charts.Line, error) {
	maxQueries := 0

	for _, r := range doc.Results {
		if !r.Failed && len(r.Metrics.QuerySeconds) > maxQueries {
			maxQueries = len(r.Metrics.QuerySeconds)
		}
	}

	if maxQueries == 0 {
		return nil, fmt.Errorf("no query samples to chart")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Query latency by engine",
			Subtitle: fmt.Sprintf(
				"%d vectors x %d dims, k=%d, metric %s",
				doc.Config.Vectors, doc.Config.Dimension,
				doc.Config.K, doc.Config.Metric,
			),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ms"}),
	)

	labels := make([]string, maxQueries)
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
	}

	line.SetXAxis(labels)

	for _, r := range doc.Results {
		if r.Failed || len(r.Metrics.QuerySeconds) == 0 {
			continue
		}

		data := make([]opts.LineData, len(r.Metrics.QuerySeconds))
		for i, s := range r.Metrics.QuerySeconds {
			data[i] = opts.LineData{Value: s * 1000}
		}

		line.AddSeries(r.Engine, data)
	}

	return line, nil
}
