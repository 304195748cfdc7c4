package audit

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const chartLineWidth = 2

// RenderHTMLChart writes a standalone HTML file to path plotting objects/sec
// over elapsed run time, one series per pipeline stage, from the samples
// recorded over the course of a run.
func RenderHTMLChart(path string, samples []ThroughputSample) error {
	byStage := make(map[string][]ThroughputSample)
	for _, s := range samples {
		byStage[s.Stage] = append(byStage[s.Stage], s)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Pipeline throughput"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "elapsed"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "objects/sec"}),
	)

	xAxis := elapsedLabels(samples)
	line.SetXAxis(xAxis)

	for stage, pts := range byStage {
		items := make([]opts.LineData, 0, len(pts))
		for _, p := range pts {
			items = append(items, opts.LineData{Value: p.ObjectsPerSec})
		}

		line.AddSeries(stage, items, charts.WithLineChartOpts(opts.LineChart{
			Smooth: opts.Bool(true),
		}))
	}

	line.SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: chartLineWidth}))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	if err := line.Render(f); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}

func elapsedLabels(samples []ThroughputSample) []string {
	seen := make(map[string]bool)

	labels := make([]string, 0, len(samples))

	for _, s := range samples {
		l := s.At.String()
		if seen[l] {
			continue
		}

		seen[l] = true
		labels = append(labels, l)
	}

	return labels
}
