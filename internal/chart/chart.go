// Package chart draws explanation bar charts with go-echarts.
package chart

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Skufu/risklens/internal/view"
)

const (
	heightPx       = 250
	colorAxisLabel = "#6b7280"
)

// Render returns a standalone HTML document holding a horizontal bar chart of
// panel.Bars. The first bar is drawn at the top.
func Render(panel view.Panel) ([]byte, error) {
	if !panel.Available || len(panel.Bars) == 0 {
		return nil, fmt.Errorf("no contributions to chart for %s", panel.Method)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       panel.Title,
			ChartID:         panel.ID + "-chart",
			Width:           "100%",
			Height:          fmt.Sprintf("%dpx", heightPx),
			BackgroundColor: "transparent",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithGridOpts(opts.Grid{Left: "120", Right: "20", Top: "10", Bottom: "30"}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Color: colorAxisLabel},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Color: colorAxisLabel},
		}),
	)

	// Category axes grow upwards once flipped, so feed the bars bottom first.
	n := len(panel.Bars)
	names := make([]string, n)
	data := make([]opts.BarData, n)
	for i, b := range panel.Bars {
		j := n - 1 - i
		names[j] = b.Feature
		data[j] = opts.BarData{
			Name:      b.Feature,
			Value:     b.Value,
			ItemStyle: &opts.ItemStyle{Color: b.Color},
		}
	}
	bar.SetXAxis(names).AddSeries(string(panel.Method), data)
	bar.XYReversal()

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return nil, fmt.Errorf("render %s chart: %w", panel.Method, err)
	}
	return buf.Bytes(), nil
}
