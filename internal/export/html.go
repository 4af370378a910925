package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/san-kum/fragtrack/internal/metrics"
)

// HistogramsHTML renders every non-empty histogram as a bar chart on one
// page.
func HistogramsHTML(w io.Writer, title string, hists []metrics.HistogramData) error {
	page := components.NewPage()
	page.PageTitle = title
	for _, d := range hists {
		if d.Entries == 0 {
			continue
		}
		page.AddCharts(histogramBar(d))
	}
	return page.Render(w)
}

func histogramBar(d metrics.HistogramData) *charts.Bar {
	x := make([]string, len(d.Bins))
	y := make([]opts.BarData, len(d.Bins))
	for i, b := range d.Bins {
		x[i] = strconv.FormatFloat((b.Low+b.High)/2, 'g', 4, 64)
		y[i] = opts.BarData{Value: b.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: d.Title, Subtitle: fmt.Sprintf("entries=%d mean=%.4g sd=%.4g", d.Entries, d.Mean, d.StdDev)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: d.XLabel, NameLocation: "middle", NameGap: 25}),
	)
	bar.SetXAxis(x).AddSeries(d.Name, y)
	return bar
}
