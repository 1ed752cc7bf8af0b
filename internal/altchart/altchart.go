// Package altchart renders a series as an interactive HTML chart with
// go-echarts. It accepts the same series as the chart geometry engine so the
// two renderers are interchangeable; the library owns tooltip and axis
// behaviour here.
package altchart

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/render"

	"finance-dashboard/internal/chart"
	"finance-dashboard/models"
)

// Kind is the declarative chart layout
type Kind string

const (
	KindLine        Kind = "line"
	KindArea        Kind = "area"
	KindBar         Kind = "bar"
	KindComposed    Kind = "composed"
	KindCandlestick Kind = "candlestick"
)

// ParseKind accepts line, area, bar or candlestick. A bar chart with volume
// enabled becomes the composed volume + price layout.
func ParseKind(s string, showVolume bool) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindLine:
		return KindLine, nil
	case KindArea:
		return KindArea, nil
	case KindBar, KindComposed:
		if showVolume {
			return KindComposed, nil
		}
		return KindBar, nil
	case KindCandlestick, "candle", "candles":
		return KindCandlestick, nil
	}
	return "", fmt.Errorf("unknown chart kind %q", s)
}

// KindFor maps a geometry engine config onto the equivalent declarative kind
func KindFor(cfg chart.RenderConfig) Kind {
	switch cfg.ChartType {
	case chart.Area:
		return KindArea
	case chart.Candlestick:
		return KindCandlestick
	}
	return KindLine
}

// Options controls the page produced by Render
type Options struct {
	Title  string
	Kind   Kind
	Width  int
	Height int
}

func (o Options) init() opts.Initialization {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 900
	}
	if h <= 0 {
		h = int(chart.DefaultRenderConfig.Height)
	}
	return opts.Initialization{
		PageTitle: o.Title,
		Width:     fmt.Sprintf("%dpx", w),
		Height:    fmt.Sprintf("%dpx", h),
	}
}

// Build assembles the chart for a series without rendering it
func Build(s models.Series, o Options) render.Renderer {
	dates := axisDates(s)

	switch o.Kind {
	case KindArea:
		c := newLine(o)
		c.SetXAxis(dates).AddSeries("Price", lineData(s),
			charts.WithLineChartOpts(opts.LineChart{Smooth: true, ShowSymbol: false}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: chart.ColorLine, Width: 2}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Color: "rgba(59,130,246,0.2)", Opacity: 1}),
		)
		return c
	case KindBar:
		c := charts.NewBar()
		c.SetGlobalOptions(globals(o)...)
		c.SetXAxis(dates).AddSeries("Price", priceBars(s),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: chart.ColorLine}),
		)
		return c
	case KindComposed:
		return composed(s, dates, o)
	case KindCandlestick:
		c := charts.NewKLine()
		c.SetGlobalOptions(globals(o)...)
		c.SetXAxis(dates).AddSeries("Price", klineData(s),
			charts.WithItemStyleOpts(opts.ItemStyle{
				Color:        chart.ColorUp,
				Color0:       chart.ColorDown,
				BorderColor:  chart.ColorUp,
				BorderColor0: chart.ColorDown,
			}),
		)
		return c
	}

	c := newLine(o)
	c.SetXAxis(dates).AddSeries("Price", lineData(s),
		charts.WithLineChartOpts(opts.LineChart{Smooth: true, ShowSymbol: false}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: chart.ColorLine, Width: 2}),
	)
	return c
}

// Render writes the interactive chart page for a series
func Render(w io.Writer, s models.Series, o Options) error {
	if err := Build(s, o).Render(w); err != nil {
		return fmt.Errorf("render %s chart: %w", o.Kind, err)
	}
	return nil
}

func newLine(o Options) *charts.Line {
	c := charts.NewLine()
	c.SetGlobalOptions(globals(o)...)
	return c
}

func globals(o Options) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(o.init()),
		charts.WithTitleOpts(opts.Title{Title: o.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:      "value",
			Scale:     true,
			AxisLabel: &opts.AxisLabel{Show: true, Formatter: "${value}"},
		}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside", Start: 0, End: 100}),
	}
}

// composed overlaps volume bars on a second y-axis with the price line.
// ECharts places the second axis opposite the first.
func composed(s models.Series, dates []string, o Options) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globals(o)...)
	bar.ExtendYAxis(opts.YAxis{
		Name:      "Volume",
		Type:      "value",
		AxisLabel: &opts.AxisLabel{Show: true, Formatter: "{value}M"},
		SplitLine: &opts.SplitLine{Show: false},
	})
	bar.SetXAxis(dates).AddSeries("Volume", volumeBars(s),
		charts.WithBarChartOpts(opts.BarChart{YAxisIndex: 1}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: chart.ColorVolume}),
	)

	price := charts.NewLine()
	price.SetXAxis(dates).AddSeries("Price", lineData(s),
		charts.WithLineChartOpts(opts.LineChart{Smooth: true, ShowSymbol: false}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: chart.ColorLine, Width: 2}),
	)
	bar.Overlap(price)
	return bar
}

func axisDates(s models.Series) []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Date.Format("2006-01-02")
	}
	return out
}

func lineData(s models.Series) []opts.LineData {
	out := make([]opts.LineData, len(s))
	for i, p := range s {
		out[i] = opts.LineData{Value: p.Price}
	}
	return out
}

func priceBars(s models.Series) []opts.BarData {
	out := make([]opts.BarData, len(s))
	for i, p := range s {
		out[i] = opts.BarData{Value: p.Price}
	}
	return out
}

// volumeBars reports volume in millions, rounded to whole millions on the axis
func volumeBars(s models.Series) []opts.BarData {
	out := make([]opts.BarData, len(s))
	for i, p := range s {
		out[i] = opts.BarData{Value: p.Volume / 1e6}
	}
	return out
}

// klineData orders each point as echarts expects: open, close, low, high
func klineData(s models.Series) []opts.KlineData {
	out := make([]opts.KlineData, len(s))
	for i, p := range s {
		out[i] = opts.KlineData{Value: [4]float64{p.Open, p.Price, p.Low, p.High}}
	}
	return out
}
