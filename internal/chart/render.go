package chart

import (
	"math"

	"finance-dashboard/models"
)

const gridLines = 6

// Render computes the full frame for a series. It is pure: the same inputs
// always yield the same commands. An empty series, or a canvas too small to
// hold a plot, yields no commands.
func Render(s models.Series, cfg RenderConfig, size CanvasSize, hover HoverState) []DrawCommand {
	if len(s) == 0 || size.Empty() {
		return nil
	}
	l := ComputeLayout(size, cfg.ShowVolume)
	if !l.Drawable() {
		return nil
	}
	sc := NewScale(s, l, cfg.ChartType)

	cmds := make([]DrawCommand, 0, 4*gridLines+3*len(s)+8)
	cmds = append(cmds, grid(l)...)

	switch cfg.ChartType {
	case Candlestick:
		cmds = append(cmds, candles(s, sc, l)...)
	case Area:
		cmds = append(cmds, area(s, sc, l)...)
	default:
		cmds = append(cmds, polyline(s, sc))
	}

	if cfg.ShowVolume && l.VolumeHeight > 0 {
		cmds = append(cmds, volumeBars(s, sc, cfg.ChartType)...)
	}

	if hover.Active() && hover.Index < len(s) {
		cmds = append(cmds, crosshair(s[hover.Index], hover.Index, sc, l)...)
	}

	cmds = append(cmds, priceLabels(sc, l)...)
	cmds = append(cmds, dateLabels(s, sc, l)...)
	return cmds
}

func grid(l Layout) []DrawCommand {
	cmds := make([]DrawCommand, 0, 2*gridLines)
	for i := 0; i < gridLines; i++ {
		y := l.Top + l.PriceHeight*float64(i)/float64(gridLines-1)
		cmds = append(cmds, line(LayerGrid, Point{l.Left, y}, Point{l.PlotRight(), y}, ColorGrid, 1))
	}
	for i := 0; i < gridLines; i++ {
		x := l.Left + l.PlotWidth*float64(i)/float64(gridLines-1)
		cmds = append(cmds, line(LayerGrid, Point{x, l.Top}, Point{x, l.PriceBottom()}, ColorGrid, 1))
	}
	return cmds
}

func pricePath(s models.Series, sc Scale) []Point {
	pts := make([]Point, len(s))
	for i, p := range s {
		pts[i] = Point{sc.X(i), sc.PriceY(p.Price)}
	}
	return pts
}

func polyline(s models.Series, sc Scale) DrawCommand {
	return DrawCommand{Op: OpPolyline, Layer: LayerPrice, Points: pricePath(s, sc), Stroke: ColorLine, Width: 2}
}

func area(s models.Series, sc Scale, l Layout) []DrawCommand {
	outline := pricePath(s, sc)
	fill := make([]Point, 0, len(outline)+2)
	fill = append(fill, outline...)
	fill = append(fill, Point{l.PlotRight(), l.PriceBottom()}, Point{l.Left, l.PriceBottom()})

	return []DrawCommand{
		{Op: OpPolygon, Layer: LayerPrice, Points: fill, Fill: ColorAreaFill},
		{Op: OpPolyline, Layer: LayerPrice, Points: outline, Stroke: ColorLine, Width: 2},
	}
}

// CandleWidth is the body width for n candles across the plot
func CandleWidth(plotWidth float64, n int) float64 {
	return math.Min(20, math.Max(2, plotWidth/float64(n)*0.6))
}

func candles(s models.Series, sc Scale, l Layout) []DrawCommand {
	width := CandleWidth(l.PlotWidth, len(s))
	cmds := make([]DrawCommand, 0, 2*len(s))
	for i, p := range s {
		color := ColorDown
		if p.Up() {
			color = ColorUp
		}
		x := sc.X(i)
		yOpen, yClose := sc.PriceY(p.Open), sc.PriceY(p.Price)

		cmds = append(cmds,
			line(LayerPrice, Point{x, sc.PriceY(p.High)}, Point{x, sc.PriceY(p.Low)}, color, 1),
			rect(LayerPrice, x-width/2, math.Min(yOpen, yClose), width, math.Max(1, math.Abs(yOpen-yClose)), color),
		)
	}
	return cmds
}

func volumeBars(s models.Series, sc Scale, t ChartType) []DrawCommand {
	cmds := make([]DrawCommand, 0, len(s))
	for i, p := range s {
		y, h := sc.VolumeBar(p.Volume)
		if h <= 0 {
			continue
		}
		color := ColorVolume
		if t == Candlestick {
			color = ColorVolumeDown
			if p.Up() {
				color = ColorVolumeUp
			}
		}
		cmds = append(cmds, rect(LayerVolume, sc.X(i)-1, y, 2, h, color))
	}
	return cmds
}

func crosshair(p models.ChartPoint, idx int, sc Scale, l Layout) []DrawCommand {
	x, y := sc.X(idx), sc.PriceY(p.Price)
	dash := []float64{5, 5}

	vertical := line(LayerCrosshair, Point{x, l.Top}, Point{x, l.PriceBottom()}, ColorCrosshair, 1)
	vertical.Dash = dash
	horizontal := line(LayerCrosshair, Point{l.Left, y}, Point{l.PlotRight(), y}, ColorCrosshair, 1)
	horizontal.Dash = dash

	marker := DrawCommand{
		Op:     OpCircle,
		Layer:  LayerMarker,
		X:      x,
		Y:      y,
		R:      4,
		Fill:   ColorMarker,
		Stroke: ColorMarkerRing,
		Width:  2,
	}
	return []DrawCommand{vertical, horizontal, marker}
}
