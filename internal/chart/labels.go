package chart

import (
	"math"
	"time"

	"finance-dashboard/models"
)

// FormatDateLabel picks the axis label granularity from the series span
func FormatDateLabel(t time.Time, spanDays int) string {
	switch {
	case spanDays <= 31:
		return t.Format("Jan 2")
	case spanDays <= 366:
		return t.Format("Jan")
	default:
		return t.Format("2006")
	}
}

// FormatTooltipDate is the hovered-point date as shown in the tooltip
func FormatTooltipDate(t time.Time, spanDays int) string {
	switch {
	case spanDays <= 31:
		return t.Format("Jan 2")
	case spanDays <= 366:
		return t.Format("Jan 06")
	default:
		return t.Format("2006")
	}
}

// DateLabelStep returns how many points apart date labels are placed
func DateLabelStep(n int, plotWidth float64) int {
	maxLabels := max(2, int(math.Floor(plotWidth/120)))
	return max(1, int(math.Ceil(float64(n)/float64(maxLabels))))
}

func priceLabels(sc Scale, l Layout) []DrawCommand {
	cmds := make([]DrawCommand, 0, gridLines)
	size := l.FontSize()
	for i := 0; i < gridLines; i++ {
		frac := float64(i) / float64(gridLines-1)
		price := sc.MaxPrice - sc.PriceRange()*frac
		y := l.Top + l.PriceHeight*frac
		cmds = append(cmds, text(LayerAxis, models.FormatPrice(price), l.Left-5, y+4, size, AlignRight))
	}
	return cmds
}

func dateLabels(s models.Series, sc Scale, l Layout) []DrawCommand {
	span := s.SpanDays()
	step := DateLabelStep(len(s), l.PlotWidth)
	size := l.FontSize()
	y := l.Size.Height - l.Bottom + 16

	var cmds []DrawCommand
	for i := 0; i < len(s); i += step {
		cmds = append(cmds, text(LayerAxis, FormatDateLabel(s[i].Date, span), sc.X(i), y, size, AlignCenter))
	}
	return cmds
}
