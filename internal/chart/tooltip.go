package chart

import (
	"math"

	"github.com/shopspring/decimal"

	"finance-dashboard/models"
)

// TooltipBox is the fixed tooltip footprint and its distance from the cursor
type TooltipBox struct {
	Width  float64
	Height float64
	Margin float64
}

// DefaultTooltipBox matches the rendered tooltip overlay
var DefaultTooltipBox = TooltipBox{Width: 180, Height: 78, Margin: 16}

const edgeInset = 8

// Position is a tooltip offset inside its container
type Position struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// PlaceTooltip positions the tooltip away from the nearer container edges,
// flipping sides on overflow and clamping into the container.
func PlaceTooltip(cursor Point, container CanvasSize, box TooltipBox) Position {
	return Position{
		Left: placeAxis(cursor.X, container.Width, box.Width, box.Margin),
		Top:  placeAxis(cursor.Y, container.Height, box.Height, box.Margin),
	}
}

// placeAxis solves one axis: after (right/below) when the cursor sits in the
// first half, before (left/above) otherwise.
func placeAxis(c, dim, size, margin float64) float64 {
	after := c + margin
	before := c - size - margin

	v := before
	if c < dim/2 {
		v = after
	}

	if v+size > dim-edgeInset {
		v = math.Max(edgeInset, before)
	} else if v < edgeInset {
		v = math.Min(dim-size-edgeInset, after)
	}

	return math.Min(math.Max(edgeInset, v), math.Max(edgeInset, dim-size-edgeInset))
}

// TooltipContent is the text shown for a hovered point
type TooltipContent struct {
	Date   string `json:"date"`
	Price  string `json:"price"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Volume string `json:"volume"`
}

// DescribePoint formats a point for the tooltip overlay
func DescribePoint(p models.ChartPoint, spanDays int) TooltipContent {
	return TooltipContent{
		Date:   FormatTooltipDate(p.Date, spanDays),
		Price:  models.FormatPrice(p.Price),
		Open:   fixed2(p.Open),
		High:   fixed2(p.High),
		Low:    fixed2(p.Low),
		Volume: models.FormatMillions(p.Volume),
	}
}

// Tooltip is a placed tooltip with its content
type Tooltip struct {
	Position
	Content TooltipContent `json:"content"`
}

// TooltipFor builds the tooltip for the current hover, or nil when nothing is hovered
func TooltipFor(s models.Series, size CanvasSize, hover HoverState) *Tooltip {
	if !hover.Active() || hover.Index >= len(s) {
		return nil
	}
	return &Tooltip{
		Position: PlaceTooltip(*hover.Cursor, size, DefaultTooltipBox),
		Content:  DescribePoint(s[hover.Index], s.SpanDays()),
	}
}

func fixed2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
