package chart

import (
	"math"

	"finance-dashboard/models"
)

// Layout is the plot-area geometry for one canvas size
type Layout struct {
	Size         CanvasSize `json:"size"`
	Left         float64    `json:"left"`
	Right        float64    `json:"right"`
	Top          float64    `json:"top"`
	Bottom       float64    `json:"bottom"`
	PlotWidth    float64    `json:"plotWidth"`
	Available    float64    `json:"availableHeight"`
	PriceHeight  float64    `json:"priceHeight"`
	VolumeHeight float64    `json:"volumeHeight"`
	Gap          float64    `json:"gap"`
}

// ComputeLayout derives paddings and panel heights from the canvas size
func ComputeLayout(size CanvasSize, showVolume bool) Layout {
	base := math.Min(40, math.Min(size.Width*0.1, size.Height*0.1))

	l := Layout{
		Size:   size,
		Left:   math.Max(50, base),
		Right:  math.Max(20, base*0.5),
		Top:    math.Max(20, base*0.5),
		Bottom: math.Max(30, base),
	}
	l.PlotWidth = size.Width - l.Left - l.Right
	l.Available = size.Height - l.Top - l.Bottom

	if showVolume {
		l.PriceHeight = l.Available * 0.7
		l.VolumeHeight = l.Available * 0.25
		l.Gap = l.Available * 0.05
	} else {
		l.PriceHeight = l.Available
	}
	return l
}

// Drawable reports whether the plot area has positive extent
func (l Layout) Drawable() bool {
	return l.PlotWidth > 0 && l.PriceHeight > 0
}

// PriceBottom is the y of the price panel floor
func (l Layout) PriceBottom() float64 {
	return l.Top + l.PriceHeight
}

// VolumeTop is the y where the volume panel starts
func (l Layout) VolumeTop() float64 {
	return l.Top + l.PriceHeight + l.Gap
}

// PlotRight is the x of the plot's right edge
func (l Layout) PlotRight() float64 {
	return l.Left + l.PlotWidth
}

// FontSize is the label font size for this canvas
func (l Layout) FontSize() float64 {
	return math.Max(10, math.Min(12, l.Size.Width/50))
}

// Scale maps data values to canvas coordinates
type Scale struct {
	layout    Layout
	n         int
	MinPrice  float64 `json:"minPrice"`
	MaxPrice  float64 `json:"maxPrice"`
	MaxVolume float64 `json:"maxVolume"`
}

// NewScale computes the padded price domain and the volume domain
func NewScale(s models.Series, l Layout, t ChartType) Scale {
	sc := Scale{layout: l, n: len(s), MaxVolume: s.MaxVolume()}
	if len(s) == 0 {
		return sc
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range s {
		low, high := p.Price, p.Price
		if t == Candlestick {
			low, high = p.Low, p.High
		}
		lo = math.Min(lo, low)
		hi = math.Max(hi, high)
	}

	pad := math.Max(1e-6, hi-lo) * 0.1
	sc.MinPrice = math.Max(0, lo-pad)
	sc.MaxPrice = hi + pad
	return sc
}

// PriceRange is the padded price span
func (sc Scale) PriceRange() float64 {
	return sc.MaxPrice - sc.MinPrice
}

// X maps a point index to its x coordinate. A single point sits at the left edge.
func (sc Scale) X(i int) float64 {
	if sc.n <= 1 {
		return sc.layout.Left
	}
	return sc.layout.Left + float64(i)/float64(sc.n-1)*sc.layout.PlotWidth
}

// PriceY maps a price to its y coordinate in the price panel
func (sc Scale) PriceY(v float64) float64 {
	r := sc.PriceRange()
	if r <= 0 {
		return sc.layout.PriceBottom()
	}
	return sc.layout.Top + (sc.MaxPrice-v)/r*sc.layout.PriceHeight
}

// PriceAt is the inverse of PriceY
func (sc Scale) PriceAt(y float64) float64 {
	if sc.layout.PriceHeight <= 0 {
		return sc.MinPrice
	}
	return sc.MaxPrice - (y-sc.layout.Top)/sc.layout.PriceHeight*sc.PriceRange()
}

// VolumeBar returns the top y and height of the volume bar for v
func (sc Scale) VolumeBar(v float64) (y, h float64) {
	if sc.MaxVolume <= 0 {
		return sc.layout.VolumeTop() + sc.layout.VolumeHeight, 0
	}
	h = v / sc.MaxVolume * sc.layout.VolumeHeight
	return sc.layout.VolumeTop() + sc.layout.VolumeHeight - h, h
}

// IndexAt maps an x coordinate to the nearest point index. It reports false
// when x lies outside the plot's horizontal bounds or is not a number.
func (sc Scale) IndexAt(x float64) (int, bool) {
	l := sc.layout
	if sc.n == 0 || math.IsNaN(x) || x < l.Left || x > l.PlotRight() || l.PlotWidth <= 0 {
		return -1, false
	}
	rel := (x - l.Left) / l.PlotWidth
	idx := int(math.Floor(rel*float64(sc.n-1) + 0.5))
	return max(0, min(idx, sc.n-1)), true
}
