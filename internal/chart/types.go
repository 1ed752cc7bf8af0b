// Package chart is the canvas chart geometry engine: layout, price and volume
// scaling, line/area/candlestick rendering into draw commands, hover handling
// and tooltip placement. Rendering is a pure function of its inputs; Session
// owns the mutable per-chart state and decides when a redraw is needed.
package chart

import (
	"fmt"
	"strings"
)

// ChartType selects how the price series is drawn
type ChartType string

const (
	Line        ChartType = "line"
	Area        ChartType = "area"
	Candlestick ChartType = "candlestick"
)

// ParseChartType accepts a chart type name, case-insensitively. Empty means line.
func ParseChartType(s string) (ChartType, error) {
	switch ChartType(strings.ToLower(strings.TrimSpace(s))) {
	case "", Line:
		return Line, nil
	case Area:
		return Area, nil
	case Candlestick, "candle", "candles":
		return Candlestick, nil
	}
	return "", fmt.Errorf("unknown chart type %q", s)
}

// RenderConfig is supplied by the caller and is fixed for one render pass
type RenderConfig struct {
	Height     float64   `json:"height"`
	ShowVolume bool      `json:"showVolume"`
	ChartType  ChartType `json:"chartType"`
}

// DefaultRenderConfig matches the dashboard's default chart
var DefaultRenderConfig = RenderConfig{
	Height:     400,
	ShowVolume: true,
	ChartType:  Line,
}

// CanvasSize is the drawing surface size in CSS pixels
type CanvasSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether nothing can be drawn on the surface
func (c CanvasSize) Empty() bool {
	return c.Width <= 0 || c.Height <= 0
}

// Exceeds reports whether either side is larger than the given bounds
func (c CanvasSize) Exceeds(maxWidth, maxHeight float64) bool {
	return c.Width > maxWidth || c.Height > maxHeight
}

// Point is a canvas coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HoverState is the transient pointer state of one renderer
type HoverState struct {
	Cursor *Point `json:"cursor,omitempty"`
	Index  int    `json:"hoveredIndex"`
}

// NoHover is the cleared hover state
func NoHover() HoverState {
	return HoverState{Index: -1}
}

// Active reports whether a data point is hovered
func (h HoverState) Active() bool {
	return h.Cursor != nil && h.Index >= 0
}

// Equal compares two hover states by value
func (h HoverState) Equal(o HoverState) bool {
	if h.Index != o.Index {
		return false
	}
	if h.Cursor == nil || o.Cursor == nil {
		return h.Cursor == nil && o.Cursor == nil
	}
	return *h.Cursor == *o.Cursor
}
