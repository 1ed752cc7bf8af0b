package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Format is a raster output encoding
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// MaxCanvasDimension caps either side of a rasterized canvas. A PNG canvas
// is backed by a w*h*4 byte buffer.
const MaxCanvasDimension = 16384

// ErrCanvasTooLarge is returned for canvases beyond MaxCanvasDimension
var ErrCanvasTooLarge = errors.New("canvas too large")

// ContentType is the HTTP media type for the format
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// ParseFormat accepts "png" or "svg"
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unsupported image format %q", s)
}

// Canvas is the subset of a go-chart renderer that draw commands need
type Canvas interface {
	ResetStyle()
	SetStrokeColor(drawing.Color)
	SetFillColor(drawing.Color)
	SetStrokeWidth(float64)
	SetStrokeDashArray([]float64)
	MoveTo(x, y int)
	LineTo(x, y int)
	Close()
	Stroke()
	Fill()
	FillStroke()
	SetFontColor(drawing.Color)
	SetFontSize(float64)
	Text(body string, x, y int)
	MeasureText(body string) gochart.Box
}

const emptyMessage = "No data"

// Rasterize executes draw commands on a go-chart renderer and encodes the
// result. An empty command list produces a blank canvas with a message.
func Rasterize(w io.Writer, cmds []DrawCommand, size CanvasSize, format Format) error {
	if size.Empty() {
		return fmt.Errorf("canvas %vx%v has no area", size.Width, size.Height)
	}
	if size.Exceeds(MaxCanvasDimension, MaxCanvasDimension) {
		return fmt.Errorf("canvas %vx%v: %w", size.Width, size.Height, ErrCanvasTooLarge)
	}

	provider := gochart.PNG
	if format == FormatSVG {
		provider = gochart.SVG
	}
	r, err := provider(int(size.Width), int(size.Height))
	if err != nil {
		return fmt.Errorf("create %s renderer: %w", format, err)
	}
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	r.SetFont(font)

	background(r, size)
	if len(cmds) == 0 {
		cmds = []DrawCommand{text(LayerAxis, emptyMessage, size.Width/2, size.Height/2, 14, AlignCenter)}
	}
	Paint(r, cmds)

	return r.Save(w)
}

func background(c Canvas, size CanvasSize) {
	c.ResetStyle()
	c.SetFillColor(drawing.ColorWhite)
	c.MoveTo(0, 0)
	c.LineTo(int(size.Width), 0)
	c.LineTo(int(size.Width), int(size.Height))
	c.LineTo(0, int(size.Height))
	c.Close()
	c.Fill()
}

// Paint draws commands in order onto the canvas
func Paint(c Canvas, cmds []DrawCommand) {
	for _, cmd := range cmds {
		c.ResetStyle()
		switch cmd.Op {
		case OpLine, OpPolyline:
			if len(cmd.Points) < 2 {
				continue
			}
			c.SetStrokeColor(ParseColor(cmd.Stroke))
			c.SetStrokeWidth(cmd.Width)
			c.SetStrokeDashArray(cmd.Dash)
			path(c, cmd.Points)
			c.Stroke()
		case OpPolygon:
			if len(cmd.Points) < 3 {
				continue
			}
			c.SetFillColor(ParseColor(cmd.Fill))
			path(c, cmd.Points)
			c.Close()
			c.Fill()
		case OpRect:
			c.SetFillColor(ParseColor(cmd.Fill))
			path(c, []Point{
				{cmd.X, cmd.Y},
				{cmd.X + cmd.W, cmd.Y},
				{cmd.X + cmd.W, cmd.Y + cmd.H},
				{cmd.X, cmd.Y + cmd.H},
			})
			c.Close()
			c.Fill()
		case OpCircle:
			c.SetFillColor(ParseColor(cmd.Fill))
			c.SetStrokeColor(ParseColor(cmd.Stroke))
			c.SetStrokeWidth(cmd.Width)
			path(c, circlePoints(cmd.X, cmd.Y, cmd.R))
			c.Close()
			if cmd.Stroke == "" {
				c.Fill()
			} else {
				c.FillStroke()
			}
		case OpText:
			c.SetFontColor(ParseColor(cmd.Fill))
			c.SetFontSize(cmd.FontSize)
			x := cmd.X
			switch cmd.Align {
			case AlignRight:
				x -= float64(c.MeasureText(cmd.Text).Width())
			case AlignCenter:
				x -= float64(c.MeasureText(cmd.Text).Width()) / 2
			}
			c.Text(cmd.Text, px(x), px(cmd.Y))
		}
	}
}

func path(c Canvas, pts []Point) {
	c.MoveTo(px(pts[0].X), px(pts[0].Y))
	for _, p := range pts[1:] {
		c.LineTo(px(p.X), px(p.Y))
	}
}

// circlePoints approximates a circle with a polygon; markers are a few pixels wide
func circlePoints(cx, cy, r float64) []Point {
	const segments = 16
	pts := make([]Point, segments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / segments
		pts[i] = Point{cx + r*math.Cos(a), cy + r*math.Sin(a)}
	}
	return pts
}

func px(v float64) int {
	return int(math.Round(v))
}

// ParseColor converts "#rrggbb", "#rgb" and "rgba(r,g,b,a)" into a drawing
// colour. Unknown input yields transparent.
func ParseColor(css string) drawing.Color {
	css = strings.TrimSpace(css)
	switch {
	case strings.HasPrefix(css, "#"):
		hex := css[1:]
		if len(hex) == 3 {
			hex = strings.Repeat(hex[0:1], 2) + strings.Repeat(hex[1:2], 2) + strings.Repeat(hex[2:3], 2)
		}
		return drawing.ColorFromHex(hex)
	case strings.HasPrefix(css, "rgba(") && strings.HasSuffix(css, ")"):
		parts := strings.Split(css[len("rgba("):len(css)-1], ",")
		if len(parts) != 4 {
			return drawing.ColorTransparent
		}
		var ch [3]uint8
		for i := 0; i < 3; i++ {
			v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
			if err != nil {
				return drawing.ColorTransparent
			}
			ch[i] = uint8(max(0, min(255, v)))
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return drawing.ColorTransparent
		}
		return drawing.Color{R: ch[0], G: ch[1], B: ch[2], A: uint8(math.Round(math.Max(0, math.Min(1, a)) * 255))}
	}
	return drawing.ColorTransparent
}
