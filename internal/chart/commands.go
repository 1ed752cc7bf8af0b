package chart

// Op is a drawing primitive
type Op string

const (
	OpLine     Op = "line"
	OpPolyline Op = "polyline"
	OpPolygon  Op = "polygon"
	OpRect     Op = "rect"
	OpCircle   Op = "circle"
	OpText     Op = "text"
)

// Layer groups commands by what they depict
type Layer string

const (
	LayerGrid      Layer = "grid"
	LayerPrice     Layer = "price"
	LayerVolume    Layer = "volume"
	LayerCrosshair Layer = "crosshair"
	LayerMarker    Layer = "marker"
	LayerAxis      Layer = "axis"
)

// Align is horizontal text alignment relative to the anchor point
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Colors used by the renderer. Values are CSS colours.
const (
	ColorGrid       = "#f0f0f0"
	ColorLine       = "#3b82f6"
	ColorAreaFill   = "rgba(59,130,246,0.1)"
	ColorUp         = "#10b981"
	ColorDown       = "#ef4444"
	ColorVolumeUp   = "rgba(16,185,129,0.6)"
	ColorVolumeDown = "rgba(239,68,68,0.6)"
	ColorVolume     = "#10b981"
	ColorCrosshair  = "rgba(0,0,0,0.15)"
	ColorMarker     = "#1d4ed8"
	ColorMarkerRing = "#ffffff"
	ColorLabel      = "#666666"
)

// DrawCommand is one backend-independent drawing instruction.
//
// Lines and polylines use Points and Stroke. Polygons use Points and Fill.
// Rects use X, Y, W, H and Fill. Circles use X, Y, R, Fill and an optional
// Stroke ring. Text is anchored at X, Y (baseline) with Align.
type DrawCommand struct {
	Op       Op        `json:"op"`
	Layer    Layer     `json:"layer"`
	Points   []Point   `json:"points,omitempty"`
	X        float64   `json:"x,omitempty"`
	Y        float64   `json:"y,omitempty"`
	W        float64   `json:"w,omitempty"`
	H        float64   `json:"h,omitempty"`
	R        float64   `json:"r,omitempty"`
	Stroke   string    `json:"stroke,omitempty"`
	Fill     string    `json:"fill,omitempty"`
	Width    float64   `json:"width,omitempty"`
	Dash     []float64 `json:"dash,omitempty"`
	Text     string    `json:"text,omitempty"`
	FontSize float64   `json:"fontSize,omitempty"`
	Align    Align     `json:"align,omitempty"`
}

func line(layer Layer, a, b Point, stroke string, width float64) DrawCommand {
	return DrawCommand{Op: OpLine, Layer: layer, Points: []Point{a, b}, Stroke: stroke, Width: width}
}

func rect(layer Layer, x, y, w, h float64, fill string) DrawCommand {
	return DrawCommand{Op: OpRect, Layer: layer, X: x, Y: y, W: w, H: h, Fill: fill}
}

func text(layer Layer, s string, x, y, size float64, align Align) DrawCommand {
	return DrawCommand{Op: OpText, Layer: layer, Text: s, X: x, Y: y, FontSize: size, Align: align, Fill: ColorLabel}
}

// Filter returns the commands drawn on the given layer
func Filter(cmds []DrawCommand, layer Layer) []DrawCommand {
	var out []DrawCommand
	for _, c := range cmds {
		if c.Layer == layer {
			out = append(out, c)
		}
	}
	return out
}
