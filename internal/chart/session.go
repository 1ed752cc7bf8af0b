package chart

import (
	"time"

	"github.com/google/uuid"

	"finance-dashboard/models"
)

// Trigger names the event that caused a redraw
type Trigger string

const (
	TriggerData   Trigger = "data"
	TriggerConfig Trigger = "config"
	TriggerResize Trigger = "resize"
	TriggerHover  Trigger = "hover"
)

// Frame is the last drawn state of a session
type Frame struct {
	Seq      uint64        `json:"seq"`
	Trigger  Trigger       `json:"trigger"`
	Size     CanvasSize    `json:"size"`
	Config   RenderConfig  `json:"config"`
	Points   int           `json:"points"`
	Hover    HoverState    `json:"hover"`
	Tooltip  *Tooltip      `json:"tooltip,omitempty"`
	Commands []DrawCommand `json:"commands"`
}

// Ticket tags a data load so that only the latest load may apply its result
type Ticket struct {
	Seq uint64 `json:"seq"`
	Key string `json:"key"`
}

// Session is one renderer instance. It exclusively owns its series, canvas
// size, config and hover state, and recomputes the whole frame whenever one of
// them changes. A Session is not safe for concurrent use.
type Session struct {
	ID      string
	Created time.Time

	series    models.Series
	config    RenderConfig
	container CanvasSize
	hover     HoverState

	loadSeq uint64
	loadKey string

	frame Frame
}

// NewSession creates a renderer for a container of the given size
func NewSession(cfg RenderConfig, container CanvasSize) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Created:   time.Now(),
		config:    cfg,
		container: container,
		hover:     NoHover(),
	}
	s.redraw(TriggerConfig)
	return s
}

// Size is the canvas size: the container width and the configured height,
// falling back to the container height when no height is configured.
func (s *Session) Size() CanvasSize {
	h := s.config.Height
	if h <= 0 {
		h = s.container.Height
	}
	return CanvasSize{Width: s.container.Width, Height: h}
}

// Series returns the series currently drawn
func (s *Session) Series() models.Series {
	return s.series
}

// Config returns the current render config
func (s *Session) Config() RenderConfig {
	return s.config
}

// Hover returns the current hover state
func (s *Session) Hover() HoverState {
	return s.hover
}

// Frame returns the last computed frame
func (s *Session) Frame() Frame {
	return s.frame
}

// LoadKey is the parameter key of the most recently started load
func (s *Session) LoadKey() string {
	return s.loadKey
}

// SetSeries replaces the data and always redraws. Hover is cleared because
// indices into the previous series are meaningless.
func (s *Session) SetSeries(series models.Series) bool {
	s.series = series
	s.hover = NoHover()
	s.redraw(TriggerData)
	return true
}

// SetConfig redraws when the config differs from the current one
func (s *Session) SetConfig(cfg RenderConfig) bool {
	if cfg == s.config {
		return false
	}
	s.config = cfg
	s.redraw(TriggerConfig)
	return true
}

// Resize redraws when the container size changed
func (s *Session) Resize(container CanvasSize) bool {
	if container == s.container {
		return false
	}
	s.container = container
	s.redraw(TriggerResize)
	return true
}

// PointerMove recomputes hover for the cursor and redraws when it changed
func (s *Session) PointerMove(pos Point) bool {
	next := OnPointerMove(s.series, s.Size(), s.config.ShowVolume, pos)
	return s.setHover(next)
}

// PointerLeave clears hover and redraws when something was hovered
func (s *Session) PointerLeave() bool {
	return s.setHover(OnPointerLeave())
}

func (s *Session) setHover(next HoverState) bool {
	if next.Equal(s.hover) {
		return false
	}
	s.hover = next
	s.redraw(TriggerHover)
	return true
}

// BeginLoad issues a ticket for a new data load, superseding earlier ones
func (s *Session) BeginLoad(key string) Ticket {
	s.loadSeq++
	s.loadKey = key
	return Ticket{Seq: s.loadSeq, Key: key}
}

// CompleteLoad applies a loaded series only if its ticket is still the latest.
// It reports whether the series was applied.
func (s *Session) CompleteLoad(t Ticket, series models.Series) bool {
	if t.Seq != s.loadSeq {
		return false
	}
	return s.SetSeries(series)
}

func (s *Session) redraw(trigger Trigger) {
	size := s.Size()
	s.frame = Frame{
		Seq:      s.frame.Seq + 1,
		Trigger:  trigger,
		Size:     size,
		Config:   s.config,
		Points:   len(s.series),
		Hover:    s.hover,
		Tooltip:  TooltipFor(s.series, size, s.hover),
		Commands: Render(s.series, s.config, size, s.hover),
	}
}
