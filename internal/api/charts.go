package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"finance-dashboard/internal/altchart"
	"finance-dashboard/internal/app"
	"finance-dashboard/internal/chart"
	"finance-dashboard/internal/market"
	"finance-dashboard/internal/news"
	"finance-dashboard/observability"
	"finance-dashboard/templates"
)

// HandleChartImage renders a symbol's chart as PNG or SVG. The route
// parameter carries the extension, e.g. AAPL.png or BRK.B.svg.
func (h *Handler) HandleChartImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "symbol")
	ext := path.Ext(name)
	format, err := chart.ParseFormat(strings.TrimPrefix(ext, "."))
	if ext == "" || err != nil {
		h.jsonError(w, "chart image must end in .png or .svg", http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	cfg, err := h.renderConfig(q)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	size := chart.CanvasSize{
		Width:  float64(h.ParseIntParam(r, "width", h.cfg.Chart.Width)),
		Height: cfg.Height,
	}
	if err := h.checkCanvas(size); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	series, err := h.app.Series(r.Context(), h.seriesRequest(strings.TrimSuffix(name, ext), q))
	if err != nil {
		h.seriesError(w, r, err)
		return
	}

	hover := chart.NoHover()
	if q.Has("hoverX") {
		pos := chart.Point{X: parseFloat(q.Get("hoverX")), Y: parseFloat(q.Get("hoverY"))}
		hover = chart.OnPointerMove(series, size, cfg.ShowVolume, pos)
	}

	timer := observability.GetMetrics().NewTimer()
	cmds := chart.Render(series, cfg, size, hover)
	h.writeImage(w, cmds, size, format)
	timer.ObserveRender(string(format), string(cfg.ChartType), len(cmds))
}

// HandleInteractiveChart serves the declarative chart page for a symbol
func (h *Handler) HandleInteractiveChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbol := chi.URLParam(r, "symbol")

	kind, err := altchart.ParseKind(q.Get("type"), parseBool(q.Get("volume"), true))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := altchart.Options{
		Title:  strings.ToUpper(symbol),
		Kind:   kind,
		Width:  h.ParseIntParam(r, "width", h.cfg.Chart.Width),
		Height: h.ParseIntParam(r, "height", h.cfg.Chart.Height),
	}
	if err := h.checkCanvas(chart.CanvasSize{Width: float64(opts.Width), Height: float64(opts.Height)}); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	series, err := h.app.Series(r.Context(), h.seriesRequest(symbol, q))
	if err != nil {
		h.seriesError(w, r, err)
		return
	}

	timer := observability.GetMetrics().NewTimer()
	var buf bytes.Buffer
	if err := altchart.Render(&buf, series, opts); err != nil {
		observability.WithSymbol(symbol).Error("interactive chart failed", "error", err)
		h.jsonError(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}
	timer.ObserveRender("html", string(kind), len(series))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// HandleSessionFrame rasterizes a session's current frame
func (h *Handler) HandleSessionFrame(format chart.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var frame chart.Frame
		err := h.app.Charts().With(chi.URLParam(r, "id"), func(s *chart.Session) error {
			frame = s.Frame()
			return nil
		})
		if err != nil {
			h.jsonError(w, err.Error(), http.StatusNotFound)
			return
		}

		timer := observability.GetMetrics().NewTimer()
		h.writeImage(w, frame.Commands, frame.Size, format)
		timer.ObserveRender(string(format), string(frame.Config.ChartType), len(frame.Commands))
	}
}

// HandleSessionTooltip renders the tooltip overlay for a session's hover
func (h *Handler) HandleSessionTooltip(w http.ResponseWriter, r *http.Request) {
	var tooltip *chart.Tooltip
	err := h.app.Charts().With(chi.URLParam(r, "id"), func(s *chart.Session) error {
		tooltip = s.Frame().Tooltip
		return nil
	})
	if err != nil {
		h.htmlError(w, err.Error(), http.StatusNotFound, r)
		return
	}
	h.htmlResponse(w, templates.TooltipOverlay(tooltip), r)
}

// HandleNewsPartial renders one page of news as an HTML fragment
func (h *Handler) HandleNewsPartial(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbol := strings.ToUpper(strings.TrimSpace(q.Get("symbol")))
	page, err := h.app.News(symbol, news.Query{
		Page:      h.ParseIntParam(r, "page", 1),
		Limit:     h.ParseIntParam(r, "limit", 10),
		Sentiment: q.Get("sentiment"),
	})
	if err != nil {
		err = newsErr(symbol, err)
		var nf *newsLookupError
		switch {
		case errors.Is(err, market.ErrSymbolRequired):
			h.htmlError(w, msgSymbolRequired, http.StatusBadRequest, r)
		case errors.As(err, &nf):
			h.htmlError(w, nf.Error(), http.StatusNotFound, r)
		default:
			observability.WithContext(r.Context()).Error("news lookup failed", "symbol", symbol, "error", err)
			h.htmlError(w, msgNewsFailed, http.StatusInternalServerError, r)
		}
		return
	}
	h.htmlResponse(w, templates.NewsList(page), r)
}

func (h *Handler) writeImage(w http.ResponseWriter, cmds []chart.DrawCommand, size chart.CanvasSize, format chart.Format) {
	var buf bytes.Buffer
	if err := chart.Rasterize(&buf, cmds, size, format); err != nil {
		if errors.Is(err, chart.ErrCanvasTooLarge) {
			h.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		observability.Error("rasterize chart", "format", format, "error", err)
		h.jsonError(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// checkCanvas rejects sizes above the configured maximum
func (h *Handler) checkCanvas(size chart.CanvasSize) error {
	maxW, maxH := h.cfg.Chart.MaxWidth, h.cfg.Chart.MaxHeight
	if size.Exceeds(float64(maxW), float64(maxH)) {
		return fmt.Errorf("chart size %vx%v exceeds the %dx%d limit", size.Width, size.Height, maxW, maxH)
	}
	return nil
}

// renderConfig reads type, volume and height query parameters
func (h *Handler) renderConfig(q url.Values) (chart.RenderConfig, error) {
	ct, err := chart.ParseChartType(q.Get("type"))
	if err != nil {
		return chart.RenderConfig{}, err
	}
	height := h.cfg.Chart.Height
	if v, err := strconv.Atoi(q.Get("height")); err == nil && v > 0 {
		height = v
	}
	return chart.RenderConfig{
		Height:     float64(height),
		ShowVolume: parseBool(q.Get("volume"), true),
		ChartType:  ct,
	}, nil
}

// seriesRequest reads days, sample and asset query parameters. A timeframe
// preset such as tf=5Y takes precedence over days.
func (h *Handler) seriesRequest(symbol string, q url.Values) app.SeriesRequest {
	days := market.DefaultDays
	if v, err := strconv.Atoi(q.Get("days")); err == nil && v >= 0 {
		days = v
	}
	if tf, ok := market.LookupTimeframe(strings.ToUpper(q.Get("tf"))); ok {
		days = tf.Days
	}
	sample, _ := strconv.Atoi(q.Get("sample"))

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	return app.SeriesRequest{
		Symbol: symbol,
		Asset:  assetFor(symbol, q.Get("asset")),
		Days:   days,
		Sample: sampleFor(days, sample),
	}
}

func (h *Handler) seriesError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, market.ErrSymbolRequired) {
		h.jsonError(w, msgSymbolRequired, http.StatusBadRequest)
		return
	}
	observability.WithContext(r.Context()).Error("chart data unavailable", "path", r.URL.Path, "error", err)
	h.jsonError(w, msgChartFailed, http.StatusBadGateway)
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseBool(s string, def bool) bool {
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	return def
}
