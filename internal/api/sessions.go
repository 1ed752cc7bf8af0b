package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"finance-dashboard/internal/app"
	"finance-dashboard/internal/chart"
	"finance-dashboard/internal/market"
	"finance-dashboard/models"
	"finance-dashboard/services"
)

type sessionIDInput struct {
	ID string `path:"id" doc:"Chart session id"`
}

type seriesParams struct {
	Symbol string `json:"symbol" minLength:"1" doc:"Ticker symbol, e.g. AAPL or BTC-USD"`
	Asset  string `json:"asset,omitempty" enum:"stock,crypto" doc:"Asset class; inferred from the symbol when omitted"`
	Days   *int   `json:"days,omitempty" minimum:"0" doc:"History window in days (default 30), 0 for maximum history"`
	Sample int    `json:"sample,omitempty" minimum:"0" doc:"Point budget; defaults to the window's recommended sample"`
}

type createSessionInput struct {
	Body struct {
		seriesParams
		Type   string  `json:"type,omitempty" enum:"line,area,candlestick"`
		Volume *bool   `json:"volume,omitempty" doc:"Show the volume panel (default true)"`
		Width  float64 `json:"width,omitempty" minimum:"0" maximum:"16384"`
		Height float64 `json:"height,omitempty" minimum:"0" maximum:"16384"`
	}
}

type resizeInput struct {
	ID   string `path:"id"`
	Body struct {
		Width  float64 `json:"width" minimum:"0" maximum:"16384"`
		Height float64 `json:"height" minimum:"0" maximum:"16384"`
	}
}

type pointerInput struct {
	ID   string `path:"id"`
	Body chart.Point
}

type configInput struct {
	ID   string `path:"id"`
	Body struct {
		Type   string  `json:"type,omitempty" enum:"line,area,candlestick"`
		Volume *bool   `json:"volume,omitempty"`
		Height float64 `json:"height,omitempty" minimum:"0" maximum:"16384"`
	}
}

type loadInput struct {
	ID   string `path:"id"`
	Body seriesParams
}

type sessionBody struct {
	ID      string      `json:"id"`
	Redrawn bool        `json:"redrawn"`
	Frame   chart.Frame `json:"frame"`
}

type sessionOutput struct {
	Body sessionBody
}

func registerSessionOperations(api huma.API, h *Handler) {
	tags := []string{"Chart sessions"}

	huma.Register(api, huma.Operation{OperationID: "create-chart-session", Method: http.MethodPost, Path: "/api/chart/sessions", Summary: "Open a chart session and load its data", Tags: tags, DefaultStatus: http.StatusCreated},
		func(ctx context.Context, input *createSessionInput) (*sessionOutput, error) {
			b := input.Body
			ct, err := chart.ParseChartType(b.Type)
			if err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}
			cfg := chart.RenderConfig{
				Height:     orDefault(b.Height, float64(h.cfg.Chart.Height)),
				ShowVolume: b.Volume == nil || *b.Volume,
				ChartType:  ct,
			}
			size := chart.CanvasSize{Width: orDefault(b.Width, float64(h.cfg.Chart.Width)), Height: cfg.Height}
			if err := h.checkCanvas(size); err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}

			id, err := h.app.CreateSession(ctx, cfg, size, b.seriesParams.request())
			if err != nil {
				return nil, mapErr(err, msgChartFailed)
			}
			return h.sessionResult(id, true)
		})

	huma.Register(api, huma.Operation{OperationID: "get-chart-session", Method: http.MethodGet, Path: "/api/chart/sessions/{id}", Summary: "Current frame of a chart session", Tags: tags},
		func(ctx context.Context, input *sessionIDInput) (*sessionOutput, error) {
			return h.sessionResult(input.ID, false)
		})

	huma.Register(api, huma.Operation{OperationID: "resize-chart-session", Method: http.MethodPost, Path: "/api/chart/sessions/{id}/resize", Summary: "Resize the chart container", Tags: tags},
		func(ctx context.Context, input *resizeInput) (*sessionOutput, error) {
			size := chart.CanvasSize{Width: input.Body.Width, Height: input.Body.Height}
			if err := h.checkCanvas(size); err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}
			return h.sessionEvent(input.ID, func(s *chart.Session) bool { return s.Resize(size) })
		})

	huma.Register(api, huma.Operation{OperationID: "move-chart-pointer", Method: http.MethodPost, Path: "/api/chart/sessions/{id}/pointer", Summary: "Move the pointer over the chart", Tags: tags},
		func(ctx context.Context, input *pointerInput) (*sessionOutput, error) {
			return h.sessionEvent(input.ID, func(s *chart.Session) bool { return s.PointerMove(input.Body) })
		})

	huma.Register(api, huma.Operation{OperationID: "leave-chart-pointer", Method: http.MethodPost, Path: "/api/chart/sessions/{id}/leave", Summary: "Pointer left the chart", Tags: tags},
		func(ctx context.Context, input *sessionIDInput) (*sessionOutput, error) {
			return h.sessionEvent(input.ID, func(s *chart.Session) bool { return s.PointerLeave() })
		})

	huma.Register(api, huma.Operation{OperationID: "configure-chart-session", Method: http.MethodPost, Path: "/api/chart/sessions/{id}/config", Summary: "Change chart type, volume panel or height", Tags: tags},
		func(ctx context.Context, input *configInput) (*sessionOutput, error) {
			if err := h.checkCanvas(chart.CanvasSize{Height: input.Body.Height}); err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}
			var parseErr error
			out, err := h.sessionEvent(input.ID, func(s *chart.Session) bool {
				cfg := s.Config()
				if input.Body.Type != "" {
					ct, err := chart.ParseChartType(input.Body.Type)
					if err != nil {
						parseErr = err
						return false
					}
					cfg.ChartType = ct
				}
				if input.Body.Volume != nil {
					cfg.ShowVolume = *input.Body.Volume
				}
				if input.Body.Height > 0 {
					cfg.Height = input.Body.Height
				}
				return s.SetConfig(cfg)
			})
			if parseErr != nil {
				return nil, huma.Error400BadRequest(parseErr.Error())
			}
			return out, err
		})

	huma.Register(api, huma.Operation{OperationID: "load-chart-session", Method: http.MethodPost, Path: "/api/chart/sessions/{id}/load", Summary: "Load a new symbol or window into a session", Tags: tags},
		func(ctx context.Context, input *loadInput) (*sessionOutput, error) {
			applied, err := h.app.LoadSession(ctx, input.ID, input.Body.request())
			if err != nil {
				return nil, mapErr(err, msgChartFailed)
			}
			return h.sessionResult(input.ID, applied)
		})

	huma.Register(api, huma.Operation{OperationID: "delete-chart-session", Method: http.MethodDelete, Path: "/api/chart/sessions/{id}", Summary: "Close a chart session", Tags: tags},
		func(ctx context.Context, input *sessionIDInput) (*struct{}, error) {
			if !h.app.CloseSession(input.ID) {
				return nil, mapErr(chart.ErrSessionNotFound, "")
			}
			return &struct{}{}, nil
		})
}

// sessionEvent applies one input event under the session lock
func (h *Handler) sessionEvent(id string, event func(*chart.Session) bool) (*sessionOutput, error) {
	out := &sessionOutput{}
	err := h.app.Charts().With(id, func(s *chart.Session) error {
		out.Body = sessionBody{ID: s.ID, Redrawn: event(s), Frame: s.Frame()}
		return nil
	})
	if err != nil {
		return nil, mapErr(err, msgChartFailed)
	}
	return out, nil
}

func (h *Handler) sessionResult(id string, redrawn bool) (*sessionOutput, error) {
	out, err := h.sessionEvent(id, func(*chart.Session) bool { return false })
	if err != nil {
		return nil, err
	}
	out.Body.Redrawn = redrawn
	return out, nil
}

func (p seriesParams) request() app.SeriesRequest {
	symbol := strings.ToUpper(strings.TrimSpace(p.Symbol))
	days := market.DefaultDays
	if p.Days != nil {
		days = *p.Days
	}
	return app.SeriesRequest{
		Symbol: symbol,
		Asset:  assetFor(symbol, p.Asset),
		Days:   days,
		Sample: sampleFor(days, p.Sample),
	}
}

// assetFor honours an explicit asset class, else infers crypto from the symbol
func assetFor(symbol, asset string) models.AssetClass {
	switch models.AssetClass(strings.ToLower(asset)) {
	case models.AssetStock:
		return models.AssetStock
	case models.AssetCrypto:
		return models.AssetCrypto
	}
	if services.IsCryptoSymbol(symbol) {
		return models.AssetCrypto
	}
	return models.AssetStock
}

func sampleFor(days, sample int) int {
	if sample > 0 {
		return sample
	}
	return market.RecommendedSample(days)
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
