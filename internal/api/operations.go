package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"finance-dashboard/internal/market"
	"finance-dashboard/internal/news"
	"finance-dashboard/models"
	"finance-dashboard/observability"
)

type marketInput struct {
	Symbol  string `query:"symbol" doc:"Ticker symbol, e.g. AAPL or BTC-USD"`
	Days    int    `query:"days" default:"30" minimum:"0" doc:"History window in days, 0 for maximum history"`
	Sample  int    `query:"sample" minimum:"0" doc:"Maximum number of history points, 0 keeps every point"`
	Refresh bool   `query:"refresh" doc:"Bypass the quote and history cache"`
}

type marketOutput struct {
	Body *market.Result
}

type directoryInput struct {
	Page   int    `query:"page" default:"1"`
	Search string `query:"search" doc:"Case-insensitive match on symbol or name"`
	Limit  int    `query:"limit" default:"20"`
}

type stocksOutput struct {
	Body struct {
		Stocks  []models.DirectoryEntry `json:"stocks"`
		Total   int                     `json:"total"`
		Page    int                     `json:"page"`
		Limit   int                     `json:"limit"`
		HasMore bool                    `json:"hasMore"`
	}
}

type cryptosOutput struct {
	Body struct {
		Cryptos []models.DirectoryEntry `json:"cryptos"`
		Total   int                     `json:"total"`
		Page    int                     `json:"page"`
		Limit   int                     `json:"limit"`
		HasMore bool                    `json:"hasMore"`
	}
}

type newsInput struct {
	Symbol    string `query:"symbol"`
	Page      int    `query:"page" default:"1"`
	Limit     int    `query:"limit" default:"10"`
	Sentiment string `query:"sentiment" doc:"POSITIVE or NEGATIVE; anything else returns all articles"`
}

type newsOutput struct {
	Body *models.NewsPage
}

type timeframesOutput struct {
	Body struct {
		Timeframes []market.Timeframe `json:"timeframes"`
		Default    string             `json:"default"`
	}
}

func registerMarketOperations(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{OperationID: "get-stock", Method: http.MethodGet, Path: "/api/stock", Summary: "Stock quote and price history", Tags: []string{"Market"}},
		h.marketHandler(models.AssetStock, msgStockFailed))

	huma.Register(api, huma.Operation{OperationID: "get-crypto", Method: http.MethodGet, Path: "/api/crypto", Summary: "Cryptocurrency quote and price history", Tags: []string{"Market"}},
		h.marketHandler(models.AssetCrypto, msgCryptoFailed))

	huma.Register(api, huma.Operation{OperationID: "list-stocks", Method: http.MethodGet, Path: "/api/stocks", Summary: "Browse and search stocks", Tags: []string{"Directory"}},
		func(ctx context.Context, input *directoryInput) (*stocksOutput, error) {
			p := h.app.Stocks().Search(input.Search, input.Page, input.Limit)
			out := &stocksOutput{}
			out.Body.Stocks = p.Entries
			out.Body.Total, out.Body.Page, out.Body.Limit, out.Body.HasMore = p.Total, p.Page, p.Limit, p.HasMore
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "list-cryptos", Method: http.MethodGet, Path: "/api/cryptos", Summary: "Browse and search cryptocurrencies", Tags: []string{"Directory"}},
		func(ctx context.Context, input *directoryInput) (*cryptosOutput, error) {
			p := h.app.Cryptos().Search(input.Search, input.Page, input.Limit)
			out := &cryptosOutput{}
			out.Body.Cryptos = p.Entries
			out.Body.Total, out.Body.Page, out.Body.Limit, out.Body.HasMore = p.Total, p.Page, p.Limit, p.HasMore
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "list-timeframes", Method: http.MethodGet, Path: "/api/timeframes", Summary: "Chart timeframe presets", Tags: []string{"Market"}},
		func(ctx context.Context, input *struct{}) (*timeframesOutput, error) {
			out := &timeframesOutput{}
			out.Body.Timeframes = market.Timeframes()
			out.Body.Default = "1M"
			return out, nil
		})
}

func registerNewsOperations(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{OperationID: "get-news", Method: http.MethodGet, Path: "/api/news", Summary: "Paginated news with sentiment filter", Tags: []string{"News"}},
		func(ctx context.Context, input *newsInput) (*newsOutput, error) {
			page, err := h.app.News(input.Symbol, news.Query{Page: input.Page, Limit: input.Limit, Sentiment: input.Sentiment})
			if err != nil {
				err = newsErr(strings.ToUpper(strings.TrimSpace(input.Symbol)), err)
				mapped := mapErr(err, msgNewsFailed)
				if se, ok := mapped.(huma.StatusError); ok && se.GetStatus() >= http.StatusInternalServerError {
					observability.WithContext(ctx).Error("news lookup failed", "symbol", input.Symbol, "error", err)
				}
				return nil, mapped
			}
			return &newsOutput{Body: page}, nil
		})
}

// marketHandler serves one asset class. Upstream failures collapse into the
// asset's generic message; details only go to the log.
func (h *Handler) marketHandler(asset models.AssetClass, failure string) func(context.Context, *marketInput) (*marketOutput, error) {
	return func(ctx context.Context, input *marketInput) (*marketOutput, error) {
		if strings.TrimSpace(input.Symbol) == "" {
			return nil, huma.Error400BadRequest(msgSymbolRequired)
		}

		res, err := h.app.Market(ctx, market.Request{
			Symbol:  input.Symbol,
			Asset:   asset,
			Days:    input.Days,
			Sample:  input.Sample,
			Refresh: input.Refresh,
		})
		if err != nil {
			observability.WithSymbol(input.Symbol).Error(failure, "asset", asset, "error", err)
			return nil, huma.Error500InternalServerError(failure)
		}
		return &marketOutput{Body: res}, nil
	}
}
