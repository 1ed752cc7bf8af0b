package app

import (
	"context"
	"fmt"
	"strings"

	"finance-dashboard/config"
	"finance-dashboard/internal/chart"
	"finance-dashboard/internal/directory"
	"finance-dashboard/internal/market"
	"finance-dashboard/internal/news"
	"finance-dashboard/internal/scheduler"
	"finance-dashboard/models"
	"finance-dashboard/observability"
	"finance-dashboard/services"
)

// MarketService defines the quote and history operations needed by App
type MarketService interface {
	Get(ctx context.Context, req market.Request) (*market.Result, error)
}

// NewsStore defines the news operations needed by App
type NewsStore interface {
	Page(symbol string, q news.Query) (*models.NewsPage, error)
	Symbols() []string
}

// App struct holds application dependencies using interfaces for testability
type App struct {
	cfg       *config.Config
	market    MarketService
	news      NewsStore
	stocks    *directory.Directory
	cryptos   *directory.Directory
	charts    *chart.Registry
	scheduler *scheduler.Scheduler
}

// SeriesRequest selects the data drawn by a chart
type SeriesRequest struct {
	Symbol string
	Asset  models.AssetClass
	Days   int
	Sample int
}

// Key identifies the request for stale-load detection
func (r SeriesRequest) Key() string {
	return fmt.Sprintf("%s|%s|%d|%d", r.Asset, r.Symbol, r.Days, r.Sample)
}

// NewProviders builds the stock and crypto upstreams named by the config
func NewProviders(cfg *config.Config) (stocks, cryptos services.MarketDataProvider, err error) {
	build := func(name string) (services.MarketDataProvider, error) {
		switch name {
		case config.ProviderYahoo:
			return services.NewYahooService(cfg.Yahoo.BaseURL, cfg.Yahoo.UserAgent), nil
		case config.ProviderAlpaca:
			if !cfg.HasAlpaca() {
				return nil, fmt.Errorf("alpaca provider requires API credentials")
			}
			return services.NewAlpacaService(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL), nil
		case config.ProviderFixture:
			return services.NewFixtureService(cfg.Provider.FixtureDir), nil
		}
		return nil, fmt.Errorf("unknown provider %q", name)
	}

	if stocks, err = build(cfg.Provider.Stock); err != nil {
		return nil, nil, fmt.Errorf("stock provider: %w", err)
	}
	if cfg.Provider.Crypto == cfg.Provider.Stock {
		return stocks, stocks, nil
	}
	if cryptos, err = build(cfg.Provider.Crypto); err != nil {
		return nil, nil, fmt.Errorf("crypto provider: %w", err)
	}
	return stocks, cryptos, nil
}

// New creates the application over the given upstreams
func New(cfg *config.Config, stocks, cryptos services.MarketDataProvider) (*App, error) {
	stockDir, err := directory.Stocks()
	if err != nil {
		return nil, err
	}
	cryptoDir, err := directory.Cryptos()
	if err != nil {
		return nil, err
	}

	svc := market.NewService(market.Config{
		Stocks:         stocks,
		Cryptos:        cryptos,
		CacheTTL:       cfg.CacheTTL(),
		MaxConcurrency: cfg.Market.MaxConcurrency,
	})
	store := news.NewStore(cfg.News.Dir)
	charts := chart.NewRegistry(cfg.SessionIdleTTL(), cfg.Chart.MaxSessions)

	a := &App{
		cfg:     cfg,
		market:  svc,
		news:    store,
		stocks:  stockDir,
		cryptos: cryptoDir,
		charts:  charts,
	}

	if cfg.Scheduler.Enabled {
		a.scheduler = scheduler.NewScheduler(svc.Cache(), charts, store)
		err := a.scheduler.RegisterAll(scheduler.Specs{
			CacheSweep:   cfg.Scheduler.CacheSweepSpec,
			SessionSweep: cfg.Scheduler.SessionSweepSpec,
			NewsReload:   cfg.Scheduler.NewsReloadSpec,
		})
		if err != nil {
			return nil, err
		}
	}

	return a, nil
}

// NewWithServices creates an App around prebuilt collaborators (for testing)
func NewWithServices(cfg *config.Config, svc MarketService, store NewsStore) *App {
	stockDir, _ := directory.Stocks()
	cryptoDir, _ := directory.Cryptos()
	return &App{
		cfg:     cfg,
		market:  svc,
		news:    store,
		stocks:  stockDir,
		cryptos: cryptoDir,
		charts:  chart.NewRegistry(cfg.SessionIdleTTL(), cfg.Chart.MaxSessions),
	}
}

// Startup is called when the app starts
func (a *App) Startup(ctx context.Context) {
	if a.scheduler != nil {
		a.scheduler.Start()
	}
}

// Shutdown is called when the app is closing
func (a *App) Shutdown(ctx context.Context) {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
}

// Config returns the application configuration
func (a *App) Config() *config.Config {
	return a.cfg
}

// Market returns quote and history for a symbol
func (a *App) Market(ctx context.Context, req market.Request) (*market.Result, error) {
	if strings.TrimSpace(req.Symbol) == "" {
		return nil, market.ErrSymbolRequired
	}
	return a.market.Get(ctx, req)
}

// Series returns just the history drawn by the chart endpoints. A crypto
// history failure yields an empty series, which renders as "No data".
func (a *App) Series(ctx context.Context, req SeriesRequest) (models.Series, error) {
	res, err := a.Market(ctx, market.Request{
		Symbol: req.Symbol,
		Asset:  req.Asset,
		Days:   req.Days,
		Sample: req.Sample,
	})
	if err != nil {
		return nil, err
	}
	return res.History, nil
}

// News returns one page of a symbol's news
func (a *App) News(symbol string, q news.Query) (*models.NewsPage, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, market.ErrSymbolRequired
	}
	page, err := a.news.Page(symbol, q)
	if err != nil {
		return nil, err
	}
	observability.GetMetrics().RecordNewsRequest(page.Symbol, page.Sentiment)
	return page, nil
}

// NewsSymbols lists symbols with a news feed
func (a *App) NewsSymbols() []string {
	return a.news.Symbols()
}

// Stocks returns the browsable stock directory
func (a *App) Stocks() *directory.Directory {
	return a.stocks
}

// Cryptos returns the browsable crypto directory
func (a *App) Cryptos() *directory.Directory {
	return a.cryptos
}

// Charts returns the chart session registry
func (a *App) Charts() *chart.Registry {
	return a.charts
}

// CreateSession opens a chart session and loads its first series
func (a *App) CreateSession(ctx context.Context, cfg chart.RenderConfig, size chart.CanvasSize, req SeriesRequest) (string, error) {
	s, err := a.charts.Create(cfg, size)
	if err != nil {
		return "", err
	}
	observability.GetMetrics().SetChartSessions(a.charts.Len())
	observability.WithSession(s.ID).Debug("chart session created", "symbol", req.Symbol)

	if _, err := a.LoadSession(ctx, s.ID, req); err != nil {
		a.CloseSession(s.ID)
		return "", err
	}
	return s.ID, nil
}

// LoadSession fetches a series for a session. The session lock is not held
// during the fetch; a load superseded by a newer one is discarded. It reports
// whether the series was applied.
func (a *App) LoadSession(ctx context.Context, id string, req SeriesRequest) (bool, error) {
	var ticket chart.Ticket
	err := a.charts.With(id, func(s *chart.Session) error {
		ticket = s.BeginLoad(req.Key())
		return nil
	})
	if err != nil {
		return false, err
	}

	series, err := a.Series(ctx, req)
	if err != nil {
		return false, err
	}

	applied := false
	err = a.charts.With(id, func(s *chart.Session) error {
		applied = s.CompleteLoad(ticket, series)
		return nil
	})
	if err == nil && !applied {
		observability.WithSession(id).Debug("discarded stale chart load", "key", ticket.Key)
	}
	return applied, err
}

// CloseSession removes a chart session
func (a *App) CloseSession(id string) bool {
	ok := a.charts.Delete(id)
	observability.GetMetrics().SetChartSessions(a.charts.Len())
	return ok
}
