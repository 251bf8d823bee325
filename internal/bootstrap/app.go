// Package bootstrap assembles the application from configuration and manages
// its lifecycle.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"risk_guard/internal/alert"
	"risk_guard/internal/checks"
	"risk_guard/internal/config"
	"risk_guard/internal/core"
	"risk_guard/internal/evaluator"
	"risk_guard/internal/feed"
	"risk_guard/internal/fees"
	"risk_guard/internal/infrastructure/health"
	"risk_guard/internal/infrastructure/server"
	"risk_guard/internal/market"
	"risk_guard/internal/position"
	"risk_guard/internal/risk"
	"risk_guard/internal/settings"
	"risk_guard/pkg/concurrency"
	"risk_guard/pkg/telemetry"
)

// App holds the assembled application.
type App struct {
	Cfg    *Config
	Logger core.ILogger

	Symbols   map[string]market.Symbol
	Settings  core.ISettingsProvider
	Positions *position.Manager
	Stops     *position.StopBook
	Account   *position.AccountState
	Evaluator *evaluator.Evaluator
	Notifier  *alert.VetoNotifier

	telemetry      *telemetry.Telemetry
	stream         *feed.StreamSource
	apiServer      *server.APIServer
	pool           *concurrency.WorkerPool
	settingsCloser func() error
}

// NewApp creates a new App instance by bootstrapping all dependencies.
func NewApp(configPath string) (*App, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	tel, err := telemetry.Setup("risk_guard")
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	logger, err := InitLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	app := &App{Cfg: cfg, Logger: logger, telemetry: tel}
	if err := app.build(); err != nil {
		return nil, err
	}
	return app, nil
}

func (a *App) build() error {
	symbols, err := buildSymbols(a.Cfg.Symbols)
	if err != nil {
		return err
	}
	a.Symbols = symbols

	provider, closer, err := buildSettings(a.Cfg.Settings)
	if err != nil {
		return err
	}
	a.Settings = provider
	a.settingsCloser = closer

	a.Positions = position.NewManager(a.Logger)
	a.Stops = position.NewStopBook()
	a.Account = position.NewAccountState()

	rest := feed.NewRESTSource(
		a.Cfg.Feed.RESTBaseURL,
		time.Duration(a.Cfg.Feed.TimeoutSeconds)*time.Second,
		symbols,
		a.Logger,
	)
	var tickers core.ITickerSource = rest
	if a.Cfg.Feed.WebsocketURL != "" {
		a.stream = feed.NewStreamSource(a.Cfg.Feed.WebsocketURL, rest, symbols, a.Logger)
		tickers = a.stream
	}

	estimator := risk.NewIsolatedMarginEstimator(
		decimal.NewFromFloat(a.Cfg.Risk.MaintenanceMarginRate))
	costs := fees.NewCalculator(provider)
	factory := checks.NewStateFactory(a.Positions, a.Account)

	pipeline := checks.NewPipeline(
		checks.Policy(a.Cfg.Checks.Policy),
		a.Logger,
		checks.NewContractBalanceCheck(a.Account, a.Logger),
		checks.NewAveragePriceCheck(a.Positions, provider, a.Logger),
		checks.NewFixationGuardCheck(a.Stops, a.Positions, a.Logger),
		checks.NewBuyLiquidationCheck(factory, estimator, costs, provider, a.Logger),
		checks.NewStopMainLiquidationCheck(factory, estimator, costs, provider, a.Logger),
	)

	a.pool = concurrency.NewWorkerPool(concurrency.PoolConfig{
		Name:        "evaluator",
		MaxWorkers:  a.Cfg.Concurrency.EvaluatorPoolSize,
		MaxCapacity: a.Cfg.Concurrency.EvaluatorPoolBuffer,
	}, a.Logger)
	a.Evaluator = evaluator.NewEvaluator(pipeline, tickers, a.pool, a.Logger)

	if a.Cfg.Alerts.Enabled {
		manager := alert.NewAlertManager(a.Logger)
		if a.Cfg.Alerts.SlackWebhookURL != "" {
			manager.AddChannel(alert.NewSlackChannel(string(a.Cfg.Alerts.SlackWebhookURL)))
		}
		if a.Cfg.Alerts.TelegramBotToken != "" {
			manager.AddChannel(alert.NewTelegramChannel(
				string(a.Cfg.Alerts.TelegramBotToken), a.Cfg.Alerts.TelegramChatID))
		}
		a.Notifier = alert.NewVetoNotifier(manager)
	}

	hm := health.NewHealthManager(a.Logger)
	hm.Register("settings", func() error {
		_, err := provider.String("", "", core.SettingRiskLevel)
		return err
	})

	var notifier server.VerdictNotifier
	if a.Notifier != nil {
		notifier = a.Notifier
	}
	a.apiServer = server.NewAPIServer(
		strconv.Itoa(a.Cfg.Telemetry.MetricsPort), a.Evaluator, symbols, hm, notifier, a.Logger)

	return nil
}

func buildSymbols(configs []config.SymbolConfig) (map[string]market.Symbol, error) {
	symbols := make(map[string]market.Symbol, len(configs))
	for _, sc := range configs {
		sym := market.Symbol{
			Name:           sc.Name,
			PricePrecision: sc.PricePrecision,
			QuoteCoin:      sc.QuoteCoin,
			MinLeverage:    decimal.NewFromInt(int64(sc.MinLeverage)),
			MaxLeverage:    decimal.NewFromInt(int64(sc.MaxLeverage)),
		}
		var err error
		if sym.TickSize, err = parseOptionalDecimal(sc.TickSize); err != nil {
			return nil, fmt.Errorf("symbol %s: bad tick_size: %w", sc.Name, err)
		}
		if sym.MinOrderQty, err = parseOptionalDecimal(sc.MinOrderQty); err != nil {
			return nil, fmt.Errorf("symbol %s: bad min_order_qty: %w", sc.Name, err)
		}
		if sym.MinNotional, err = parseOptionalDecimal(sc.MinNotional); err != nil {
			return nil, fmt.Errorf("symbol %s: bad min_notional: %w", sc.Name, err)
		}
		symbols[sc.Name] = sym
	}
	return symbols, nil
}

func parseOptionalDecimal(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func buildSettings(cfg config.SettingsConfig) (core.ISettingsProvider, func() error, error) {
	switch cfg.Source {
	case "sqlite":
		source, err := settings.NewSQLiteSource(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("settings db: %w", err)
		}
		return settings.NewProvider(source, "sqlite"), source.Close, nil
	default:
		source := settings.NewStaticSource(cfg.Entries)
		return settings.NewProvider(source, "static"), nil, nil
	}
}

// Runner is an interface for components that can be run and stopped gracefully.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Runners returns the long-running components of the assembled application.
func (a *App) Runners() []Runner {
	runners := []Runner{
		RunnerFunc(func(ctx context.Context) error {
			a.apiServer.Start()
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return a.apiServer.Stop(shutdownCtx)
		}),
	}
	if a.stream != nil {
		runners = append(runners, RunnerFunc(func(ctx context.Context) error {
			a.stream.Start()
			<-ctx.Done()
			a.stream.Stop()
			return nil
		}))
	}
	return runners
}

// Close releases resources after Run returns.
func (a *App) Close() error {
	a.pool.Stop()
	if a.settingsCloser != nil {
		if err := a.settingsCloser(); err != nil {
			a.Logger.Error("Settings source close failed", "error", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.telemetry.Shutdown(ctx)
}

// Run orchestrates the application lifecycle, including signal handling.
func (a *App) Run(runners ...Runner) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	a.Logger.Info("Starting application")

	for _, runner := range runners {
		r := runner
		g.Go(func() error {
			return r.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		a.Logger.Error("Application stopped with error", "error", err)
		return err
	}

	a.Logger.Info("Application shut down gracefully")
	return nil
}
