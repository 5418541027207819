package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mvolkov/spreadbot/internal/arbitrage"
	"github.com/mvolkov/spreadbot/internal/config"
	"github.com/mvolkov/spreadbot/internal/domain"
	"github.com/mvolkov/spreadbot/internal/engine"
	"github.com/mvolkov/spreadbot/internal/exchange"
	"github.com/mvolkov/spreadbot/internal/feed"
	"github.com/mvolkov/spreadbot/internal/server"
	"github.com/mvolkov/spreadbot/internal/trader"
)

// MonitorMode runs price feeds, spread detection, notifications, and the
// HTTP API without any order execution.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")
	return a.runPipeline(ctx, deps, nil)
}

// TradeMode runs everything monitor mode does plus the auto-trade loop:
// strategies are reloaded periodically and fresh opportunities are matched
// and executed against user credentials.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting trade mode")

	if !a.cfg.Trading.Enabled {
		return fmt.Errorf("app: mode is trade but trading.enabled is false")
	}

	bybitREST := "https://api.bybit.com"
	for _, exCfg := range a.cfg.Exchanges {
		if strings.EqualFold(exCfg.Name, "Bybit") && exCfg.RestSpotURL != "" {
			bybitREST = exCfg.RestSpotURL
		}
	}
	adapters := trader.NewAdapters(
		exchange.NewBinanceOrderAdapter("https://api.binance.com"),
		exchange.NewBybitOrderAdapter(bybitREST),
	)
	locks := trader.NewExecLocks()
	executor := trader.NewExecutor(
		locks,
		deps.CredentialStore,
		adapters,
		deps.TradeStore,
		deps.Notifier,
		a.cfg.Trading.RiskFraction,
		a.cfg.Trading.HardCapUSD,
		a.logger,
	)
	t := trader.New(executor, deps.StrategyStore, a.cfg.Trading.StrategyReloadInterval.Duration, a.logger)

	return a.runPipeline(ctx, deps, t)
}

// runPipeline builds the shared detection pipeline (connectors, feeds,
// analyzer, engine, HTTP server) and blocks until the context is cancelled.
// A nil trader disables order execution.
func (a *App) runPipeline(ctx context.Context, deps *Dependencies, t *trader.Trader) error {
	board := feed.NewBoard(a.cfg.Arbitrage.StalenessThreshold.Duration)
	supervisor := feed.NewSupervisor(board, a.logger)

	streams := 0
	for _, exCfg := range a.cfg.Exchanges {
		if exCfg.Disabled {
			continue
		}
		conn, err := buildConnector(exCfg)
		if err != nil {
			a.logger.WarnContext(ctx, "skipping exchange",
				slog.String("exchange", exCfg.Name),
				slog.String("error", err.Error()),
			)
			continue
		}

		for _, market := range domain.MarketTypes {
			symbols, err := a.discoverSymbols(ctx, deps, conn, market)
			if err != nil {
				a.logger.WarnContext(ctx, "symbol discovery failed",
					slog.String("exchange", conn.Name()),
					slog.String("market", string(market)),
					slog.String("error", err.Error()),
				)
				continue
			}
			supervisor.AddStream(conn, market, symbols)
			streams++
			a.logger.InfoContext(ctx, "stream registered",
				slog.String("exchange", conn.Name()),
				slog.String("market", string(market)),
				slog.Int("symbols", len(symbols)),
			)
		}
	}
	if streams < 2 {
		return fmt.Errorf("app: only %d price stream(s) available, need at least two exchanges", streams)
	}

	analyzer := arbitrage.NewAnalyzer(a.cfg.Arbitrage.MinProfitPercentage)
	oppStore := arbitrage.NewStore(a.cfg.Arbitrage.OpportunityTTL.Duration)
	gate := engine.NewCooldownGate(
		deps.CooldownStore,
		a.cfg.Cooldown.Spot.Duration,
		a.cfg.Cooldown.Futures.Duration,
		a.logger,
	)

	var dispatcher engine.Dispatcher
	if t != nil {
		dispatcher = t
	}
	eng := engine.New(
		board,
		analyzer,
		oppStore,
		gate,
		deps.Notifier,
		dispatcher,
		a.cfg.Arbitrage.TickInterval.Duration,
		a.cfg.Arbitrage.NotifyProfitPercentage,
		a.logger,
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return supervisor.Run(ctx)
	})
	g.Go(func() error {
		return eng.Run(ctx)
	})
	if t != nil {
		g.Go(func() error {
			return t.Run(ctx)
		})
	}

	if a.cfg.Server.Enabled {
		srv := server.NewServer(server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
		}, server.NewHandler(oppStore), a.logger)

		g.Go(func() error {
			return srv.Start()
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: pipeline: %w", err)
	}
	return nil
}

// buildConnector constructs the websocket connector for a configured
// exchange.
func buildConnector(cfg config.ExchangeConfig) (exchange.Connector, error) {
	switch strings.ToLower(cfg.Name) {
	case "bybit":
		return exchange.NewBybitConnector(cfg.WSSpotURL, cfg.WSFuturesURL, cfg.RestSpotURL), nil
	case "okx":
		return exchange.NewOKXConnector(cfg.WSSpotURL, cfg.RestSpotURL), nil
	default:
		return nil, fmt.Errorf("app: no connector for exchange %q", cfg.Name)
	}
}

// discoverSymbols resolves the tradable pair list for an exchange and
// market, consulting the Redis pairs cache before hitting the exchange REST
// API. Cache failures fall through to live discovery.
func (a *App) discoverSymbols(ctx context.Context, deps *Dependencies, conn exchange.Connector, market domain.MarketType) ([]string, error) {
	if deps.PairsCache != nil {
		cached, err := deps.PairsCache.Get(ctx, conn.Name(), market)
		if err == nil && len(cached) > 0 {
			return cached, nil
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			a.logger.DebugContext(ctx, "pairs cache read failed",
				slog.String("exchange", conn.Name()),
				slog.String("error", err.Error()),
			)
		}
	}

	raw, err := conn.Symbols(ctx, market)
	if err != nil {
		return nil, err
	}
	symbols := exchange.FilterSymbols(raw, a.cfg.Arbitrage.SymbolBlacklist)

	if deps.PairsCache != nil && len(symbols) > 0 {
		if err := deps.PairsCache.Set(ctx, conn.Name(), market, symbols); err != nil {
			a.logger.DebugContext(ctx, "pairs cache write failed",
				slog.String("exchange", conn.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
	return symbols, nil
}
