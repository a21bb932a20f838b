package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fundguard/internal/balance"
	"fundguard/internal/chain"
	"fundguard/internal/chain/solana"
	"fundguard/internal/config"
	"fundguard/internal/engine"
	"fundguard/internal/feed"
	"fundguard/internal/gasfee"
	"fundguard/internal/logger"
	"fundguard/internal/models"
	"fundguard/internal/snapshot"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const defaultGasCacheTTL = 10 * time.Minute

type App struct {
	cfg      *config.Config
	log      *logger.Logger
	Store    *snapshot.Store
	Engine   *engine.Engine
	Registry *prometheus.Registry
	closers  []func()
}

func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{
		cfg:      cfg,
		log:      log,
		Store:    snapshot.NewStore(),
		Registry: prometheus.NewRegistry(),
	}

	oracle := gasfee.NewOracle(gasCacheTTL(cfg.Chains), log)
	router := balance.NewRouter()
	infos := make([]chain.Info, 0, len(cfg.Chains))

	for _, ch := range cfg.Chains {
		fallback, err := ch.DefaultFee()
		if err != nil {
			a.Close()
			return nil, err
		}

		switch ch.Network {
		case models.NetworkEVM:
			client, err := ethclient.DialContext(ctx, ch.RPCURL)
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("Не удалось подключиться к RPC сети %d: %w", ch.ID, err)
			}
			a.closers = append(a.closers, client.Close)
			oracle.Register(ch.ID, gasfee.NewEVMSource(client, ch.GasLimit, ch.GasBufferPercent), fallback)
			router.Register(ch.ID, balance.NewEVMFetcher(client))
		case models.NetworkSVM:
			client := solana.New(ch.RPCURL, log)
			oracle.Register(ch.ID, gasfee.NewSVMSource(client, ch.ComputeUnitLimit, ch.Signatures, ch.GasBufferPercent, ch.FeeAccounts), fallback)
			router.Register(ch.ID, balance.NewSVMFetcher(client))
		}

		infos = append(infos, chainInfo(ch))
		log.WithChain(ch.ID).WithField("network", ch.Network).Info("Сеть подключена.")
	}

	a.Engine = engine.New(engine.Config{
		Interval:     cfg.Runtime.Interval,
		FetchTimeout: cfg.Runtime.FetchTimeout,
		Retries:      cfg.Runtime.Retries,
		RetryBackoff: cfg.Runtime.RetryBackoff,
		Concurrency:  cfg.Runtime.Concurrency,
		TradeFeeBps:  cfg.Reserve.TradeFeeBps,
	}, infos, oracle, router, engine.NewMetrics(a.Registry), log)

	if cfg.Snapshot.File != "" {
		if err := snapshot.LoadInto(a.Store, cfg.Snapshot.File); err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

// Run работает до отмены ctx: слежение за снапшотом, лента, метрики и движок.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Snapshot.Watch && a.cfg.Snapshot.File != "" {
		g.Go(func() error {
			return snapshot.Watch(ctx, a.Store, a.cfg.Snapshot.File, a.log)
		})
	}

	if a.cfg.Feed.Enabled {
		client := feed.New(a.cfg.Feed.WSUrl, a.cfg.Feed.ApiKey, a.cfg.Feed.Secret, a.log)
		if err := client.Connect(ctx); err != nil {
			return err
		}
		defer client.Close()
		if err := client.Subscribe(walletIDs(a.Store.Current())); err != nil {
			return err
		}
		g.Go(func() error {
			feed.Pump(ctx, client.Events(), a.Store, a.log)
			return nil
		})
	}

	if a.cfg.Runtime.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              a.cfg.Runtime.MetricsAddr,
			Handler:           a.metricsHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			a.log.WithComponent("metrics").WithField("addr", srv.Addr).Info("Метрики доступны.")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("Сервер метрик: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		return a.Engine.Start(ctx, a.Store)
	})

	return g.Wait()
}

func (a *App) Check(ctx context.Context) (*engine.Report, error) {
	return a.Engine.Validate(ctx, a.Store.Current())
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
	return mux
}

func chainInfo(ch config.ChainConfig) chain.Info {
	decimals := ch.NativeDecimals
	if decimals == 0 {
		decimals = models.DefaultNativeDecimals
		if ch.Network == models.NetworkSVM {
			decimals = 9
		}
	}
	return chain.Info{
		ID:             ch.ID,
		Network:        ch.Network,
		NativeSymbol:   ch.NativeSymbol,
		NativeDecimals: decimals,
	}
}

func gasCacheTTL(chains []config.ChainConfig) time.Duration {
	ttl := time.Duration(0)
	for _, ch := range chains {
		if ch.CacheTTL > ttl {
			ttl = ch.CacheTTL
		}
	}
	if ttl == 0 {
		return defaultGasCacheTTL
	}
	return ttl
}

func walletIDs(snap snapshot.Snapshot) []string {
	ids := make([]string, 0, len(snap.Wallets))
	for _, w := range snap.Wallets {
		ids = append(ids, w.ID)
	}
	return ids
}
