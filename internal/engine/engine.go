package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"fundguard/internal/chain"
	"fundguard/internal/logger"
	"fundguard/internal/models"
	"fundguard/internal/reserve"
	"fundguard/internal/snapshot"

	"github.com/google/uuid"
)

var ErrSuperseded = errors.New("Проверка устарела: снапшот изменился")

type Config struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	Retries      int
	RetryBackoff time.Duration
	Concurrency  int
	// TradeFeeBps применяется, если у пользователя снапшота тариф не задан.
	TradeFeeBps int64
	Rules       []reserve.Rule
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	return c
}

type Engine struct {
	cfg      Config
	chains   map[uint64]chain.Info
	agg      *reserve.Aggregator
	gas      chain.GasFeeOracle
	balances chain.BalanceFetcher
	metrics  *Metrics
	log      *logger.Logger

	epoch  atomic.Uint64
	mu     sync.Mutex
	cancel context.CancelFunc
	latest atomic.Pointer[Report]
}

func New(cfg Config, chains []chain.Info, gas chain.GasFeeOracle, balances chain.BalanceFetcher, metrics *Metrics, log *logger.Logger) *Engine {
	known := make(map[uint64]chain.Info, len(chains))
	for _, c := range chains {
		known[c.ID] = c
	}
	return &Engine{
		cfg:      cfg.withDefaults(),
		chains:   known,
		agg:      reserve.NewAggregator(reserve.NewCalculator(cfg.Rules)),
		gas:      gas,
		balances: balances,
		metrics:  metrics,
		log:      log,
	}
}

func (e *Engine) Latest() *Report {
	return e.latest.Load()
}

// Validate выполняет один проход проверки по снапшоту. Новый вызов отменяет незавершённый предыдущий,
// и тот возвращает ErrSuperseded.
func (e *Engine) Validate(ctx context.Context, snap snapshot.Snapshot) (*Report, error) {
	started := time.Now()
	epoch := e.epoch.Add(1)

	passCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.cancel = cancel
	e.mu.Unlock()
	defer cancel()

	report := &Report{
		PassID:          uuid.NewString(),
		Epoch:           epoch,
		SnapshotVersion: snap.Version,
		StartedAt:       started,
	}

	pairs, warnings := plan(snap)
	report.Warnings = append(report.Warnings, warnings...)

	data, err := e.fetch(passCtx, pairs)
	if err == nil && e.epoch.Load() != epoch {
		err = ErrSuperseded
	}
	if err != nil {
		if ctx.Err() == nil && (passCtx.Err() != nil || errors.Is(err, ErrSuperseded)) {
			err = ErrSuperseded
		}
		e.metrics.observePass(passResult(err), time.Since(started).Seconds())
		return nil, err
	}

	if err := e.evaluate(report, snap, pairs, data); err != nil {
		e.metrics.observePass("error", time.Since(started).Seconds())
		return nil, err
	}
	report.Warnings = dedupe(report.Warnings)
	report.FinishedAt = time.Now()

	if e.epoch.Load() != epoch {
		e.metrics.observePass("superseded", time.Since(started).Seconds())
		return nil, ErrSuperseded
	}
	e.latest.Store(report)
	e.metrics.observePass(passResult(nil), time.Since(started).Seconds())
	e.metrics.observeReport(report)
	return report, nil
}

func (e *Engine) evaluate(report *Report, snap snapshot.Snapshot, pairs []*walletChain, data *fetched) error {
	for _, wc := range pairs {
		info := e.chainInfo(wc.chainID)
		gas := data.gas[wc.chainID]
		params := reserve.Params{
			GasFee:      gas.amount,
			TradeFeeBps: e.tradeFeeBps(snap),
			User:        snap.User,
		}
		native := data.balances[balanceKey(wc.wallet.ID, wc.chainID, "")]

		for _, scope := range wc.scopes() {
			ledger, lw, err := e.agg.BuildLedger(snap.Orders, scope, params)
			if err != nil {
				return fmt.Errorf("скоуп %s: %w", scope, err)
			}
			draft, dw, err := e.agg.EstimateDrafts(snap.Drafts, scope, params)
			if err != nil {
				return fmt.Errorf("скоуп %s: %w", scope, err)
			}

			var tokenBalance fetchResult
			if !scope.Native() {
				tokenBalance = data.balances[balanceKey(wc.wallet.ID, wc.chainID, scope.TokenAddress)]
			}
			verdict, err := reserve.Validate(native.amount, tokenBalance.amount, ledger, draft)
			if err != nil {
				return fmt.Errorf("скоуп %s: %w", scope, err)
			}

			verdict.WalletAddress = wc.wallet.Address
			verdict.NativeToken = info.NativeToken()
			if !scope.Native() {
				verdict.Token = wc.tokens[tokenKey(scope.TokenAddress)]
			}
			for _, w := range append(lw, dw...) {
				verdict.Warnings = append(verdict.Warnings, w.String())
				report.Warnings = append(report.Warnings, w.String())
			}
			for _, r := range []fetchResult{gas, native, tokenBalance} {
				if r.degraded {
					verdict.Degraded = true
					verdict.Warnings = append(verdict.Warnings, r.reason)
				}
			}
			report.Degraded = report.Degraded || verdict.Degraded
			report.Verdicts = append(report.Verdicts, verdict)
		}
	}
	return nil
}

func (e *Engine) tradeFeeBps(snap snapshot.Snapshot) int64 {
	if snap.User.TradeFeeBps > 0 {
		return snap.User.TradeFeeBps
	}
	return e.cfg.TradeFeeBps
}

func (e *Engine) chainInfo(id uint64) chain.Info {
	if info, ok := e.chains[id]; ok {
		return info
	}
	return chain.Info{ID: id, NativeDecimals: models.DefaultNativeDecimals}
}

func passResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSuperseded):
		return "superseded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
