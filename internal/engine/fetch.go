package engine

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"sync"

	"fundguard/internal/amount"
	"fundguard/internal/chain"

	"golang.org/x/sync/errgroup"
)

type fetchResult struct {
	amount   *big.Int
	degraded bool
	reason   string
}

func failed(reason string) fetchResult {
	return fetchResult{amount: amount.Zero(), degraded: true, reason: reason}
}

type fetched struct {
	mu       sync.Mutex
	gas      map[uint64]fetchResult
	balances map[string]fetchResult
}

func (f *fetched) setGas(chainID uint64, r fetchResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gas[chainID] = r
}

func (f *fetched) setBalance(key string, r fetchResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[key] = r
}

func tokenKey(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func balanceKey(walletID string, chainID uint64, token string) string {
	return walletID + "/" + strconv.FormatUint(chainID, 10) + "/" + tokenKey(token)
}

// fetch параллельно запрашивает газ по сетям и балансы по скоупам. Ошибка внешних данных
// не прерывает проход: скоуп помечается как degraded с нулевым балансом.
func (e *Engine) fetch(ctx context.Context, pairs []*walletChain) (*fetched, error) {
	data := &fetched{
		gas:      map[uint64]fetchResult{},
		balances: map[string]fetchResult{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	var chainIDs []uint64
	for _, wc := range pairs {
		if !slices.Contains(chainIDs, wc.chainID) {
			chainIDs = append(chainIDs, wc.chainID)
		}
	}
	for _, id := range chainIDs {
		g.Go(func() error {
			data.setGas(id, e.fetchGas(gctx, id))
			return nil
		})
	}

	for _, wc := range pairs {
		g.Go(func() error {
			data.setBalance(balanceKey(wc.wallet.ID, wc.chainID, ""), e.fetchNative(gctx, wc))
			return nil
		})
		for _, key := range sortedKeys(wc.tokens) {
			token := wc.tokens[key]
			g.Go(func() error {
				data.setBalance(balanceKey(wc.wallet.ID, wc.chainID, token.Address), e.fetchToken(gctx, wc, token.Address))
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

func (e *Engine) fetchGas(ctx context.Context, chainID uint64) fetchResult {
	quote, err := withRetry(ctx, e, "gas", func(ctx context.Context) (chain.GasQuote, error) {
		return e.gas.GasFee(ctx, chainID)
	})
	if err == nil && quote.Amount == nil {
		err = fmt.Errorf("пустая цена газа")
	}
	if err != nil {
		if ctx.Err() == nil {
			e.metrics.observeFetchFailure("gas")
			e.logEntry().WithError(err).WithField("chain_id", chainID).Warn("Не удалось получить цену газа.")
		}
		return failed(fmt.Sprintf("цена газа сети %d недоступна: %v", chainID, err))
	}
	if quote.Stale {
		e.metrics.observeFetchFailure("gas_stale")
		return fetchResult{
			amount:   amount.Copy(quote.Amount),
			degraded: true,
			reason:   fmt.Sprintf("цена газа сети %d устарела, использовано значение %s", chainID, quote.Amount),
		}
	}
	return fetchResult{amount: amount.Copy(quote.Amount)}
}

func (e *Engine) fetchNative(ctx context.Context, wc *walletChain) fetchResult {
	bal, err := withRetry(ctx, e, "native_balance", func(ctx context.Context) (*big.Int, error) {
		return e.balances.NativeBalance(ctx, wc.wallet.Address, wc.chainID)
	})
	return e.balanceResult(ctx, "native_balance", wc, "native", bal, err)
}

func (e *Engine) fetchToken(ctx context.Context, wc *walletChain, token string) fetchResult {
	bal, err := withRetry(ctx, e, "token_balance", func(ctx context.Context) (*big.Int, error) {
		return e.balances.TokenBalance(ctx, wc.wallet.Address, token, wc.chainID)
	})
	return e.balanceResult(ctx, "token_balance", wc, token, bal, err)
}

func (e *Engine) balanceResult(ctx context.Context, kind string, wc *walletChain, token string, bal *big.Int, err error) fetchResult {
	if err == nil && (bal == nil || bal.Sign() < 0) {
		err = fmt.Errorf("некорректный баланс: %v", bal)
	}
	if err != nil {
		if ctx.Err() == nil {
			e.metrics.observeFetchFailure(kind)
			e.log.WithWallet(wc.wallet.ID).WithError(err).WithFields(map[string]interface{}{
				"chain_id": wc.chainID,
				"token":    token,
			}).Warn("Не удалось получить баланс.")
		}
		return failed(fmt.Sprintf("баланс %s кошелька %s в сети %d недоступен: %v", token, wc.wallet.ID, wc.chainID, err))
	}
	return fetchResult{amount: amount.Copy(bal)}
}
