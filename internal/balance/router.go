package balance

import (
	"context"
	"fmt"
	"math/big"

	"fundguard/internal/chain"
	"fundguard/internal/models"
)

type NetworkFetcher interface {
	NativeBalance(ctx context.Context, walletAddress string) (*big.Int, error)
	TokenBalance(ctx context.Context, walletAddress, tokenAddress string) (*big.Int, error)
}

type Router struct {
	fetchers map[uint64]NetworkFetcher
}

func NewRouter() *Router {
	return &Router{fetchers: map[uint64]NetworkFetcher{}}
}

func (r *Router) Register(chainID uint64, fetcher NetworkFetcher) {
	r.fetchers[chainID] = fetcher
}

func (r *Router) NativeBalance(ctx context.Context, walletAddress string, chainID uint64) (*big.Int, error) {
	f, err := r.fetcher(chainID)
	if err != nil {
		return nil, err
	}
	return f.NativeBalance(ctx, walletAddress)
}

func (r *Router) TokenBalance(ctx context.Context, walletAddress, tokenAddress string, chainID uint64) (*big.Int, error) {
	if models.IsNativeAddress(tokenAddress) {
		return r.NativeBalance(ctx, walletAddress, chainID)
	}
	f, err := r.fetcher(chainID)
	if err != nil {
		return nil, err
	}
	return f.TokenBalance(ctx, walletAddress, tokenAddress)
}

func (r *Router) fetcher(chainID uint64) (NetworkFetcher, error) {
	f, ok := r.fetchers[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", chain.ErrUnknownChain, chainID)
	}
	return f, nil
}

var _ chain.BalanceFetcher = (*Router)(nil)
