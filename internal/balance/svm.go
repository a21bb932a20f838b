package balance

import (
	"context"
	"fmt"
	"math/big"
)

type SolanaReader interface {
	GetBalance(ctx context.Context, owner string) (*big.Int, error)
	GetTokenBalance(ctx context.Context, owner, mint string) (*big.Int, error)
}

type SVMFetcher struct {
	rpc SolanaReader
}

func NewSVMFetcher(rpc SolanaReader) *SVMFetcher {
	return &SVMFetcher{rpc: rpc}
}

func (f *SVMFetcher) NativeBalance(ctx context.Context, walletAddress string) (*big.Int, error) {
	bal, err := f.rpc.GetBalance(ctx, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("Не удалось получить баланс %s: %w", walletAddress, err)
	}
	return bal, nil
}

func (f *SVMFetcher) TokenBalance(ctx context.Context, walletAddress, mint string) (*big.Int, error) {
	bal, err := f.rpc.GetTokenBalance(ctx, walletAddress, mint)
	if err != nil {
		return nil, fmt.Errorf("Не удалось получить баланс токена %s у %s: %w", mint, walletAddress, err)
	}
	return bal, nil
}
