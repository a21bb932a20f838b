package gasfee

import (
	"context"
	"fmt"
	"math/big"

	"fundguard/internal/amount"

	"github.com/ethereum/go-ethereum/core/types"
)

type Category string

const (
	CategorySwap     Category = "swap"
	CategoryApprove  Category = "approve"
	CategoryTransfer Category = "transfer"
)

var DefaultGasLimits = map[Category]uint64{
	CategorySwap:     300_000,
	CategoryApprove:  60_000,
	CategoryTransfer: 21_000,
}

type EVMBackend interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

type EVMSource struct {
	backend       EVMBackend
	category      Category
	gasLimit      uint64
	bufferPercent int64
}

func NewEVMSource(backend EVMBackend, gasLimit uint64, bufferPercent int64) *EVMSource {
	if gasLimit == 0 {
		gasLimit = DefaultGasLimits[CategorySwap]
	}
	return &EVMSource{
		backend:       backend,
		category:      CategorySwap,
		gasLimit:      gasLimit,
		bufferPercent: bufferPercent,
	}
}

// Fetch: (2*baseFee + tip) * gasLimit с буфером. Для сетей без EIP-1559 берётся gasPrice.
func (s *EVMSource) Fetch(ctx context.Context) (*big.Int, error) {
	return s.Estimate(ctx, s.gasLimit)
}

func (s *EVMSource) EstimateCategory(ctx context.Context, category Category) (*big.Int, error) {
	limit, ok := DefaultGasLimits[category]
	if !ok {
		return nil, fmt.Errorf("Неизвестная категория транзакции: %s", category)
	}
	if category == s.category {
		limit = s.gasLimit
	}
	return s.Estimate(ctx, limit)
}

func (s *EVMSource) Estimate(ctx context.Context, gasLimit uint64) (*big.Int, error) {
	perGas, err := s.maxFeePerGas(ctx)
	if err != nil {
		return nil, err
	}
	total := new(big.Int).Mul(perGas, new(big.Int).SetUint64(gasLimit))
	return amount.ApplyBufferPercent(total, s.bufferPercent), nil
}

func (s *EVMSource) maxFeePerGas(ctx context.Context) (*big.Int, error) {
	header, err := s.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Не удалось получить заголовок блока: %w", err)
	}
	if header == nil || header.BaseFee == nil {
		price, err := s.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("Не удалось получить цену газа: %w", err)
		}
		return price, nil
	}
	tip, err := s.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("Не удалось получить чаевые валидатору: %w", err)
	}
	fee := new(big.Int).Mul(header.BaseFee, big.NewInt(2))
	return fee.Add(fee, tip), nil
}
