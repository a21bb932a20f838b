package gasfee

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"fundguard/internal/amount"
	"fundguard/internal/chain/solana"
)

const (
	LamportsPerSignature    = 5000
	DefaultComputeUnitLimit = 200_000
	microLamports           = 1_000_000
)

type PrioritizationFeeReader interface {
	GetRecentPrioritizationFees(ctx context.Context, accounts []string) ([]solana.PrioritizationFee, error)
}

type SVMSource struct {
	rpc              PrioritizationFeeReader
	computeUnitLimit uint64
	signatures       uint64
	bufferPercent    int64
	accounts         []string
}

func NewSVMSource(rpc PrioritizationFeeReader, computeUnitLimit, signatures uint64, bufferPercent int64, accounts []string) *SVMSource {
	if computeUnitLimit == 0 {
		computeUnitLimit = DefaultComputeUnitLimit
	}
	if signatures == 0 {
		signatures = 1
	}
	return &SVMSource{
		rpc:              rpc,
		computeUnitLimit: computeUnitLimit,
		signatures:       signatures,
		bufferPercent:    bufferPercent,
		accounts:         accounts,
	}
}

// Fetch: базовая комиссия за подписи + p90 приоритетной комиссии * лимит CU, с буфером.
func (s *SVMSource) Fetch(ctx context.Context) (*big.Int, error) {
	samples, err := s.rpc.GetRecentPrioritizationFees(ctx, s.accounts)
	if err != nil {
		return nil, fmt.Errorf("Не удалось получить приоритетные комиссии: %w", err)
	}

	fees := make([]uint64, 0, len(samples))
	for _, sample := range samples {
		fees = append(fees, sample.PrioritizationFee)
	}
	perCU := Percentile90(fees)

	priority := new(big.Int).Mul(new(big.Int).SetUint64(perCU), new(big.Int).SetUint64(s.computeUnitLimit))
	priority.Quo(priority, big.NewInt(microLamports))

	base := new(big.Int).SetUint64(LamportsPerSignature * s.signatures)
	return amount.ApplyBufferPercent(amount.Sum(base, priority), s.bufferPercent), nil
}

// Percentile90: nearest-rank. Пустая выборка даёт 0.
func Percentile90(values []uint64) uint64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]uint64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := (9*len(sorted)+9)/10 - 1
	return sorted[idx]
}
