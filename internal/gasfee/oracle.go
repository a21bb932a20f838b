package gasfee

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"fundguard/internal/amount"
	"fundguard/internal/chain"
	"fundguard/internal/logger"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
)

type Source interface {
	Fetch(ctx context.Context) (*big.Int, error)
}

type Oracle struct {
	sources   map[uint64]Source
	defaults  map[uint64]*big.Int
	lastKnown *expirable.LRU[uint64, chain.GasQuote]
	now       func() time.Time
	log       *logger.Logger
}

func NewOracle(lastKnownTTL time.Duration, log *logger.Logger) *Oracle {
	return &Oracle{
		sources:   map[uint64]Source{},
		defaults:  map[uint64]*big.Int{},
		lastKnown: expirable.NewLRU[uint64, chain.GasQuote](256, nil, lastKnownTTL),
		now:       time.Now,
		log:       log,
	}
}

// Register подключает источник комиссии для сети. defaultFee используется, если нет ни свежих, ни прошлых данных.
func (o *Oracle) Register(chainID uint64, source Source, defaultFee *big.Int) {
	o.sources[chainID] = source
	if defaultFee != nil {
		o.defaults[chainID] = amount.Copy(defaultFee)
	}
}

// GasFee возвращает свежую оценку, а при ошибке последнюю известную или дефолт с пометкой Stale.
func (o *Oracle) GasFee(ctx context.Context, chainID uint64) (chain.GasQuote, error) {
	source, ok := o.sources[chainID]
	if !ok {
		return chain.GasQuote{}, fmt.Errorf("%w: %d", chain.ErrUnknownChain, chainID)
	}

	fee, err := source.Fetch(ctx)
	if err == nil && fee != nil && fee.Sign() >= 0 {
		quote := chain.GasQuote{ChainID: chainID, Amount: fee, FetchedAt: o.now()}
		o.lastKnown.Add(chainID, quote)
		return quote, nil
	}
	if err == nil {
		err = fmt.Errorf("Некорректная комиссия газа: %v", fee)
	}
	// Отмену прохода не подменяем запасным значением, таймаут RPC подменяем.
	if errors.Is(ctx.Err(), context.Canceled) {
		return chain.GasQuote{}, ctx.Err()
	}

	if quote, ok := o.lastKnown.Get(chainID); ok {
		o.logEntry(chainID).WithError(err).WithField("fetched_at", quote.FetchedAt).Warn("Комиссия газа недоступна, используется последнее известное значение.")
		quote.Amount = amount.Copy(quote.Amount)
		quote.Stale = true
		return quote, nil
	}
	if def, ok := o.defaults[chainID]; ok {
		o.logEntry(chainID).WithError(err).Warn("Комиссия газа недоступна, используется значение по умолчанию.")
		return chain.GasQuote{ChainID: chainID, Amount: amount.Copy(def), Stale: true}, nil
	}
	return chain.GasQuote{}, fmt.Errorf("Комиссия газа недоступна для сети %d: %w", chainID, err)
}

func (o *Oracle) logEntry(chainID uint64) *logrus.Entry {
	return o.log.WithComponent("gasfee").WithField("chain_id", chainID)
}
