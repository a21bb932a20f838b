package chain

import (
	"context"
	"errors"
	"math/big"
	"time"

	"fundguard/internal/models"
)

var ErrUnknownChain = errors.New("Сеть не настроена")

type EventType string

const (
	EventTypeOrder     EventType = "Order"
	EventTypeDraft     EventType = "Draft"
	EventTypeReconnect EventType = "Reconnect"
)

type Event struct {
	Type  EventType
	Order *models.Order
	Draft *models.DraftOrder
	// Removed: черновик удалён из слота.
	Removed bool
}

type GasQuote struct {
	ChainID   uint64
	Amount    *big.Int
	FetchedAt time.Time
	Stale     bool
}

type GasFeeOracle interface {
	GasFee(ctx context.Context, chainID uint64) (GasQuote, error)
}

type BalanceFetcher interface {
	NativeBalance(ctx context.Context, walletAddress string, chainID uint64) (*big.Int, error)
	TokenBalance(ctx context.Context, walletAddress, tokenAddress string, chainID uint64) (*big.Int, error)
}

type Info struct {
	ID             uint64
	Network        models.Network
	NativeSymbol   string
	NativeDecimals int32
}

func (i Info) NativeToken() models.Token {
	address := models.NativeTokenAddress
	if i.Network == models.NetworkSVM {
		address = models.SolanaNativeAddress
	}
	return models.Token{
		Address:  address,
		ChainID:  i.ID,
		Symbol:   i.NativeSymbol,
		Decimals: i.NativeDecimals,
	}
}
