package reserve

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"fundguard/internal/amount"
	"fundguard/internal/models"
)

// Scope: кошелёк, сеть и токен, относительно которого считается резерв.
type Scope struct {
	WalletID     string `json:"wallet_id"`
	ChainID      uint64 `json:"chain_id"`
	TokenAddress string `json:"token_address"`
}

func (s Scope) Native() bool {
	return models.IsNativeAddress(s.TokenAddress)
}

func (s Scope) String() string {
	token := s.TokenAddress
	if s.Native() {
		token = "native"
	}
	return fmt.Sprintf("%s/%d/%s", s.WalletID, s.ChainID, strings.ToLower(token))
}

func (s Scope) same(other Scope) bool {
	return s.WalletID == other.WalletID && s.ChainID == other.ChainID && models.SameAddress(s.TokenAddress, other.TokenAddress)
}

type Params struct {
	GasFee      *big.Int
	TradeFeeBps int64
	User        models.User
}

type Ledger struct {
	Scope            Scope    `json:"scope"`
	ActiveOrderCount int      `json:"active_order_count"`
	LockedGas        *big.Int `json:"locked_gas"`
	LockedPrincipal  *big.Int `json:"locked_principal"`
}

func (l Ledger) Native() bool {
	return l.Scope.Native()
}

type Aggregator struct {
	calc *Calculator
}

func NewAggregator(calc *Calculator) *Aggregator {
	if calc == nil {
		calc = NewCalculator(nil)
	}
	return &Aggregator{calc: calc}
}

type bucket struct {
	count     int
	gas       *big.Int
	principal *big.Int
}

// BuildLedger собирает резерв уже активных ордеров кошелька. Леджер всегда строится заново.
func (a *Aggregator) BuildLedger(orders []models.Order, scope Scope, params Params) (Ledger, []Warning, error) {
	var warnings []Warning
	eligible := make([]models.Order, 0, len(orders))
	for _, order := range orders {
		if strings.TrimSpace(order.WalletID) == "" {
			if order.IsActive && !order.IsBusy {
				warnings = append(warnings, Warning{OrderID: order.ID, Reason: "у ордера нет кошелька"})
			}
			continue
		}
		if order.WalletID != scope.WalletID || order.ChainID != scope.ChainID || !order.IsActive {
			continue
		}
		if order.Status.IsTerminal() {
			return Ledger{}, nil, fmt.Errorf("%w: ордер %s в статусе %s помечен активным", ErrInconsistentOrder, order.ID, order.Status)
		}
		if order.IsBusy {
			continue
		}
		eligible = append(eligible, order)
	}

	b, foldWarnings, err := a.fold(eligible, scope, params)
	if err != nil {
		return Ledger{}, nil, err
	}
	return Ledger{
		Scope:            scope,
		ActiveOrderCount: b.count,
		LockedGas:        b.gas,
		LockedPrincipal:  b.principal,
	}, append(warnings, foldWarnings...), nil
}

// fold общий для леджера и черновиков: считает стоимость и раскладывает по корзинам.
func (a *Aggregator) fold(orders []models.Order, scope Scope, params Params) (bucket, []Warning, error) {
	b := bucket{gas: amount.Zero(), principal: amount.Zero()}
	var warnings []Warning
	native := scope.Native()

	for _, order := range orders {
		exempt := params.User.FeeExempt()
		if order.Owner != nil {
			exempt = order.Owner.FeeExempt()
		}
		cost, err := a.calc.Cost(order, scope.TokenAddress, params.GasFee, params.TradeFeeBps, exempt)
		if err != nil {
			if errors.Is(err, ErrMalformedOrder) {
				warnings = append(warnings, Warning{OrderID: order.ID, WalletID: order.WalletID, Reason: err.Error()})
				continue
			}
			return bucket{}, nil, err
		}
		if cost.Gas.Sign() < 0 || cost.Principal.Sign() < 0 {
			return bucket{}, nil, invariantf("отрицательный резерв по ордеру %s", order.ID)
		}

		b.count++
		if native {
			b.gas.Add(b.gas, cost.Gas)
			b.gas.Add(b.gas, cost.Principal)
			continue
		}
		b.gas.Add(b.gas, cost.Gas)
		b.principal.Add(b.principal, cost.Principal)
	}
	return b, warnings, nil
}
