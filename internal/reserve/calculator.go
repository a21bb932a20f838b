package reserve

import (
	"fmt"
	"math/big"
	"slices"

	"fundguard/internal/amount"
	"fundguard/internal/models"
)

// Rule описывает, какие ордера резервируют средства и сколько транзакций газа под них держать.
type Rule struct {
	Side           models.OrderSide
	Statuses       []models.OrderStatus
	GasTxCount     int64
	PrincipalRole  models.TokenRole
	ChargeTradeFee bool
}

// DefaultRules: BUY держит газ на вход и выход плюс комиссию, SELL только газ на выход.
var DefaultRules = []Rule{
	{
		Side:           models.OrderSideBuy,
		Statuses:       []models.OrderStatus{models.OrderStatusPending},
		GasTxCount:     2,
		PrincipalRole:  models.TokenRoleCollateral,
		ChargeTradeFee: true,
	},
	{
		Side:          models.OrderSideSell,
		Statuses:      []models.OrderStatus{models.OrderStatusPending, models.OrderStatusOpened},
		GasTxCount:    1,
		PrincipalRole: models.TokenRoleOrder,
	},
}

type Cost struct {
	Principal *big.Int
	Gas       *big.Int
}

func zeroCost() Cost {
	return Cost{Principal: amount.Zero(), Gas: amount.Zero()}
}

type Calculator struct {
	rules []Rule
}

func NewCalculator(rules []Rule) *Calculator {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Calculator{rules: slices.Clone(rules)}
}

func (c *Calculator) rule(order models.Order) (Rule, bool) {
	for _, r := range c.rules {
		if r.Side == order.Side && slices.Contains(r.Statuses, order.Status) {
			return r, true
		}
	}
	return Rule{}, false
}

// Cost считает, сколько ордер резервирует в токене tokenAddress и в нативном газе.
func (c *Calculator) Cost(order models.Order, tokenAddress string, gasFee *big.Int, tradeFeeBps int64, feeExempt bool) (Cost, error) {
	if gasFee == nil || gasFee.Sign() < 0 {
		return Cost{}, invariantf("комиссия газа должна быть неотрицательной: %v", gasFee)
	}
	if tradeFeeBps < 0 {
		return Cost{}, invariantf("торговая комиссия должна быть неотрицательной: %d", tradeFeeBps)
	}

	if order.IsBusy {
		return zeroCost(), nil
	}
	r, ok := c.rule(order)
	if !ok {
		return zeroCost(), nil
	}

	cost := zeroCost()
	cost.Gas = amount.MulInt64(gasFee, r.GasTxCount)

	if !models.SameAddress(tokenAddress, order.Token(r.PrincipalRole).Address) {
		return cost, nil
	}

	field, raw := sizeField(order, r.PrincipalRole)
	principal, err := amount.Parse(raw)
	if err != nil {
		return Cost{}, fmt.Errorf("%w: поле %s: %w", ErrMalformedOrder, field, err)
	}
	cost.Principal = principal
	if r.ChargeTradeFee && !feeExempt {
		cost.Principal = amount.Sum(principal, amount.Bps(principal, tradeFeeBps))
	}
	return cost, nil
}

func sizeField(order models.Order, role models.TokenRole) (string, string) {
	if role == models.TokenRoleOrder {
		return "token_amount", order.TokenAmount
	}
	return "order_size", order.OrderSize
}
