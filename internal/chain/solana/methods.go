package solana

import (
	"context"
	"fmt"
	"math/big"

	"fundguard/internal/amount"
)

func (c *Client) GetBalance(ctx context.Context, owner string) (*big.Int, error) {
	var resp rpcResponse[contextValue[uint64]]
	if err := c.call(ctx, "getBalance", []any{owner, map[string]any{"commitment": "confirmed"}}, &resp); err != nil {
		return nil, err
	}
	if err := rpcErr("getBalance", resp.Error); err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(resp.Result.Value), nil
}

// GetTokenBalance суммирует все SPL-аккаунты владельца по минту.
func (c *Client) GetTokenBalance(ctx context.Context, owner, mint string) (*big.Int, error) {
	var resp rpcResponse[contextValue[[]tokenAccount]]
	params := []any{
		owner,
		map[string]any{"mint": mint},
		map[string]any{"encoding": "jsonParsed", "commitment": "confirmed"},
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &resp); err != nil {
		return nil, err
	}
	if err := rpcErr("getTokenAccountsByOwner", resp.Error); err != nil {
		return nil, err
	}

	total := amount.Zero()
	for _, acc := range resp.Result.Value {
		raw := acc.Account.Data.Parsed.Info.TokenAmount.Amount
		val, err := amount.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("Некорректный баланс токен-аккаунта %s: %w", acc.Pubkey, err)
		}
		total.Add(total, val)
	}
	return total, nil
}

func (c *Client) GetRecentPrioritizationFees(ctx context.Context, accounts []string) ([]PrioritizationFee, error) {
	var params []any
	if len(accounts) > 0 {
		params = []any{accounts}
	}
	var resp rpcResponse[[]PrioritizationFee]
	if err := c.call(ctx, "getRecentPrioritizationFees", params, &resp); err != nil {
		return nil, err
	}
	if err := rpcErr("getRecentPrioritizationFees", resp.Error); err != nil {
		return nil, err
	}
	c.log.WithComponent("solana_rpc").WithField("samples", len(resp.Result)).Debug("Получены приоритетные комиссии.")
	return resp.Result, nil
}
