package reserve

import (
	"fmt"
	"math/big"

	"fundguard/internal/amount"
	"fundguard/internal/models"
)

type Verdict struct {
	Scope            Scope           `json:"scope"`
	SufficientNative bool            `json:"sufficient_native"`
	SufficientToken  bool            `json:"sufficient_token"`
	RequiredNative   *big.Int        `json:"required_native"`
	RequiredToken    *big.Int        `json:"required_token"`
	ShortfallNative  *big.Int        `json:"shortfall_native"`
	ShortfallToken   *big.Int        `json:"shortfall_token"`
	NativeBalance    *big.Int        `json:"native_balance"`
	TokenBalance     *big.Int        `json:"token_balance"`
	Ledger           Ledger          `json:"ledger"`
	Draft            DraftAllocation `json:"draft"`
	Degraded         bool            `json:"degraded"`
	Warnings         []string        `json:"warnings,omitempty"`

	WalletAddress string       `json:"wallet_address,omitempty"`
	NativeToken   models.Token `json:"native_token"`
	Token         models.Token `json:"token"`
}

func (v Verdict) Sufficient() bool {
	return v.SufficientNative && v.SufficientToken
}

// Blocking: отправку блокируем и при нехватке средств, и при неполных данных.
func (v Verdict) Blocking() bool {
	return !v.Sufficient() || v.Degraded
}

func (v Verdict) Messages() []string {
	var out []string
	wallet := v.WalletAddress
	if wallet == "" {
		wallet = v.Scope.WalletID
	}
	if !v.SufficientNative {
		out = append(out, fmt.Sprintf("Недостаточно %s на кошельке %s (сеть %d): пополните на %s",
			symbolOr(v.NativeToken, "native"), wallet, v.Scope.ChainID, formatToken(v.ShortfallNative, v.NativeToken, models.DefaultNativeDecimals)))
	}
	if !v.SufficientToken {
		out = append(out, fmt.Sprintf("Недостаточно %s на кошельке %s (сеть %d): пополните на %s",
			symbolOr(v.Token, v.Scope.TokenAddress), wallet, v.Scope.ChainID, formatToken(v.ShortfallToken, v.Token, 0)))
	}
	if v.Degraded {
		out = append(out, fmt.Sprintf("Данные по кошельку %s (сеть %d) неполные, повторите проверку", wallet, v.Scope.ChainID))
	}
	return out
}

// Validate сравнивает баланс кошелька с суммой леджера и черновиков.
func Validate(nativeBalance, tokenBalance *big.Int, ledger Ledger, draft DraftAllocation) (Verdict, error) {
	if nativeBalance == nil || nativeBalance.Sign() < 0 {
		return Verdict{}, invariantf("некорректный нативный баланс: %v", nativeBalance)
	}
	if !ledger.Scope.same(draft.Scope) {
		return Verdict{}, invariantf("леджер %s и черновики %s относятся к разным скоупам", ledger.Scope, draft.Scope)
	}
	for name, val := range map[string]*big.Int{
		"locked_gas":          ledger.LockedGas,
		"locked_principal":    ledger.LockedPrincipal,
		"estimated_gas":       draft.EstimatedGas,
		"estimated_principal": draft.EstimatedPrincipal,
	} {
		if amount.IsNegative(val) {
			return Verdict{}, invariantf("отрицательный резерв %s: %s", name, val)
		}
	}

	v := Verdict{
		Scope:           ledger.Scope,
		Ledger:          ledger,
		Draft:           draft,
		NativeBalance:   amount.Copy(nativeBalance),
		RequiredNative:  amount.Sum(ledger.LockedGas, draft.EstimatedGas),
		RequiredToken:   amount.Zero(),
		ShortfallToken:  amount.Zero(),
		SufficientToken: true,
	}
	v.ShortfallNative = amount.Shortfall(v.RequiredNative, nativeBalance)
	v.SufficientNative = v.ShortfallNative.Sign() == 0

	if ledger.Native() {
		return v, nil
	}

	if tokenBalance == nil || tokenBalance.Sign() < 0 {
		return Verdict{}, invariantf("некорректный баланс токена: %v", tokenBalance)
	}
	v.TokenBalance = amount.Copy(tokenBalance)
	v.RequiredToken = amount.Sum(ledger.LockedPrincipal, draft.EstimatedPrincipal)
	v.ShortfallToken = amount.Shortfall(v.RequiredToken, tokenBalance)
	v.SufficientToken = v.ShortfallToken.Sign() == 0
	return v, nil
}

func symbolOr(token models.Token, fallback string) string {
	if token.Symbol != "" {
		return token.Symbol
	}
	return fallback
}

func formatToken(x *big.Int, token models.Token, fallbackDecimals int32) string {
	decimals := token.Decimals
	if decimals == 0 {
		decimals = fallbackDecimals
	}
	return amount.Format(x, decimals)
}
