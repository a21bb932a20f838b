package engine

import (
	"slices"
	"strconv"
	"strings"

	"fundguard/internal/models"
	"fundguard/internal/reserve"
	"fundguard/internal/snapshot"
)

type walletChain struct {
	wallet  models.Wallet
	chainID uint64
	tokens  map[string]models.Token
}

func (wc *walletChain) addToken(t models.Token) {
	if t.IsNative() {
		return
	}
	key := strings.ToLower(strings.TrimSpace(t.Address))
	if _, ok := wc.tokens[key]; !ok {
		wc.tokens[key] = t
	}
}

func (wc *walletChain) scopes() []reserve.Scope {
	out := []reserve.Scope{{WalletID: wc.wallet.ID, ChainID: wc.chainID, TokenAddress: models.NativeTokenAddress}}
	for _, key := range sortedKeys(wc.tokens) {
		out = append(out, reserve.Scope{WalletID: wc.wallet.ID, ChainID: wc.chainID, TokenAddress: wc.tokens[key].Address})
	}
	return out
}

func principalToken(side models.OrderSide, collateral, order models.Token) (models.Token, bool) {
	switch side {
	case models.OrderSideBuy:
		return collateral, true
	case models.OrderSideSell:
		return order, true
	}
	return models.Token{}, false
}

// plan раскладывает снапшот на пары кошелёк×сеть и токены, которые в них участвуют.
// Ордера кошельков, отсутствующих в снапшоте, попадают в warnings.
func plan(snap snapshot.Snapshot) ([]*walletChain, []string) {
	index := map[string]*walletChain{}
	var order []string
	var warnings []string

	get := func(w models.Wallet, chainID uint64) *walletChain {
		key := w.ID + "/" + strconv.FormatUint(chainID, 10)
		wc, ok := index[key]
		if !ok {
			wc = &walletChain{wallet: w, chainID: chainID, tokens: map[string]models.Token{}}
			index[key] = wc
			order = append(order, key)
		}
		return wc
	}

	for _, w := range snap.Wallets {
		for _, c := range w.ChainIDs {
			get(w, c)
		}
	}

	reference := func(id, walletID string, chainID uint64, side models.OrderSide, collateral, orderToken models.Token) {
		if walletID == "" {
			return
		}
		w, ok := snap.Wallet(walletID)
		if !ok {
			warnings = append(warnings, "ордер "+id+": кошелёк "+walletID+" отсутствует в снапшоте")
			return
		}
		wc := get(w, chainID)
		if t, ok := principalToken(side, collateral, orderToken); ok {
			wc.addToken(t)
		}
	}

	for _, o := range snap.Orders {
		if !o.IsActive || o.IsBusy {
			continue
		}
		reference(o.ID, o.WalletID, o.ChainID, o.Side, o.CollateralToken, o.OrderToken)
	}
	for _, slot := range sortedKeys(snap.Drafts) {
		d := snap.Drafts[slot]
		reference(slot, d.WalletID, d.ChainID, d.Side, d.CollateralToken, d.OrderToken)
	}

	slices.Sort(order)
	out := make([]*walletChain, 0, len(order))
	for _, key := range order {
		out = append(out, index[key])
	}
	return out, warnings
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
