package reserve

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"fundguard/internal/models"
)

// DraftAllocation хранится отдельно от Ledger и складывается с ним только при валидации.
type DraftAllocation struct {
	Scope              Scope    `json:"scope"`
	DraftCount         int      `json:"draft_count"`
	EstimatedGas       *big.Int `json:"estimated_gas"`
	EstimatedPrincipal *big.Int `json:"estimated_principal"`
}

func (d DraftAllocation) Native() bool {
	return d.Scope.Native()
}

func (a *Aggregator) EstimateDrafts(drafts map[string]models.DraftOrder, scope Scope, params Params) (DraftAllocation, []Warning, error) {
	slots := make([]string, 0, len(drafts))
	for slot := range drafts {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	var warnings []Warning
	orders := make([]models.Order, 0, len(slots))
	for _, slot := range slots {
		draft := drafts[slot]
		if draft.SlotID == "" {
			draft.SlotID = slot
		}
		if strings.TrimSpace(draft.WalletID) == "" {
			warnings = append(warnings, Warning{OrderID: draft.SlotID, Reason: "черновик не назначен кошельку"})
			continue
		}
		if draft.WalletID != scope.WalletID || draft.ChainID != scope.ChainID {
			continue
		}
		if draft.Status.IsTerminal() {
			warnings = append(warnings, Warning{
				OrderID:  draft.SlotID,
				WalletID: draft.WalletID,
				Reason:   fmt.Sprintf("черновик в терминальном статусе %s", draft.Status),
			})
			continue
		}
		orders = append(orders, draft.AsOrder())
	}

	b, foldWarnings, err := a.fold(orders, scope, params)
	if err != nil {
		return DraftAllocation{}, nil, err
	}
	return DraftAllocation{
		Scope:              scope,
		DraftCount:         b.count,
		EstimatedGas:       b.gas,
		EstimatedPrincipal: b.principal,
	}, append(warnings, foldWarnings...), nil
}
