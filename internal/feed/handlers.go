package feed

import (
	"encoding/json"

	"fundguard/internal/chain"
	"fundguard/internal/models"
)

func (w *Client) handleOrders(msg Message) {
	var data []models.Order
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		w.logEntry().WithError(err).Warn("Не удалось разобрать orders.")
		return
	}

	for i := range data {
		item := data[i]
		w.log.WithOrderID(item.ID).WithFields(map[string]interface{}{
			"component": "feed_ws",
			"wallet_id": item.WalletID,
			"chain_id":  item.ChainID,
			"side":      item.Side,
			"status":    item.Status,
			"active":    item.IsActive,
			"busy":      item.IsBusy,
		}).Debug("order")

		if !w.emit(chain.Event{Type: chain.EventTypeOrder, Order: &item}) {
			return
		}
	}
}

func (w *Client) handleDrafts(msg Message) {
	var data []draftUpdate
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		w.logEntry().WithError(err).Warn("Не удалось разобрать drafts.")
		return
	}

	for i := range data {
		item := data[i]
		if item.SlotID == "" {
			w.logEntry().Warn("Черновик без слота пропущен.")
			continue
		}
		w.logEntry().WithFields(map[string]interface{}{
			"slot_id":   item.SlotID,
			"wallet_id": item.WalletID,
			"removed":   item.Removed,
		}).Debug("draft")

		draft := item.DraftOrder
		if !w.emit(chain.Event{Type: chain.EventTypeDraft, Draft: &draft, Removed: item.Removed}) {
			return
		}
	}
}
