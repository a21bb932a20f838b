package feed

import (
	"context"

	"fundguard/internal/chain"
	"fundguard/internal/logger"
	"fundguard/internal/snapshot"
)

// Pump переносит события ленты в стор, пока канал открыт или не отменён ctx.
func Pump(ctx context.Context, events <-chan chain.Event, store *snapshot.Store, log *logger.Logger) {
	entry := log.WithComponent("feed")
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				entry.Info("Лента закрыта.")
				return
			}
			if ev.Type == chain.EventTypeReconnect {
				entry.Info("Лента переподключена, состояние могло устареть.")
			}
			store.Apply(ev)
		}
	}
}
