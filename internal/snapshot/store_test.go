package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fundguard/internal/chain"
	"fundguard/internal/logger"
	"fundguard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order(id string, status models.OrderStatus) models.Order {
	return models.Order{
		ID:        id,
		WalletID:  "w1",
		ChainID:   8453,
		Side:      models.OrderSideBuy,
		Status:    status,
		IsActive:  true,
		OrderSize: "100",
		Owner:     &models.User{ID: "u1", Role: models.UserRoleUser},
	}
}

func TestCurrentIsIsolatedCopy(t *testing.T) {
	s := NewStore()
	s.ReplaceOrders([]models.Order{order("o1", models.OrderStatusPending)})

	snap := s.Current()
	snap.Orders[0].Status = models.OrderStatusCompleted
	snap.Orders[0].Owner.Role = models.UserRoleAdmin

	again := s.Current()
	assert.Equal(t, models.OrderStatusPending, again.Orders[0].Status)
	assert.Equal(t, models.UserRoleUser, again.Orders[0].Owner.Role)
}

func TestVersionGrowsOnEveryMutation(t *testing.T) {
	s := NewStore()
	assert.Equal(t, uint64(0), s.Version())

	s.SetUser(models.User{ID: "u1"})
	s.SetWallets([]models.Wallet{{ID: "w1"}})
	s.UpsertOrder(order("o1", models.OrderStatusPending))
	assert.Equal(t, uint64(3), s.Version())

	assert.False(t, s.RemoveDraft("missing"))
	assert.Equal(t, uint64(3), s.Version())
}

func TestUpsertReplacesByID(t *testing.T) {
	s := NewStore()
	s.UpsertOrder(order("o1", models.OrderStatusPending))
	s.UpsertOrder(order("o2", models.OrderStatusPending))
	s.UpsertOrder(order("o1", models.OrderStatusOpened))

	snap := s.Current()
	require.Len(t, snap.Orders, 2)
	assert.Equal(t, models.OrderStatusOpened, snap.Orders[0].Status)
}

func TestDrafts(t *testing.T) {
	s := NewStore()
	slot := s.PutDraft(models.DraftOrder{WalletID: "w1", OrderSize: "10"})
	require.NotEmpty(t, slot)
	s.PutDraft(models.DraftOrder{SlotID: "fixed", WalletID: "w1"})

	assert.Len(t, s.DraftSlots(), 2)
	assert.True(t, s.RemoveDraft(slot))
	assert.Equal(t, []string{"fixed"}, s.DraftSlots())

	s.ClearDrafts()
	assert.Empty(t, s.Current().Drafts)
}

func TestApplyEvents(t *testing.T) {
	s := NewStore()
	o := order("o1", models.OrderStatusPending)
	s.Apply(chain.Event{Type: chain.EventTypeOrder, Order: &o})
	s.Apply(chain.Event{Type: chain.EventTypeDraft, Draft: &models.DraftOrder{SlotID: "s1"}})
	s.Apply(chain.Event{Type: chain.EventTypeReconnect})

	snap := s.Current()
	assert.Len(t, snap.Orders, 1)
	assert.Contains(t, snap.Drafts, "s1")

	s.Apply(chain.Event{Type: chain.EventTypeDraft, Draft: &models.DraftOrder{SlotID: "s1"}, Removed: true})
	assert.Empty(t, s.Current().Drafts)
}

func TestUpdatesCoalesce(t *testing.T) {
	s := NewStore()
	s.SetUser(models.User{ID: "u1"})
	s.SetUser(models.User{ID: "u2"})

	select {
	case v := <-s.Updates():
		assert.Equal(t, uint64(1), v)
	default:
		t.Fatal("нет сигнала об обновлении")
	}
	select {
	case <-s.Updates():
		t.Fatal("сигналы должны склеиваться")
	default:
	}
	assert.Equal(t, "u2", s.Current().User.ID)
}

const snapshotJSON = `{
  "user": {"id": "u1", "role": "user", "trade_fee_bps": 10},
  "wallets": [{"id": "w1", "address": "0x71C7656EC7ab88b098defB751B7401B5f6d8976F", "network": "EVM", "chain_ids": [8453]}],
  "orders": [{"id": "o1", "wallet_id": "w1", "chain_id": 8453, "side": "BUY", "status": "PENDING", "is_active": true, "order_size": "150000"}],
  "drafts": {"s1": {"slot_id": "s1", "wallet_id": "w1", "chain_id": 8453, "side": "SELL", "token_amount": "5"}}
}`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(snapshotJSON), 0o644))

	snap, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(10), snap.User.TradeFeeBps)
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, "150000", snap.Orders[0].OrderSize)
	assert.Equal(t, models.OrderSideSell, snap.Drafts["s1"].Side)

	w, ok := snap.Wallet("w1")
	require.True(t, ok)
	assert.Equal(t, []uint64{8453}, w.ChainIDs)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = LoadFile(path)
	require.Error(t, err)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"user": {"id": "u1"}}`), 0o644))

	s := NewStore()
	require.NoError(t, LoadInto(s, path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, s, path, logger.Discard()) }()

	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`{"user": {"id": "u2"}}`), 0o644)
		return s.Current().User.ID == "u2"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
