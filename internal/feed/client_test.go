package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"fundguard/internal/chain"
	"fundguard/internal/logger"
	"fundguard/internal/models"
	"fundguard/internal/snapshot"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersMsg = `{"topic":"orders.w1","ts":1,"data":[{"id":"o1","wallet_id":"w1","chain_id":8453,"side":"BUY","status":"PENDING","is_active":true,"order_size":"100"}]}`
const draftsMsg = `{"topic":"drafts.w1","ts":2,"data":[{"slot_id":"s1","wallet_id":"w1","chain_id":8453,"side":"SELL","token_amount":"5"},{"slot_id":"s0","removed":true},{"wallet_id":"w1"}]}`

func newFeedServer(t *testing.T, onConn func(n int32, conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	var conns atomic.Int32
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		onConn(conns.Add(1), conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func next(t *testing.T, events <-chan chain.Event) chain.Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "канал событий закрыт")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("нет события")
		return chain.Event{}
	}
}

func TestFeedSubscribesAndEmitsEvents(t *testing.T) {
	subscribed := make(chan SubscribeMessage, 1)
	srv := newFeedServer(t, func(n int32, conn *websocket.Conn) {
		var auth AuthMessage
		if !assert.NoError(t, conn.ReadJSON(&auth)) {
			return
		}
		assert.Equal(t, "auth", auth.Op)
		assert.Len(t, auth.Args, 3)

		var sub SubscribeMessage
		if !assert.NoError(t, conn.ReadJSON(&sub)) {
			return
		}
		subscribed <- sub
		_ = conn.WriteMessage(websocket.TextMessage, []byte(ordersMsg))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(draftsMsg))
		_, _, _ = conn.ReadMessage()
	})

	client := New(wsURL(srv), "key", "secret", logger.Discard())
	client.walletIDs = []string{"w1"}
	require.NoError(t, client.Connect(context.Background()))
	defer client.Close()

	sub := <-subscribed
	assert.Equal(t, []string{"orders.w1", "drafts.w1"}, sub.Args)

	ev := next(t, client.Events())
	require.Equal(t, chain.EventTypeOrder, ev.Type)
	assert.Equal(t, "o1", ev.Order.ID)
	assert.Equal(t, models.OrderStatusPending, ev.Order.Status)

	ev = next(t, client.Events())
	require.Equal(t, chain.EventTypeDraft, ev.Type)
	assert.Equal(t, "s1", ev.Draft.SlotID)
	assert.False(t, ev.Removed)

	ev = next(t, client.Events())
	assert.Equal(t, "s0", ev.Draft.SlotID)
	assert.True(t, ev.Removed)
}

func TestFeedReconnects(t *testing.T) {
	srv := newFeedServer(t, func(n int32, conn *websocket.Conn) {
		if n == 1 {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(ordersMsg))
		_, _, _ = conn.ReadMessage()
	})

	client := New(wsURL(srv), "", "", logger.Discard())
	client.reconnectMin = 10 * time.Millisecond
	require.NoError(t, client.Connect(context.Background()))
	defer client.Close()

	assert.Equal(t, chain.EventTypeReconnect, next(t, client.Events()).Type)
	assert.Equal(t, chain.EventTypeOrder, next(t, client.Events()).Type)
}

func TestFeedCloseStopsEvents(t *testing.T) {
	srv := newFeedServer(t, func(n int32, conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
	})

	client := New(wsURL(srv), "", "", logger.Discard())
	require.NoError(t, client.Connect(context.Background()))
	require.NoError(t, client.Close())

	select {
	case _, ok := <-client.Events():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("канал событий не закрыт")
	}
}

func TestNextBackoff(t *testing.T) {
	client := New("ws://unused", "", "", logger.Discard())
	assert.Equal(t, 2*time.Second, client.nextBackoff(time.Second))
	assert.Equal(t, 30*time.Second, client.nextBackoff(20*time.Second))
}

func TestPumpAppliesEvents(t *testing.T) {
	store := snapshot.NewStore()
	events := make(chan chain.Event, 3)
	events <- chain.Event{Type: chain.EventTypeOrder, Order: &models.Order{ID: "o1"}}
	events <- chain.Event{Type: chain.EventTypeDraft, Draft: &models.DraftOrder{SlotID: "s1"}}
	events <- chain.Event{Type: chain.EventTypeReconnect}
	close(events)

	Pump(context.Background(), events, store, logger.Discard())

	snap := store.Current()
	assert.Len(t, snap.Orders, 1)
	assert.Contains(t, snap.Drafts, "s1")
}
