package feed

import (
	"context"
	"fmt"
	"time"

	"fundguard/internal/chain"
	"fundguard/internal/logger"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func New(url, apiKey, secret string, log *logger.Logger) *Client {
	return &Client{
		url:          url,
		apiKey:       apiKey,
		secret:       secret,
		log:          log,
		events:       make(chan chain.Event, 100),
		stopCh:       make(chan struct{}),
		reconnectMin: 1 * time.Second,
		reconnectMax: 30 * time.Second,
	}
}

func (w *Client) Connect(ctx context.Context) error {
	w.logEntry().WithField("url", w.url).Info("Подключение к ленте.")

	conn, err := w.dial(ctx)
	if err != nil {
		return fmt.Errorf("Не удалось подключиться к ленте: %w", err)
	}
	w.setConn(conn)

	if err := w.handshake(); err != nil {
		_ = conn.Close()
		return err
	}

	w.logEntry().Info("Соединение с лентой установлено.")

	go w.readLoop()

	return nil
}

// Subscribe подписывает на ордера и черновики кошельков. Подписка повторяется после переподключения.
func (w *Client) Subscribe(walletIDs []string) error {
	w.mu.Lock()
	w.walletIDs = append([]string(nil), walletIDs...)
	w.mu.Unlock()
	return w.subscribe()
}

func (w *Client) Close() error {
	w.stopOnce.Do(func() { close(w.stopCh) })

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return nil
	}
	return w.conn.Close()
}

func (w *Client) Events() <-chan chain.Event {
	return w.events
}

func (w *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(2 << 20)
	return conn, nil
}

func (w *Client) handshake() error {
	if w.apiKey != "" && w.secret != "" {
		if err := w.authenticate(); err != nil {
			return err
		}
	}
	return w.subscribe()
}

func (w *Client) subscribe() error {
	w.mu.Lock()
	wallets := w.walletIDs
	w.mu.Unlock()
	if len(wallets) == 0 {
		return nil
	}

	topics := make([]string, 0, len(wallets)*2)
	for _, id := range wallets {
		topics = append(topics, TopicOrders+"."+id, TopicDrafts+"."+id)
	}
	if err := w.writeJSON(SubscribeMessage{Op: "subscribe", Args: topics}); err != nil {
		return fmt.Errorf("Не удалось подписаться на ленту: %w", err)
	}
	return nil
}

func (w *Client) setConn(conn *websocket.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		_ = w.conn.Close()
	}
	w.conn = conn
}

func (w *Client) currentConn() *websocket.Conn {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn
}

func (w *Client) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return fmt.Errorf("Нет соединения с лентой")
	}
	return w.conn.WriteJSON(v)
}

func (w *Client) emit(ev chain.Event) bool {
	select {
	case w.events <- ev:
		return true
	case <-w.stopCh:
		return false
	}
}

func (w *Client) stopped() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *Client) logEntry() *logrus.Entry {
	return w.log.WithComponent("feed_ws")
}
