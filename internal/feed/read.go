package feed

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"fundguard/internal/chain"
)

func (w *Client) readLoop() {
	w.logEntry().Debug("readLoop запущен.")
	defer close(w.events)

	for {
		if w.stopped() {
			return
		}
		_, data, err := w.currentConn().ReadMessage()
		if err != nil {
			if w.stopped() {
				return
			}
			w.logEntry().WithError(err).Warn("Ошибка чтения ленты.")

			if !w.reconnect() {
				return
			}
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			w.logEntry().WithError(err).Warn("Не удалось разобрать сообщение ленты.")
			continue
		}

		switch {
		case strings.HasPrefix(msg.Topic, TopicOrders):
			w.handleOrders(msg)
		case strings.HasPrefix(msg.Topic, TopicDrafts):
			w.handleDrafts(msg)
		}
	}
}

func (w *Client) reconnect() bool {
	backoff := w.reconnectMin

	for {
		w.logEntry().Info("Попытка переподключения к ленте.")

		select {
		case <-w.stopCh:
			return false
		case <-time.After(backoff):
		}

		conn, err := w.dial(context.Background())
		if err != nil {
			w.logEntry().WithError(err).Warn("Не удалось переподключиться к ленте.")
			backoff = w.nextBackoff(backoff)
			continue
		}
		w.setConn(conn)

		if err := w.handshake(); err != nil {
			w.logEntry().WithError(err).Warn("Не удалось восстановить подписки ленты.")
			backoff = w.nextBackoff(backoff)
			continue
		}

		if !w.emit(chain.Event{Type: chain.EventTypeReconnect}) {
			return false
		}
		w.logEntry().Info("Лента переподключена, подписки восстановлены.")
		return true
	}
}

func (w *Client) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > w.reconnectMax {
		return w.reconnectMax
	}
	return next
}
