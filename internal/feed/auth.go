package feed

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

func (w *Client) authenticate() error {
	expires := time.Now().UnixMilli() + 5_000
	payload := fmt.Sprintf("GET/realtime%d", expires)

	msg := AuthMessage{
		Op:   "auth",
		Args: []string{w.apiKey, fmt.Sprintf("%d", expires), sign(w.secret, payload)},
	}

	if err := w.writeJSON(msg); err != nil {
		return fmt.Errorf("Не удалось авторизоваться в ленте: %w", err)
	}

	return nil
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
