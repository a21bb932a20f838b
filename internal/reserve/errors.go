package reserve

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedOrder: ордер пропускается с предупреждением, проход продолжается.
	ErrMalformedOrder = errors.New("Некорректный ордер")
	// ErrInconsistentOrder: терминальный ордер помечен активным. Проход прерывается.
	ErrInconsistentOrder = errors.New("Несогласованное состояние ордера")
	// ErrInvariant: нарушен контракт вызова (отрицательные суммы, несовпадение скоупов).
	ErrInvariant = errors.New("Нарушение инварианта")
)

type Warning struct {
	OrderID  string `json:"order_id"`
	WalletID string `json:"wallet_id"`
	Reason   string `json:"reason"`
}

func (w Warning) String() string {
	if w.OrderID == "" {
		return w.Reason
	}
	return fmt.Sprintf("%s: %s", w.OrderID, w.Reason)
}

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
