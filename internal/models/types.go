package models

import "strings"

type OrderSide string
type OrderStatus string
type Network string
type TokenRole string
type UserRole string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"

	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusOpened     OrderStatus = "OPENED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusReverted   OrderStatus = "REVERTED"

	NetworkEVM Network = "EVM"
	NetworkSVM Network = "SVM"

	TokenRoleCollateral TokenRole = "COLLATERAL"
	TokenRoleOrder      TokenRole = "ORDER"
	TokenRoleOutput     TokenRole = "OUTPUT"

	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

const (
	NativeTokenAddress    = "0x0000000000000000000000000000000000000000"
	SolanaNativeAddress   = "11111111111111111111111111111111"
	DefaultNativeDecimals = 18
)

func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusReverted:
		return true
	}
	return false
}

type Token struct {
	Address  string `json:"address"`
	ChainID  uint64 `json:"chain_id"`
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}

func (t Token) IsNative() bool {
	return IsNativeAddress(t.Address)
}

func IsNativeAddress(address string) bool {
	address = strings.TrimSpace(address)
	return address == "" ||
		strings.EqualFold(address, NativeTokenAddress) ||
		address == SolanaNativeAddress
}

func SameAddress(a, b string) bool {
	if IsNativeAddress(a) || IsNativeAddress(b) {
		return IsNativeAddress(a) && IsNativeAddress(b)
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

type User struct {
	ID          string   `json:"id"`
	Role        UserRole `json:"role"`
	TradeFeeBps int64    `json:"trade_fee_bps"`
}

func (u User) FeeExempt() bool {
	return u.Role == UserRoleAdmin
}

type Order struct {
	ID              string      `json:"id"`
	WalletID        string      `json:"wallet_id"`
	ChainID         uint64      `json:"chain_id"`
	Side            OrderSide   `json:"side"`
	Status          OrderStatus `json:"status"`
	IsActive        bool        `json:"is_active"`
	IsBusy          bool        `json:"is_busy"`
	CollateralToken Token       `json:"collateral_token"`
	OrderToken      Token       `json:"order_token"`
	OutputToken     Token       `json:"output_token"`
	OrderSize       string      `json:"order_size"`
	TokenAmount     string      `json:"token_amount"`
	Owner           *User       `json:"owner,omitempty"`
}

func (o Order) Token(role TokenRole) Token {
	switch role {
	case TokenRoleCollateral:
		return o.CollateralToken
	case TokenRoleOrder:
		return o.OrderToken
	default:
		return o.OutputToken
	}
}

type DraftOrder struct {
	SlotID          string      `json:"slot_id"`
	WalletID        string      `json:"wallet_id"`
	ChainID         uint64      `json:"chain_id"`
	Side            OrderSide   `json:"side"`
	Status          OrderStatus `json:"status,omitempty"`
	CollateralToken Token       `json:"collateral_token"`
	OrderToken      Token       `json:"order_token"`
	OutputToken     Token       `json:"output_token"`
	OrderSize       string      `json:"order_size"`
	TokenAmount     string      `json:"token_amount"`
	Owner           *User       `json:"owner,omitempty"`
}

// AsOrder возвращает черновик в виде активного ордера, который ещё не отправлен.
func (d DraftOrder) AsOrder() Order {
	status := d.Status
	if status == "" {
		status = OrderStatusPending
	}
	return Order{
		ID:              d.SlotID,
		WalletID:        d.WalletID,
		ChainID:         d.ChainID,
		Side:            d.Side,
		Status:          status,
		IsActive:        true,
		CollateralToken: d.CollateralToken,
		OrderToken:      d.OrderToken,
		OutputToken:     d.OutputToken,
		OrderSize:       d.OrderSize,
		TokenAmount:     d.TokenAmount,
		Owner:           d.Owner,
	}
}

type Wallet struct {
	ID       string   `json:"id"`
	Address  string   `json:"address"`
	Network  Network  `json:"network"`
	UserID   string   `json:"user_id"`
	ChainIDs []uint64 `json:"chain_ids"`
}
