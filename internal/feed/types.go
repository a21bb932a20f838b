package feed

import (
	"encoding/json"
	"sync"
	"time"

	"fundguard/internal/chain"
	"fundguard/internal/logger"
	"fundguard/internal/models"

	"github.com/gorilla/websocket"
)

const (
	TopicOrders = "orders"
	TopicDrafts = "drafts"
)

type Client struct {
	url          string
	apiKey       string
	secret       string
	log          *logger.Logger
	mu           sync.Mutex
	conn         *websocket.Conn
	events       chan chain.Event
	stopCh       chan struct{}
	stopOnce     sync.Once
	walletIDs    []string
	reconnectMin time.Duration
	reconnectMax time.Duration
}

type Message struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"`
	TS    int64           `json:"ts"`
	Data  json.RawMessage `json:"data"`
}

type AuthMessage struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

type SubscribeMessage struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

type draftUpdate struct {
	models.DraftOrder
	Removed bool `json:"removed"`
}
