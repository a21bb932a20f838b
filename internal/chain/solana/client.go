package solana

import (
	"fundguard/internal/logger"
	"net/http"
	"sync/atomic"
	"time"
)

type Client struct {
	rpcURL     string
	httpClient *http.Client
	log        *logger.Logger
	nextID     atomic.Uint64
}

func New(rpcURL string, log *logger.Logger) *Client {
	return &Client{
		rpcURL: rpcURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}
