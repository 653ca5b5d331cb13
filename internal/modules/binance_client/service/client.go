package service

import (
	"net/http"
	"time"

	"imb_bot/internal/modules/config"
)

// Client — REST-клиент Binance USDT-M futures: история свечей для
// preload/HTF и ранжирование пар по обороту.
type Client struct {
	cfg     *config.Config
	http    *http.Client
	baseURL string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: cfg.Binance.RestURL,
	}
}
