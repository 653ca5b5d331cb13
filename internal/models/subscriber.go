package models

import "time"

// SubscriberSettings — пользовательские настройки рассылки,
// хранятся в jsonb.
type SubscriberSettings struct {
	MinTier string `json:"min_tier"`
	Muted   bool   `json:"muted"`
}

// Subscriber — получатель сигналов. VIP с истёкшим сроком чистится
// при загрузке из базы.
type Subscriber struct {
	ChatID    int64
	Name      string
	VIP       bool
	VIPUntil  time.Time
	Settings  SubscriberSettings
	CreatedAt time.Time
}

func (s *Subscriber) VIPActive(now time.Time) bool {
	return s.VIP && now.Before(s.VIPUntil)
}
