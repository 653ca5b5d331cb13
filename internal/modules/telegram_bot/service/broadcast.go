package service

import (
	"context"
	"log"

	"imb_bot/internal/models"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Broadcast — сигнал всем подписчикам. Персональный порог подписчика
// сильнее общего; замьюченные пропускаются. Ошибка отправки одному
// не ломает рассылку остальным.
func (t *Telegram) Broadcast(ctx context.Context, res *models.SignalResult) {
	t.st.CountSignal()

	for _, sub := range t.repo.All() {
		if sub.Settings.Muted {
			continue
		}
		if min, ok := models.ParseTier(sub.Settings.MinTier); ok {
			if models.TierRank(res.Tier) < models.TierRank(min) {
				continue
			}
		}

		msg := tgbot.NewMessage(sub.ChatID, res.Message)
		msg.ParseMode = tgbot.ModeMarkdown
		if _, err := t.bot.Send(msg); err != nil {
			log.Printf("[CAST] %d: %v", sub.ChatID, err)
		}
	}
}
