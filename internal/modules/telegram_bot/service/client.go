package service

import (
	"context"
	"fmt"
	"log"

	"imb_bot/internal/modules/config"
	state "imb_bot/internal/modules/state/service"
	"imb_bot/internal/modules/telegram_bot/service/pg"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram — управляющая плоскость бота: команды, статус, рассылка.
type Telegram struct {
	bot  *tgbot.BotAPI
	cfg  *config.Config
	st   *state.State
	repo *pg.Subscribers
}

func NewTelegram(cfg *config.Config, st *state.State, repo *pg.Subscribers) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}

	return &Telegram{
		bot:  b,
		cfg:  cfg,
		st:   st,
		repo: repo,
	}, nil
}

func (t *Telegram) Send(ctx context.Context, chatID int64, msg string) (tgbot.Message, error) {
	return t.bot.Send(tgbot.NewMessage(chatID, msg))
}

func (t *Telegram) SendF(ctx context.Context, chatID int64, format string, args ...any) (tgbot.Message, error) {
	return t.Send(ctx, chatID, fmt.Sprintf(format, args...))
}

// SendService — операционные сообщения в служебный чат (эпохи, прогрев,
// падения). Без настроенного чата просто пишем в лог.
func (t *Telegram) SendService(ctx context.Context, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if t.cfg.Telegram.ServiceChatID == 0 {
		log.Printf("[SERVICE] %s", text)
		return
	}
	if _, err := t.Send(ctx, t.cfg.Telegram.ServiceChatID, text); err != nil {
		log.Printf("[SERVICE] send error: %v", err)
	}
}

// Start — long-polling цикл апдейтов. Блокируется до StopReceivingUpdates.
func (t *Telegram) Start(ctx context.Context) error {
	if err := t.repo.Load(ctx); err != nil {
		return err
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)
	for update := range updates {
		t.handleUpdate(ctx, update)
	}
	return nil
}

func (t *Telegram) Stop() {
	t.bot.StopReceivingUpdates()
}
