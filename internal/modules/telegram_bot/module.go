package telegram

import (
	"context"
	"log"

	scanner "imb_bot/internal/modules/scanner/service"
	"imb_bot/internal/modules/telegram_bot/service"
	"imb_bot/internal/modules/telegram_bot/service/pg"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("telegram",
		// 1. Репозиторий подписчиков
		fx.Provide(
			pg.NewSubscribers, // func(*db.PgTxManager) *pg.Subscribers
		),

		// 2. Сервис Telegram как *service.Telegram
		fx.Provide(
			service.NewTelegram, // func(*config.Config, *state.State, *pg.Subscribers) (*service.Telegram, error)
		),

		// 3. Адаптеры под интерфейсы сканера
		fx.Provide(
			func(t *service.Telegram) scanner.Broadcaster { return t },
			func(t *service.Telegram) scanner.ServiceNotifier { return t },
		),

		// Запуск long-polling через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram) {
				runCtx, cancel := context.WithCancel(context.Background())
				lc.Append(fx.Hook{
					OnStart: func(_ context.Context) error {
						go func() {
							if err := t.Start(runCtx); err != nil {
								log.Printf("[TG] start: %v", err)
							}
						}()
						return nil
					},
					OnStop: func(_ context.Context) error {
						t.Stop()
						cancel()
						return nil
					},
				})
			},
		),
	)
}
