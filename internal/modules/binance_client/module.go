package binance_client

import (
	"imb_bot/internal/modules/binance_client/service"
	scanner "imb_bot/internal/modules/scanner/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("binance_client",
		fx.Provide(
			service.NewClient, // *service.Client

			// адаптеры под интерфейсы сканера
			func(c *service.Client) scanner.Klines { return c },
			func(c *service.Client) scanner.ExchangeClient { return c },
		),
	)
}
