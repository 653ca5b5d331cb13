package ohlc

import (
	"imb_bot/internal/modules/ohlc/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("ohlc",
		fx.Provide(
			service.NewStore, // *service.Store
		),
	)
}
