package state

import (
	"imb_bot/internal/modules/state/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("state",
		fx.Provide(
			service.NewState, // *service.State
		),
	)
}
