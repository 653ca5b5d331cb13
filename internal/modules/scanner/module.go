package scanner

import (
	"context"

	"imb_bot/internal/modules/scanner/service"
	state "imb_bot/internal/modules/state/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("scanner",
		fx.Provide(
			service.NewGate,
			service.NewPreloader,
			service.NewOrchestrator,
		),

		fx.Invoke(func(lc fx.Lifecycle, o *service.Orchestrator, st *state.State) {
			runCtx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go o.Run(runCtx)
					return nil
				},
				OnStop: func(_ context.Context) error {
					st.SetRunning(false)
					cancel()
					return nil
				},
			})
		}),
	)
}
