package binance_websocket

import (
	"imb_bot/internal/modules/binance_websocket/service"
	scanner "imb_bot/internal/modules/scanner/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("binance_websocket",
		fx.Provide(
			service.NewWorker, // *service.Worker

			func(g *scanner.Gate) service.Gate { return g },
			func(w *service.Worker) scanner.WorkerFunc { return w.Stream },
		),
	)
}
