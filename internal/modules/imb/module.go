package imb

import (
	"imb_bot/internal/modules/imb/service"
	scanner "imb_bot/internal/modules/scanner/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("imb",
		fx.Provide(
			service.NewAnalyzer, // *service.Analyzer
			func(a *service.Analyzer) scanner.Analyzer {
				return a
			},
		),
	)
}
