package htf

import (
	"time"

	binance "imb_bot/internal/modules/binance_client/service"
	"imb_bot/internal/modules/config"
	"imb_bot/internal/modules/htf/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("htf",
		fx.Provide(
			func(cfg *config.Config, client *binance.Client) *service.Cache {
				ttl := map[service.Class]time.Duration{
					service.ClassH1:  cfg.TTL1h,
					service.ClassM15: cfg.TTL15m,
				}
				return service.NewCache(ttl, service.NewClassifier(client, cfg.HTF.FetchLimit))
			},
			service.NewService, // *service.Service
		),
	)
}
