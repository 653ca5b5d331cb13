package main

import (
	"context"
	"log"

	"imb_bot/internal/modules/binance_client"
	"imb_bot/internal/modules/binance_websocket"
	"imb_bot/internal/modules/config"
	"imb_bot/internal/modules/health"
	"imb_bot/internal/modules/htf"
	"imb_bot/internal/modules/imb"
	"imb_bot/internal/modules/ohlc"
	"imb_bot/internal/modules/postgres"
	"imb_bot/internal/modules/scanner"
	"imb_bot/internal/modules/state"
	"imb_bot/pkg/logger"
	"imb_bot/pkg/tracing"

	telegram "imb_bot/internal/modules/telegram_bot"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func initLoggers() {
	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("zap: %v", err)
	}
	logger.InfoLogger = zl
	logger.FatalLogger = zl
	logger.SetServiceName("imb_bot")
}

// трейсер опционален: без jaeger-агента живём на noop-глобале
func initTracing(cfg *config.Config) func() {
	if cfg.Jaeger.Host == "" {
		return func() {}
	}
	tracing.SetServiceName("imb_bot")
	_, closeTracer, err := tracing.InitTracer(tracing.Config{
		Host: cfg.Jaeger.Host,
		Port: cfg.Jaeger.Port,
	})
	if err != nil {
		logger.Error("jaeger init: %v", err)
		return func() {}
	}
	return closeTracer
}

func main() {
	initLoggers()

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		state.Module(),
		health.Module(),
		postgres.Module(),
		ohlc.Module(),
		binance_client.Module(),
		binance_websocket.Module(),
		htf.Module(),
		imb.Module(),
		scanner.Module(),
		telegram.Module(),

		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) {
			closeTracer := initTracing(cfg)
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					closeTracer()
					return nil
				},
			})
		}),
	)

	app.Run()
}
