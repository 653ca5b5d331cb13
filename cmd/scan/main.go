package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"imb_bot/internal/models"
	binance "imb_bot/internal/modules/binance_client/service"
	"imb_bot/internal/modules/config"
	htf "imb_bot/internal/modules/htf/service"
	imb "imb_bot/internal/modules/imb/service"
	state "imb_bot/internal/modules/state/service"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Одноразовый пробник детектора: качает историю по символу и гоняет
// анализ так же, как это делает гейт на закрытии свечи. Конфиг целиком
// из env: SYMBOL, TIMEFRAME, LIMIT, REST_URL, USE_HTF.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SYMBOL", "BTCUSDT")
	v.SetDefault("TIMEFRAME", "5m")
	v.SetDefault("LIMIT", 120)
	v.SetDefault("REST_URL", "https://fapi.binance.com")
	v.SetDefault("USE_HTF", true)
	v.SetDefault("MIN_TIER", "B")

	cfg := &config.Config{
		CooldownDefault: time.Minute,
		TTL1h:           time.Hour,
		TTL15m:          15 * time.Minute,
		IMB:             models.DefaultIMBSettings(),
		MinTier:         v.GetString("MIN_TIER"),
	}
	cfg.Binance.RestURL = v.GetString("REST_URL")
	cfg.Scanner.Timeframe = v.GetString("TIMEFRAME")
	cfg.Scanner.MinCandles = 40
	cfg.HTF.FetchLimit = 150
	cfg.IMB.UseHTFFilter = v.GetBool("USE_HTF")

	st := state.NewState(cfg)
	client := binance.NewClient(cfg)
	cache := htf.NewCache(map[htf.Class]time.Duration{
		htf.ClassH1:  cfg.TTL1h,
		htf.ClassM15: cfg.TTL15m,
	}, htf.NewClassifier(client, cfg.HTF.FetchLimit))
	analyzer := imb.NewAnalyzer(st, htf.NewService(cache))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	symbol := v.GetString("SYMBOL")
	candles, err := client.GetKlines(ctx, symbol, cfg.Scanner.Timeframe, v.GetInt("LIMIT"))
	if err != nil {
		return errors.Wrap(err, "klines")
	}
	fmt.Printf("%s %s: %d закрытых свечей\n", symbol, cfg.Scanner.Timeframe, len(candles))

	res := analyzer.Analyze(ctx, symbol, candles)
	if res == nil {
		fmt.Println("сетапа на последней свече нет")
		return nil
	}

	fmt.Printf("side=%s tier=%s score=%d rr(tp2)=%.2f sl%%=%.2f\n",
		res.Side, res.Tier, res.Score, res.RRTP2, res.SLPct)
	fmt.Println()
	fmt.Println(res.Message)
	return nil
}
