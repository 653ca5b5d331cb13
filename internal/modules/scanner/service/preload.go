package service

import (
	"context"
	"log"
	"sync"

	"imb_bot/internal/models"
	"imb_bot/internal/modules/config"
	ohlc "imb_bot/internal/modules/ohlc/service"
)

// Klines — REST-история закрытых свечей.
type Klines interface {
	GetKlines(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error)
}

// Preloader — прогрев буферов перед стартом эпохи, чтобы детектор не
// ждал min_candles живых закрытий. Параллелизм ограничен семафором:
// REST Binance режет бурсты.
type Preloader struct {
	cfg    *config.Config
	store  *ohlc.Store
	client Klines
}

func NewPreloader(cfg *config.Config, store *ohlc.Store, client Klines) *Preloader {
	return &Preloader{cfg: cfg, store: store, client: client}
}

// Warmup — грузит историю по всем символам, возвращает счётчики.
// Ошибка по одному символу не валит прогрев: символ доберёт историю
// из стрима.
func (p *Preloader) Warmup(ctx context.Context, symbols []string) (loaded, failed int) {
	parallel := p.cfg.PreloadParallel
	if parallel <= 0 {
		parallel = 1
	}
	sem := make(chan struct{}, parallel)

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, sym := range symbols {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(sym string) {
			defer wg.Done()
			defer func() { <-sem }()

			candles, err := p.client.GetKlines(ctx, sym, p.cfg.Scanner.Timeframe, p.cfg.Scanner.PreloadLimit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("[WARMUP] %s: %v", sym, err)
				failed++
				return
			}
			p.store.Preload(sym, candles)
			loaded++
		}(sym)
	}

	wg.Wait()
	return loaded, failed
}
