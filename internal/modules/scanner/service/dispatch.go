package service

import (
	"context"
	"log"
	"sync"
	"time"

	"imb_bot/internal/models"
	state "imb_bot/internal/modules/state/service"

	"github.com/opentracing/opentracing-go"
)

// Analyzer — детектор сетапа по снапшоту закрытых свечей.
type Analyzer interface {
	Analyze(ctx context.Context, symbol string, candles []models.Candle) *models.SignalResult
}

// Broadcaster — рассылка готового сигнала подписчикам.
type Broadcaster interface {
	Broadcast(ctx context.Context, res *models.SignalResult)
}

// Gate — единственная точка, через которую сигнал уходит в рассылку.
// Держит кулдаун по символу: метка обновляется только на реально
// отправленном сигнале, пустой анализ кулдаун не трогает.
type Gate struct {
	st       *state.State
	analyzer Analyzer
	b        Broadcaster
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

func NewGate(st *state.State, analyzer Analyzer, b Broadcaster) *Gate {
	return &Gate{
		st:       st,
		analyzer: analyzer,
		b:        b,
		now:      time.Now,
		last:     make(map[string]time.Time),
	}
}

// Consider — вызывается воркером на закрытии свечи. Проверка кулдауна,
// анализ и фиксация метки идут под одним мьютексом: два закрытия одного
// символа (reconnect + live) не продублируют сигнал.
func (g *Gate) Consider(ctx context.Context, symbol string, candles []models.Candle) {
	if !g.st.Scanning() {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if prev, ok := g.last[symbol]; ok {
		if wait := g.st.Cooldown() - now.Sub(prev); wait > 0 {
			if g.st.Debug() {
				log.Printf("[GATE] %s: кулдаун ещё %s", symbol, wait.Truncate(time.Second))
			}
			return
		}
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "imb.analyze")
	span.SetTag("symbol", symbol)
	res := g.analyzer.Analyze(ctx, symbol, candles)
	span.Finish()

	if res == nil {
		return
	}

	g.last[symbol] = now
	log.Printf("[GATE] %s %s tier=%s score=%d entry=%.6f", res.Symbol, res.Side, res.Tier, res.Score, res.Entry)
	g.b.Broadcast(ctx, res)
}
