package service

import (
	"context"

	"imb_bot/internal/models"
)

// Context — HTF-контекст для анализатора: тренд 1h, позиция в диапазоне
// 1h и 15m, плюс готовые вето-правила для лонга/шорта.
type Context struct {
	Trend1h models.TrendState
	Pos1h   models.PositionState
	Pos15m  models.PositionState
	OKLong  bool
	OKShort bool
}

func NeutralContext() Context {
	return Context{
		Trend1h: models.TrendRange,
		Pos1h:   models.PositionMid,
		Pos15m:  models.PositionMid,
		OKLong:  true,
		OKShort: true,
	}
}

// Service — то, что видит анализатор: кэшированный контекст по символу.
type Service struct {
	cache *Cache
}

func NewService(cache *Cache) *Service {
	return &Service{cache: cache}
}

// Context — собирает контекст из кэша (фетч только по истёкшему TTL).
// Правила:
//   - лонг запрещён, если 1h DOWN и цена в PREMIUM 1h, либо PREMIUM
//     сразу на 1h и 15m;
//   - шорт зеркально.
func (s *Service) Context(ctx context.Context, symbol string) Context {
	h1 := s.cache.Get(ctx, symbol, ClassH1)
	m15 := s.cache.Get(ctx, symbol, ClassM15)
	return buildContext(h1, m15)
}

func buildContext(h1, m15 Classification) Context {
	out := Context{
		Trend1h: h1.Trend,
		Pos1h:   h1.Position,
		Pos15m:  m15.Position,
	}

	out.OKLong = !(out.Trend1h == models.TrendDown && out.Pos1h == models.PositionPremium)
	if out.Pos1h == models.PositionPremium && out.Pos15m == models.PositionPremium {
		out.OKLong = false
	}

	out.OKShort = !(out.Trend1h == models.TrendUp && out.Pos1h == models.PositionDiscount)
	if out.Pos1h == models.PositionDiscount && out.Pos15m == models.PositionDiscount {
		out.OKShort = false
	}

	return out
}
