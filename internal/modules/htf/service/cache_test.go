package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"imb_bot/internal/models"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }
func (f *fakeClock) set(sec int64)  { f.t = time.Unix(sec, 0) }

func newTestCache(fetch FetchFunc) (*Cache, *fakeClock) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	c := NewCache(map[Class]time.Duration{
		ClassM15: 900 * time.Second,
		ClassH1:  3600 * time.Second,
	}, fetch)
	c.now = clk.now
	return c, clk
}

func TestCacheTTLAndDegrade(t *testing.T) {
	up := Classification{Trend: models.TrendUp, Position: models.PositionDiscount}

	calls := 0
	fail := false
	cache, clk := newTestCache(func(ctx context.Context, symbol string, class Class) (Classification, error) {
		calls++
		if fail {
			return Classification{}, errors.New("rest down")
		}
		return up, nil
	})

	ctx := context.Background()

	// t=0: промах, успешный фетч
	if got := cache.Get(ctx, "BTCUSDT", ClassM15); got != up {
		t.Fatalf("want fetched value, got %+v", got)
	}
	if calls != 1 {
		t.Fatalf("expected 1 fetch, got %d", calls)
	}

	// t=500: свежий хит, без фетча
	clk.set(500)
	if got := cache.Get(ctx, "BTCUSDT", ClassM15); got != up {
		t.Fatalf("want cached value, got %+v", got)
	}
	if calls != 1 {
		t.Fatalf("fresh hit must not fetch, calls=%d", calls)
	}

	// t=901: TTL истёк, фетч падает -> старое значение, не нейтраль
	clk.set(901)
	fail = true
	if got := cache.Get(ctx, "BTCUSDT", ClassM15); got != up {
		t.Fatalf("failed refetch must return last known value, got %+v", got)
	}
	if calls != 2 {
		t.Fatalf("expected refetch attempt, calls=%d", calls)
	}

	// таймстемп не обновился -> следующий вызов ретраит сразу
	if got := cache.Get(ctx, "BTCUSDT", ClassM15); got != up {
		t.Fatalf("degrade must persist, got %+v", got)
	}
	if calls != 3 {
		t.Fatalf("failure must not start a TTL window, calls=%d", calls)
	}
}

func TestCacheNeutralDefaultForFreshSymbol(t *testing.T) {
	cache, _ := newTestCache(func(ctx context.Context, symbol string, class Class) (Classification, error) {
		return Classification{}, errors.New("rest down")
	})

	got := cache.Get(context.Background(), "NEWUSDT", ClassH1)
	if got != Neutral() {
		t.Fatalf("fresh symbol with failed fetch must be neutral, got %+v", got)
	}
	if got.Trend != models.TrendRange || got.Position != models.PositionMid {
		t.Fatalf("neutral must be (RANGE, MID), got %+v", got)
	}
}

func TestCacheClocksAreIndependentPerClass(t *testing.T) {
	calls := map[Class]int{}
	cache, clk := newTestCache(func(ctx context.Context, symbol string, class Class) (Classification, error) {
		calls[class]++
		return Neutral(), nil
	})

	ctx := context.Background()
	cache.Get(ctx, "BTCUSDT", ClassM15)
	cache.Get(ctx, "BTCUSDT", ClassH1)

	// 15m истёк, 1h ещё свежий
	clk.set(1000)
	cache.Get(ctx, "BTCUSDT", ClassM15)
	cache.Get(ctx, "BTCUSDT", ClassH1)

	if calls[ClassM15] != 2 || calls[ClassH1] != 1 {
		t.Fatalf("per-class TTLs broken: %v", calls)
	}
}
