package service

import (
	"context"
	"testing"
	"time"

	"imb_bot/internal/models"
	"imb_bot/internal/modules/config"
	htf "imb_bot/internal/modules/htf/service"
	state "imb_bot/internal/modules/state/service"
)

func c(open, high, low, closeP float64) models.Candle {
	return models.Candle{Open: open, High: high, Low: low, Close: closeP, Final: true}
}

func testSettings() models.IMBSettings {
	set := models.DefaultIMBSettings()
	set.UseHTFFilter = false
	set.MinHistory = 20
	set.ImpulseLookback = 10
	set.ImpulseAvgBody = 5
	set.MaxBlockRangePct = 0.01
	return set
}

func newTestState(set models.IMBSettings) *state.State {
	cfg := &config.Config{CooldownDefault: time.Minute, IMB: set}
	cfg.Scanner.MinCandles = 40
	st := state.NewState(cfg)
	st.SetMinTier(models.TierB)
	return st
}

type fakeHTF struct {
	ctx htf.Context
}

func (f fakeHTF) Context(_ context.Context, _ string) htf.Context { return f.ctx }

// Серия с полным лонг-сетапом: тихий флэт, медвежий блок, бычий импульс,
// ретест блока и закрытие над серединой.
func longSetup() []models.Candle {
	candles := make([]models.Candle, 0, 20)
	for i := 0; i < 15; i++ {
		candles = append(candles, c(100.0, 100.15, 99.9, 100.1))
	}
	candles = append(candles,
		c(100.2, 100.25, 99.85, 99.9),  // блок: медвежья перед импульсом
		c(99.9, 101.5, 99.85, 101.4),   // импульс: тело 1.5, close у хая
		c(101.0, 101.1, 100.0, 100.8),  // ретест в диапазон блока
		c(100.8, 100.9, 100.6, 100.7),  // пауза
		c(100.7, 100.8, 100.4, 100.5),  // реакция: close над серединой блока
	)
	return candles
}

func TestAnalyzeLongSetup(t *testing.T) {
	set := testSettings()
	a := &Analyzer{st: newTestState(set), htf: fakeHTF{}, now: time.Now}

	res := a.Analyze(context.Background(), "BTCUSDT", longSetup())
	if res == nil {
		t.Fatal("expected signal, got nil")
	}
	if res.Side != models.SideLong {
		t.Fatalf("side = %s, want LONG", res.Side)
	}
	wantEntry := (100.25 + 99.85) / 2
	if res.Entry != wantEntry {
		t.Fatalf("entry = %v, want %v", res.Entry, wantEntry)
	}
	if res.SL >= res.Entry {
		t.Fatalf("SL %v must be below entry %v", res.SL, res.Entry)
	}
	if !(res.TP1 < res.TP2 && res.TP2 < res.TP3) {
		t.Fatalf("TPs not ascending: %v %v %v", res.TP1, res.TP2, res.TP3)
	}
	if res.Tier != models.TierAPlus {
		t.Fatalf("tier = %s, want A+ (score %d)", res.Tier, res.Score)
	}
	if res.Message == "" {
		t.Fatal("empty signal message")
	}
}

func TestAnalyzeStaleImpulse(t *testing.T) {
	set := testSettings()
	a := &Analyzer{st: newTestState(set), htf: fakeHTF{}, now: time.Now}

	// импульс уезжает глубже max_entry_age свечей в историю
	candles := longSetup()
	for i := 0; i < 4; i++ {
		candles = append(candles, c(100.5, 100.6, 100.4, 100.55))
	}
	if res := a.Analyze(context.Background(), "BTCUSDT", candles); res != nil {
		t.Fatalf("stale impulse must not signal, got %+v", res)
	}
}

func TestAnalyzeShortHistory(t *testing.T) {
	set := testSettings()
	a := &Analyzer{st: newTestState(set), htf: fakeHTF{}, now: time.Now}

	candles := longSetup()[5:] // 15 < MinHistory
	if res := a.Analyze(context.Background(), "BTCUSDT", candles); res != nil {
		t.Fatal("short history must not signal")
	}
}

func TestAnalyzeRejectsWideBlock(t *testing.T) {
	set := testSettings()
	set.MaxBlockRangePct = 0.001 // блок 0.4 на цене ~101 слишком широк
	a := &Analyzer{st: newTestState(set), htf: fakeHTF{}, now: time.Now}

	if res := a.Analyze(context.Background(), "BTCUSDT", longSetup()); res != nil {
		t.Fatal("wide block must not signal")
	}
}

func TestAnalyzeHTFVeto(t *testing.T) {
	set := testSettings()
	set.UseHTFFilter = true
	veto := htf.Context{
		Trend1h: models.TrendDown,
		Pos1h:   models.PositionPremium,
		Pos15m:  models.PositionPremium,
		OKLong:  false,
		OKShort: true,
	}
	a := &Analyzer{st: newTestState(set), htf: fakeHTF{ctx: veto}, now: time.Now}

	if res := a.Analyze(context.Background(), "BTCUSDT", longSetup()); res != nil {
		t.Fatal("HTF veto must drop the long setup")
	}
}

func TestDetectImpulseShort(t *testing.T) {
	set := testSettings()
	candles := make([]models.Candle, 0, 12)
	for i := 0; i < 10; i++ {
		candles = append(candles, c(100.0, 100.15, 99.9, 100.1))
	}
	candles = append(candles,
		c(100.1, 100.15, 98.6, 98.7), // медвежий импульс, close у лоя
		c(98.7, 98.8, 98.5, 98.6),
	)

	imp := detectImpulse(candles, set)
	if imp == nil {
		t.Fatal("expected impulse")
	}
	if imp.side != models.SideShort {
		t.Fatalf("side = %s, want SHORT", imp.side)
	}
	if imp.index != 10 {
		t.Fatalf("index = %d, want 10", imp.index)
	}
}

func TestBuildLevelsShort(t *testing.T) {
	set := testSettings()
	blk := &block{high: 101.0, low: 100.6}

	lv := buildLevels(models.SideShort, blk, 100.0, set)
	if lv == nil {
		t.Fatal("expected levels")
	}
	wantEntry := (blk.high + blk.low) / 2
	if lv.entry != wantEntry {
		t.Fatalf("entry = %v, want %v", lv.entry, wantEntry)
	}
	if lv.sl <= blk.high {
		t.Fatalf("short SL %v must sit above block high %v", lv.sl, blk.high)
	}
	if lv.tp1 <= lv.tp2 || lv.tp2 <= lv.tp3 {
		t.Fatalf("short TPs must descend: %v %v %v", lv.tp1, lv.tp2, lv.tp3)
	}
	if d := lv.rrTP2 - set.TP2RR; d > 1e-9 || d < -1e-9 {
		t.Fatalf("rrTP2 = %v, want %v", lv.rrTP2, set.TP2RR)
	}
}
