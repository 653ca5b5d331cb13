package service

import (
	"testing"
	"time"

	"imb_bot/internal/models"
)

func mkSeries(base, step float64, n int) []models.Candle {
	out := make([]models.Candle, n)
	t0 := time.Unix(0, 0).UTC()
	for i := 0; i < n; i++ {
		p := base + float64(i)*step
		out[i] = models.Candle{
			OpenTime: t0.Add(time.Duration(i) * time.Hour),
			Open:     p * 0.999,
			High:     p * 1.002,
			Low:      p * 0.997,
			Close:    p,
			Final:    true,
		}
	}
	return out
}

func TestDetectTrend(t *testing.T) {
	if got := detectTrend(mkSeries(100, 0.5, 150)); got != models.TrendUp {
		t.Fatalf("uptrend: got %s", got)
	}
	if got := detectTrend(mkSeries(100, -0.4, 150)); got != models.TrendDown {
		t.Fatalf("downtrend: got %s", got)
	}
	if got := detectTrend(mkSeries(100, 0, 150)); got != models.TrendRange {
		t.Fatalf("flat: got %s", got)
	}
	if got := detectTrend(mkSeries(100, 5, 10)); got != models.TrendRange {
		t.Fatalf("too short must be RANGE, got %s", got)
	}
}

func TestDiscountPremium(t *testing.T) {
	up := mkSeries(100, 1, 80) // close у верхней границы диапазона
	if got := discountPremium(up, 60); got != models.PositionPremium {
		t.Fatalf("top of range: got %s", got)
	}

	down := mkSeries(100, -1, 80)
	if got := discountPremium(down, 60); got != models.PositionDiscount {
		t.Fatalf("bottom of range: got %s", got)
	}

	if got := discountPremium(mkSeries(100, 1, 3), 60); got != models.PositionMid {
		t.Fatalf("too short must be MID, got %s", got)
	}
}

func TestAlignmentRules(t *testing.T) {
	cases := []struct {
		name           string
		h1             Classification
		m15            Classification
		okLong, okShort bool
	}{
		{
			name:    "neutral allows both",
			h1:      Neutral(),
			m15:     Neutral(),
			okLong:  true,
			okShort: true,
		},
		{
			name:    "downtrend premium vetoes long",
			h1:      Classification{Trend: models.TrendDown, Position: models.PositionPremium},
			m15:     Neutral(),
			okLong:  false,
			okShort: true,
		},
		{
			name:    "double premium vetoes long",
			h1:      Classification{Trend: models.TrendRange, Position: models.PositionPremium},
			m15:     Classification{Trend: models.TrendRange, Position: models.PositionPremium},
			okLong:  false,
			okShort: true,
		},
		{
			name:    "uptrend discount vetoes short",
			h1:      Classification{Trend: models.TrendUp, Position: models.PositionDiscount},
			m15:     Neutral(),
			okLong:  true,
			okShort: false,
		},
	}

	for _, tc := range cases {
		got := buildContext(tc.h1, tc.m15)
		if got.OKLong != tc.okLong || got.OKShort != tc.okShort {
			t.Fatalf("%s: okLong=%v okShort=%v", tc.name, got.OKLong, got.OKShort)
		}
	}
}
