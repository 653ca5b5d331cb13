package service

import (
	"context"

	"imb_bot/internal/models"
)

// Klines — кусок REST-клиента, который нужен классификатору.
type Klines interface {
	GetKlines(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error)
}

// detectTrend — грубые свинги по сетке: берём каждую step-ю свечу и
// сравниваем первые/последние хай-лоу с небольшим порогом против шума.
func detectTrend(candles []models.Candle) models.TrendState {
	n := len(candles)
	if n < 20 {
		return models.TrendRange
	}

	step := n / 10
	if step < 2 {
		step = 2
	}

	var swingHighs, swingLows []float64
	for i := 0; i < n; i += step {
		swingHighs = append(swingHighs, candles[i].High)
		swingLows = append(swingLows, candles[i].Low)
	}
	if len(swingHighs) < 3 || len(swingLows) < 3 {
		return models.TrendRange
	}

	firstH, lastH := swingHighs[0], swingHighs[len(swingHighs)-1]
	firstL, lastL := swingLows[0], swingLows[len(swingLows)-1]

	if lastH > firstH*1.01 && lastL > firstL*1.005 {
		return models.TrendUp
	}
	if lastH < firstH*0.99 && lastL < firstL*0.995 {
		return models.TrendDown
	}
	return models.TrendRange
}

// discountPremium — позиция последней цены внутри диапазона последних
// window свечей: нижние 35% — DISCOUNT, верхние 35% — PREMIUM.
func discountPremium(candles []models.Candle, window int) models.PositionState {
	n := len(candles)
	if n < 5 {
		return models.PositionMid
	}

	start := n - window
	if start < 0 {
		start = 0
	}

	rangeHigh := candles[start].High
	rangeLow := candles[start].Low
	for _, c := range candles[start:] {
		if c.High > rangeHigh {
			rangeHigh = c.High
		}
		if c.Low < rangeLow {
			rangeLow = c.Low
		}
	}
	if rangeHigh <= rangeLow {
		return models.PositionMid
	}

	price := candles[n-1].Close
	pos := (price - rangeLow) / (rangeHigh - rangeLow)
	switch {
	case pos <= 0.35:
		return models.PositionDiscount
	case pos >= 0.65:
		return models.PositionPremium
	default:
		return models.PositionMid
	}
}

// NewClassifier — fetch+classify поверх REST-клиента.
func NewClassifier(client Klines, fetchLimit int) FetchFunc {
	return func(ctx context.Context, symbol string, class Class) (Classification, error) {
		candles, err := client.GetKlines(ctx, symbol, string(class), fetchLimit)
		if err != nil {
			return Classification{}, err
		}

		out := Classification{
			Trend:    models.TrendRange,
			Position: discountPremium(candles, 60),
		}
		if class == ClassH1 {
			out.Trend = detectTrend(candles)
		}
		return out, nil
	}
}
