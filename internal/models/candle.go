package models

import "time"

// Candle — одна OHLC-свеча фиксированного бакета.
// Final=false — свеча ещё формируется и может быть перезаписана
// следующим апдейтом с тем же OpenTime.
type Candle struct {
	OpenTime    time.Time
	CloseTime   time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	QuoteVolume float64
	Final       bool
}

// Body — абсолютное тело свечи.
func (c Candle) Body() float64 {
	b := c.Close - c.Open
	if b < 0 {
		return -b
	}
	return b
}

func (c Candle) Bullish() bool { return c.Close > c.Open }
func (c Candle) Bearish() bool { return c.Close < c.Open }
