package service

import "imb_bot/internal/models"

type levels struct {
	entry float64
	sl    float64
	tp1   float64
	tp2   float64
	tp3   float64
	risk  float64
	slPct float64
	rrTP2 float64
}

// buildLevels — вход в середине блока, SL за блоком с буфером от цены
// импульса, тейки по RR к риску.
func buildLevels(side models.Side, blk *block, refPrice float64, set models.IMBSettings) *levels {
	mid := (blk.high + blk.low) / 2
	if refPrice <= 0 {
		refPrice = mid
	}
	buffer := refPrice * set.SLBufferPct

	lv := &levels{entry: mid}
	if side == models.SideLong {
		lv.sl = blk.low - buffer
		lv.risk = lv.entry - lv.sl
		lv.tp1 = lv.entry + set.TP1RR*lv.risk
		lv.tp2 = lv.entry + set.TP2RR*lv.risk
		lv.tp3 = lv.entry + set.TP3RR*lv.risk
	} else {
		lv.sl = blk.high + buffer
		lv.risk = lv.sl - lv.entry
		lv.tp1 = lv.entry - set.TP1RR*lv.risk
		lv.tp2 = lv.entry - set.TP2RR*lv.risk
		lv.tp3 = lv.entry - set.TP3RR*lv.risk
	}

	if lv.risk <= 0 || lv.entry == 0 {
		return nil
	}

	lv.slPct = lv.risk / lv.entry * 100
	if lv.slPct < 0 {
		lv.slPct = -lv.slPct
	}
	lv.rrTP2 = (lv.tp2 - lv.entry) / lv.risk
	if lv.rrTP2 < 0 {
		lv.rrTP2 = -lv.rrTP2
	}
	return lv
}

// recommendLeverage — диапазон плеча от SL%: чем шире стоп, тем ниже.
func recommendLeverage(slPct float64) (float64, float64) {
	switch {
	case slPct <= 0:
		return 5, 10
	case slPct <= 0.25:
		return 25, 40
	case slPct <= 0.50:
		return 15, 25
	case slPct <= 0.80:
		return 8, 15
	case slPct <= 1.20:
		return 5, 8
	default:
		return 3, 5
	}
}
