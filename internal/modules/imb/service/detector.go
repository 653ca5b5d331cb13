package service

import (
	"context"
	"time"

	"imb_bot/internal/models"
	htf "imb_bot/internal/modules/htf/service"
	state "imb_bot/internal/modules/state/service"
)

// HTFProvider — кэшированный HTF-контекст (1h/15m).
type HTFProvider interface {
	Context(ctx context.Context, symbol string) htf.Context
}

// Analyzer — детектор Institutional Mitigation Block по закрытой 5m-свече:
// импульс -> блок перед импульсом -> уровни -> RR-гейт -> HTF-вето ->
// скоринг и тир. Все пороги приходят из state (пресеты меняют на лету).
type Analyzer struct {
	st  *state.State
	htf HTFProvider
	now func() time.Time
}

func NewAnalyzer(st *state.State, htfSvc *htf.Service) *Analyzer {
	return &Analyzer{st: st, htf: htfSvc, now: time.Now}
}

type impulse struct {
	index    int
	side     models.Side
	strength float64
}

type block struct {
	index    int
	high     float64
	low      float64
	rangePct float64
}

func avgBody(candles []models.Candle, count int) float64 {
	n := count
	if n > len(candles) {
		n = len(candles)
	}
	if n <= 0 {
		return 0
	}
	total := 0.0
	for _, c := range candles[len(candles)-n:] {
		total += c.Body()
	}
	return total / float64(n)
}

// detectImpulse — самая сильная импульсная свеча в хвосте буфера:
// тело >= minStrength средних тел, close в крайней зоне диапазона свечи.
func detectImpulse(candles []models.Candle, set models.IMBSettings) *impulse {
	if len(candles) < 15 {
		return nil
	}

	lookback := set.ImpulseLookback
	if lookback > len(candles) {
		lookback = len(candles)
	}
	segment := candles[len(candles)-lookback:]
	base := avgBody(segment[:len(segment)-1], set.ImpulseAvgBody)
	if base <= 0 {
		return nil
	}

	best := (*impulse)(nil)
	for i, c := range segment {
		body := c.Body()
		if body <= 0 || c.High <= c.Low {
			continue
		}
		strength := body / base
		if strength < set.ImpulseMinStrength {
			continue
		}

		pos := (c.Close - c.Low) / (c.High - c.Low)
		idx := len(candles) - lookback + i

		if c.Bullish() && pos >= set.ImpulseClosePos {
			if best == nil || strength > best.strength {
				best = &impulse{index: idx, side: models.SideLong, strength: strength}
			}
		}
		if c.Bearish() && pos <= 1-set.ImpulseClosePos {
			if best == nil || strength > best.strength {
				best = &impulse{index: idx, side: models.SideShort, strength: strength}
			}
		}
	}
	return best
}

// findBlock — последняя контр-свеча перед импульсом: для лонга медвежья,
// для шорта бычья. Слишком широкий блок (доля цены) бракуем.
func findBlock(candles []models.Candle, imp *impulse, set models.IMBSettings) *block {
	if imp.index <= 0 {
		return nil
	}

	lo := imp.index - set.BlockLookback
	if lo < 0 {
		lo = 0
	}

	idx := -1
	for i := imp.index - 1; i >= lo; i-- {
		c := candles[i]
		if imp.side == models.SideLong && c.Bearish() {
			idx = i
			break
		}
		if imp.side == models.SideShort && c.Bullish() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	b := candles[idx]
	if b.High <= b.Low {
		return nil
	}

	ref := candles[imp.index].Close
	if ref == 0 {
		return nil
	}
	rangePct := (b.High - b.Low) / ref
	if rangePct > set.MaxBlockRangePct {
		return nil
	}

	return &block{index: idx, high: b.High, low: b.Low, rangePct: rangePct}
}

// touchedBlock — была ли сделка обратно в диапазон блока после импульса.
func touchedBlock(candles []models.Candle, blk *block, imp *impulse) bool {
	for _, c := range candles[imp.index+1:] {
		if c.Low <= blk.high && c.High >= blk.low {
			return true
		}
	}
	return false
}

// cleanReaction — последний close на торговой стороне середины блока.
func cleanReaction(candles []models.Candle, blk *block, side models.Side) bool {
	last := candles[len(candles)-1]
	mid := (blk.high + blk.low) / 2
	if side == models.SideLong {
		return last.Close >= mid
	}
	return last.Close <= mid
}

// Analyze — nil, если сетапа нет. Вызывается гейтом только на закрытой
// свече при включённом скане и достаточной истории.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, candles []models.Candle) *models.SignalResult {
	set := a.st.IMBSettings()

	if len(candles) < set.MinHistory {
		return nil
	}

	imp := detectImpulse(candles, set)
	if imp == nil {
		return nil
	}

	// сетап протухает: импульс не старше max_entry_age свечей
	if len(candles)-1-imp.index > set.MaxEntryAgeCandles {
		return nil
	}

	blk := findBlock(candles, imp, set)
	if blk == nil {
		return nil
	}

	lv := buildLevels(imp.side, blk, candles[imp.index].Close, set)
	if lv == nil {
		return nil
	}
	if lv.rrTP2 < set.MinRRTP2 {
		return nil
	}

	htfCtx := htf.NeutralContext()
	if set.UseHTFFilter {
		htfCtx = a.htf.Context(ctx, symbol)
	}
	if imp.side == models.SideLong && !htfCtx.OKLong {
		return nil
	}
	if imp.side == models.SideShort && !htfCtx.OKShort {
		return nil
	}

	aligned := htfCtx.OKLong
	if imp.side == models.SideShort {
		aligned = htfCtx.OKShort
	}

	q := evaluateQuality(qualityMeta{
		hasBlock:   true,
		impulseOK:  imp.strength >= set.ImpulseMinStrength,
		touchOK:    touchedBlock(candles, blk, imp),
		reactionOK: cleanReaction(candles, blk, imp.side),
		rrOK:       lv.rrTP2 >= set.MinRRTP2,
		slPct:      lv.slPct,
		htfAligned: aligned,
	}, set, a.st.MinTier())
	if !q.shouldSend {
		return nil
	}

	res := &models.SignalResult{
		Symbol: symbol,
		Side:   imp.side,
		Entry:  lv.entry,
		SL:     lv.sl,
		TP1:    lv.tp1,
		TP2:    lv.tp2,
		TP3:    lv.tp3,
		SLPct:  lv.slPct,
		RRTP2:  lv.rrTP2,
		Score:  q.score,
		Tier:   q.tier,
		At:     a.now(),
	}
	res.Message = buildMessage(res, htfCtx, set)
	return res
}
