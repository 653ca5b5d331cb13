package service

import "imb_bot/internal/models"

type qualityMeta struct {
	hasBlock   bool
	impulseOK  bool
	touchOK    bool
	reactionOK bool
	rrOK       bool
	slPct      float64
	htfAligned bool
}

type quality struct {
	score      int
	tier       models.Tier
	shouldSend bool
}

// scoreSignal — компоненты качества сетапа: чёткий блок, сильный импульс,
// ретест, чистая реакция, здоровые RR и SL%, выравнивание с HTF.
func scoreSignal(meta qualityMeta, set models.IMBSettings) int {
	score := 0
	if meta.hasBlock {
		score += 25
	}
	if meta.impulseOK {
		score += 25
	}
	if meta.touchOK {
		score += 15
	}
	if meta.reactionOK {
		score += 15
	}
	if meta.rrOK {
		score += 10
	}
	if meta.slPct >= set.SLHealthyMinPct && meta.slPct <= set.SLHealthyMaxPct {
		score += 10
	}
	if meta.htfAligned {
		score += 20
	}
	if score > 150 {
		score = 150
	}
	return score
}

// tierFromScore: A+ >= 120, A >= 100, B >= 80, иначе NONE.
func tierFromScore(score int) models.Tier {
	switch {
	case score >= 120:
		return models.TierAPlus
	case score >= 100:
		return models.TierA
	case score >= 80:
		return models.TierB
	default:
		return models.TierNone
	}
}

func evaluateQuality(meta qualityMeta, set models.IMBSettings, minTier models.Tier) quality {
	score := scoreSignal(meta, set)
	tier := tierFromScore(score)
	return quality{
		score:      score,
		tier:       tier,
		shouldSend: models.TierRank(tier) >= models.TierRank(minTier),
	}
}
