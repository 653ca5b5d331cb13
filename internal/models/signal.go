package models

import "time"

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Tier — качество сигнала. Порядок: NONE < B < A < A+.
type Tier string

const (
	TierNone  Tier = "NONE"
	TierB     Tier = "B"
	TierA     Tier = "A"
	TierAPlus Tier = "A+"
)

func TierRank(t Tier) int {
	switch t {
	case TierB:
		return 1
	case TierA:
		return 2
	case TierAPlus:
		return 3
	default:
		return 0
	}
}

// ParseTier — "a+", "A" и т.п. из команд телеграма.
func ParseTier(s string) (Tier, bool) {
	switch s {
	case "b", "B":
		return TierB, true
	case "a", "A":
		return TierA, true
	case "a+", "A+", "A+ ", "aplus":
		return TierAPlus, true
	case "none", "NONE":
		return TierNone, true
	}
	return TierNone, false
}

// SignalResult — результат анализатора по закрытой свече.
// Message — готовый текст для рассылки, форматирование здесь,
// а не в ядре сканера.
type SignalResult struct {
	Symbol  string
	Side    Side
	Entry   float64
	SL      float64
	TP1     float64
	TP2     float64
	TP3     float64
	SLPct   float64
	RRTP2   float64
	Score   int
	Tier    Tier
	At      time.Time
	Message string
}
