package models

// TrendState — грубый тренд старшего таймфрейма.
type TrendState string

const (
	TrendUp    TrendState = "UP"
	TrendDown  TrendState = "DOWN"
	TrendRange TrendState = "RANGE"
)

// PositionState — где цена внутри диапазона HTF.
type PositionState string

const (
	PositionDiscount PositionState = "DISCOUNT"
	PositionPremium  PositionState = "PREMIUM"
	PositionMid      PositionState = "MID"
)
