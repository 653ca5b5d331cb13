package models

// IMBSettings — все пороги детектора IMB. Исторически пороги много раз
// менялись между итерациями, поэтому ни один не захардкожен: дефолты
// здесь, переопределение в конфиге, переключение пресетом на лету.
type IMBSettings struct {
	EntryTF string `yaml:"entry_tf"`

	UseHTFFilter bool `yaml:"use_htf_filter"`

	// Импульс: тело >= ImpulseMinStrength * среднего тела,
	// close в крайних ImpulseClosePos долях диапазона свечи.
	ImpulseLookback    int     `yaml:"impulse_lookback"`
	ImpulseAvgBody     int     `yaml:"impulse_avg_body"`
	ImpulseMinStrength float64 `yaml:"impulse_min_strength"`
	ImpulseClosePos    float64 `yaml:"impulse_close_pos"`

	// Блок: последняя контр-свеча перед импульсом.
	BlockLookback    int     `yaml:"block_lookback"`
	MaxBlockRangePct float64 `yaml:"max_block_range_pct"` // доля цены, напр. 0.008

	// Уровни.
	SLBufferPct float64 `yaml:"sl_buffer_pct"` // доля цены, напр. 0.0005
	TP1RR       float64 `yaml:"tp1_rr"`
	TP2RR       float64 `yaml:"tp2_rr"`
	TP3RR       float64 `yaml:"tp3_rr"`
	MinRRTP2    float64 `yaml:"min_rr_tp2"`

	// Валидность сетапа.
	MaxEntryAgeCandles int `yaml:"max_entry_age_candles"`
	MinHistory         int `yaml:"min_history"`

	// Скоринг.
	SLHealthyMinPct float64 `yaml:"sl_healthy_min_pct"` // проценты, напр. 0.20
	SLHealthyMaxPct float64 `yaml:"sl_healthy_max_pct"`
}

func DefaultIMBSettings() IMBSettings {
	return IMBSettings{
		EntryTF:            "5m",
		UseHTFFilter:       true,
		ImpulseLookback:    20,
		ImpulseAvgBody:     10,
		ImpulseMinStrength: 1.5,
		ImpulseClosePos:    0.7,
		BlockLookback:      8,
		MaxBlockRangePct:   0.008,
		SLBufferPct:        0.0005,
		TP1RR:              1.2,
		TP2RR:              2.0,
		TP3RR:              3.0,
		MinRRTP2:           1.5,
		MaxEntryAgeCandles: 3,
		MinHistory:         30,
		SLHealthyMinPct:    0.20,
		SLHealthyMaxPct:    0.90,
	}
}
