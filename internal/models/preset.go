package models

type Preset struct {
	Name        string
	Description string
	Apply       func(s *IMBSettings)
}

// Presets — готовые наборы порогов детектора, переключаются командой
// /preset. Базой всегда служит DefaultIMBSettings.
var Presets = map[string]Preset{
	"strict": {
		Name:        "🟢 Строгий",
		Description: "Меньше сигналов, выше качество сетапов",
		Apply: func(s *IMBSettings) {
			s.ImpulseMinStrength = 1.8
			s.MinRRTP2 = 1.8
			s.MaxBlockRangePct = 0.006
			s.MaxEntryAgeCandles = 2
		},
	},
	"default": {
		Name:        "🟡 Базовый",
		Description: "Дефолтные пороги детектора",
		Apply:       func(s *IMBSettings) {},
	},
	"wide": {
		Name:        "🔴 Широкий",
		Description: "Больше сигналов, требует ручного фильтра",
		Apply: func(s *IMBSettings) {
			s.ImpulseMinStrength = 1.3
			s.MinRRTP2 = 1.2
			s.MaxBlockRangePct = 0.010
			s.MaxEntryAgeCandles = 5
			s.UseHTFFilter = false
		},
	},
}
