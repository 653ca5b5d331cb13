package service

import (
	"sort"
	"sync"

	"imb_bot/internal/models"
	"imb_bot/internal/modules/config"
)

// Store — ограниченная скользящая история свечей по символам.
// Чистая структура данных: никакого I/O, только инварианты буфера:
//   - openTime строго возрастает, без дублей;
//   - длина <= max, старые вылетают спереди;
//   - незакрытой может быть только последняя свеча.
type Store struct {
	mu   sync.RWMutex
	max  int
	bufs map[string]*buffer
}

type buffer struct {
	mu      sync.Mutex
	candles []models.Candle
}

func NewStore(cfg *config.Config) *Store {
	return New(cfg.Scanner.MaxCandles)
}

func New(maxCandles int) *Store {
	if maxCandles <= 0 {
		maxCandles = 120
	}
	return &Store{
		max:  maxCandles,
		bufs: make(map[string]*buffer),
	}
}

// получить или лениво создать буфер; map-лок только на структурные
// изменения, контент буфера защищён его собственным мьютексом.
func (s *Store) bucket(symbol string) *buffer {
	s.mu.RLock()
	b, ok := s.bufs[symbol]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.bufs[symbol]; ok {
		return b
	}
	b = &buffer{}
	s.bufs[symbol] = b
	return b
}

// Preload — заменяет историю символа закрытыми свечами из REST-снапшота:
// сортировка по openTime, дедупликация (побеждает последняя), хвост
// обрезается до max.
func (s *Store) Preload(symbol string, candles []models.Candle) {
	final := make([]models.Candle, 0, len(candles))
	for _, c := range candles {
		if c.Final {
			final = append(final, c)
		}
	}
	sort.SliceStable(final, func(i, j int) bool {
		return final[i].OpenTime.Before(final[j].OpenTime)
	})

	dedup := final[:0]
	for _, c := range final {
		if n := len(dedup); n > 0 && dedup[n-1].OpenTime.Equal(c.OpenTime) {
			dedup[n-1] = c
			continue
		}
		dedup = append(dedup, c)
	}
	if len(dedup) > s.max {
		dedup = dedup[len(dedup)-s.max:]
	}

	b := s.bucket(symbol)
	b.mu.Lock()
	b.candles = append([]models.Candle(nil), dedup...)
	b.mu.Unlock()
}

// ApplyUpdate — апдейт формирующейся или закрытой свечи.
// Тот же openTime — замена на месте, новый — append с вытеснением
// спереди. Возвращает true, если апдейт закрыл свечу.
// Неизвестный символ лениво получает пустой буфер: апдейт может прийти
// раньше preload (новый листинг посреди эпохи).
func (s *Store) ApplyUpdate(symbol string, c models.Candle) bool {
	b := s.bucket(symbol)
	b.mu.Lock()
	defer b.mu.Unlock()

	if n := len(b.candles); n > 0 {
		last := &b.candles[n-1]
		if last.OpenTime.Equal(c.OpenTime) {
			*last = c
			return c.Final
		}
		if c.OpenTime.Before(last.OpenTime) {
			// устаревший кадр — буфер строго возрастает
			return false
		}
		// бакет последней свечи закрылся, раз открылся следующий;
		// финализируем, даже если закрывающий кадр потерялся
		if !last.Final {
			last.Final = true
		}
	}

	b.candles = append(b.candles, c)
	if len(b.candles) > s.max {
		b.candles = append(b.candles[:0], b.candles[1:]...)
	}
	return c.Final
}

// Snapshot — независимая копия, безопасная при конкурентной записи.
func (s *Store) Snapshot(symbol string) []models.Candle {
	s.mu.RLock()
	b, ok := s.bufs[symbol]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Candle(nil), b.candles...)
}

func (s *Store) Len(symbol string) int {
	s.mu.RLock()
	b, ok := s.bufs[symbol]
	s.mu.RUnlock()
	if !ok {
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.candles)
}

// ResetUniverse — выкидывает буферы символов, выпавших из активного
// списка на рефреше.
func (s *Store) ResetUniverse(symbols []string) {
	keep := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		keep[sym] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for sym := range s.bufs {
		if _, ok := keep[sym]; !ok {
			delete(s.bufs, sym)
		}
	}
}

func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.bufs))
	for sym := range s.bufs {
		out = append(out, sym)
	}
	return out
}
