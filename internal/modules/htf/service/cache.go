package service

import (
	"context"
	"sync"
	"time"

	"imb_bot/internal/models"
)

// Class — класс старшего таймфрейма со своим TTL.
type Class string

const (
	ClassH1  Class = "1h"
	ClassM15 Class = "15m"
)

// Classification — компактный результат fetch+classify.
type Classification struct {
	Trend    models.TrendState
	Position models.PositionState
}

// Neutral — дефолт, когда ни одного успешного фетча ещё не было.
func Neutral() Classification {
	return Classification{Trend: models.TrendRange, Position: models.PositionMid}
}

// FetchFunc — внешняя функция fetch+classify (REST + эвристика).
type FetchFunc func(ctx context.Context, symbol string, class Class) (Classification, error)

type cacheKey struct {
	symbol string
	class  Class
}

type cacheEntry struct {
	mu          sync.Mutex
	value       Classification
	lastSuccess time.Time
	hasValue    bool
}

// Cache — TTL-кэш классификаций по (symbol, class). Таймстемп обновляется
// только при успешном фетче: неудача оставляет старое значение и старый
// таймстемп, так что следующий вызов ретраит сразу, а не ждёт TTL-окно.
type Cache struct {
	ttl   map[Class]time.Duration
	fetch FetchFunc
	now   func() time.Time

	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
}

func NewCache(ttl map[Class]time.Duration, fetch FetchFunc) *Cache {
	return &Cache{
		ttl:     ttl,
		fetch:   fetch,
		now:     time.Now,
		entries: make(map[cacheKey]*cacheEntry),
	}
}

func (c *Cache) entry(symbol string, class Class) *cacheEntry {
	key := cacheKey{symbol: symbol, class: class}

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	return e
}

// Get — свежий хит отдаём без фетча; проверка TTL и запись результата
// идут под локом записи, чтобы два почти одновременных вызова не пошли
// фетчить одно и то же. Лок пер-entry: у каждой пары (symbol, class)
// свои часы.
func (c *Cache) Get(ctx context.Context, symbol string, class Class) Classification {
	e := c.entry(symbol, class)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := c.now()
	if e.hasValue && now.Sub(e.lastSuccess) < c.ttl[class] {
		return e.value
	}

	v, err := c.fetch(ctx, symbol, class)
	if err != nil {
		if e.hasValue {
			// деградация: последнее известное значение, таймстемп не трогаем
			return e.value
		}
		return Neutral()
	}

	e.value = v
	e.lastSuccess = now
	e.hasValue = true
	return v
}
