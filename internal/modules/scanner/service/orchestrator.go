package service

import (
	"context"
	"log"
	"sync"
	"time"

	"imb_bot/internal/modules/config"
	ohlc "imb_bot/internal/modules/ohlc/service"
	state "imb_bot/internal/modules/state/service"

	"github.com/pkg/errors"
)

type ServiceNotifier interface {
	SendService(ctx context.Context, format string, args ...any)
}

// ExchangeClient — REST-часть биржи, нужная оркестратору.
type ExchangeClient interface {
	Klines
	TopVolumePairs(ctx context.Context, maxPairs int, minVolumeUSDT float64) ([]string, error)
}

// WorkerFunc — один стрим-воркер: блокируется до дедлайна, отмены ctx
// или стоп-условия. Оркестратор не знает про websocket — фабрику даёт
// модуль стрима, в тестах подменяется фейком.
type WorkerFunc func(ctx context.Context, symbols []string, deadline time.Time)

// Orchestrator — жизненный цикл эпох: рефреш вселенной, прогрев,
// разбиение на батчи, запуск воркеров и коллективный снос эпохи по
// первому завершившемуся воркеру.
type Orchestrator struct {
	cfg       *config.Config
	st        *state.State
	store     *ohlc.Store
	client    ExchangeClient
	pre       *Preloader
	n         ServiceNotifier
	newWorker WorkerFunc
	now       func() time.Time

	universe    []string
	lastRefresh time.Time
}

func NewOrchestrator(
	cfg *config.Config,
	st *state.State,
	store *ohlc.Store,
	client ExchangeClient,
	pre *Preloader,
	n ServiceNotifier,
	newWorker WorkerFunc,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		st:        st,
		store:     store,
		client:    client,
		pre:       pre,
		n:         n,
		newWorker: newWorker,
		now:       time.Now,
	}
}

// PartitionBatches — последовательные срезы по size, порядок символов
// сохраняется.
func PartitionBatches(symbols []string, size int) [][]string {
	if len(symbols) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(symbols)
	}
	out := make([][]string, 0, (len(symbols)+size-1)/size)
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}
		out = append(out, symbols[start:end])
	}
	return out
}

// Run — главный цикл: эпоха за эпохой до остановки приложения.
// Паника или ошибка эпохи не роняет процесс — пауза и новая попытка.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil || !o.st.Running() {
			return
		}
		if err := o.runEpoch(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[EPOCH] ошибка: %v, ретрай через %s", err, o.cfg.EpochRetryDelay)
			if o.n != nil {
				o.n.SendService(ctx, "⚠️ Эпоха упала: %v\nРетрай через %s", err, o.cfg.EpochRetryDelay)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.cfg.EpochRetryDelay):
			}
		}
	}
}

func (o *Orchestrator) runEpoch(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()

	symbols, err := o.refreshUniverse(ctx)
	if err != nil {
		return errors.Wrap(err, "universe")
	}
	if len(symbols) == 0 {
		return errors.New("пустая вселенная пар")
	}

	loaded, failed := o.pre.Warmup(ctx, symbols)
	if ctx.Err() != nil {
		return nil
	}

	batches := PartitionBatches(symbols, o.cfg.Scanner.BatchSize)
	deadline := o.now().Add(o.cfg.RefreshInterval)

	log.Printf("[EPOCH] старт: %d пар, %d батчей, прогрето %d (ошибок %d), дедлайн %s",
		len(symbols), len(batches), loaded, failed, deadline.Format(time.RFC3339))
	if o.n != nil {
		o.n.SendService(ctx, "🚀 Эпоха: %d пар / %d батчей, прогрето %d, ошибок прогрева %d",
			len(symbols), len(batches), loaded, failed)
	}

	epochCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// буфер на всех: опоздавшие воркеры не виснут на отправке
	firstDone := make(chan struct{}, len(batches))
	var wg sync.WaitGroup
	for _, batch := range batches {
		wg.Add(1)
		go func(batch []string) {
			defer wg.Done()
			o.newWorker(epochCtx, batch, deadline)
			firstDone <- struct{}{}
		}(batch)
	}

	// первый вышедший воркер сносит эпоху целиком: дедлайн и команды
	// (/refresh, /restart) проверяет каждый воркер сам
	select {
	case <-firstDone:
	case <-ctx.Done():
	}
	cancel()
	wg.Wait()

	o.st.ClearSoftRestart()
	log.Printf("[EPOCH] завершена")
	return nil
}

// refreshUniverse — вселенная живёт RefreshInterval; команда /refresh
// форсирует пересбор. При ошибке биржи деградируем на старый список.
func (o *Orchestrator) refreshUniverse(ctx context.Context) ([]string, error) {
	stale := o.lastRefresh.IsZero() ||
		o.now().Sub(o.lastRefresh) >= o.cfg.RefreshInterval
	if len(o.universe) > 0 && !stale && !o.st.ForceRefresh() {
		return o.universe, nil
	}

	syms, err := o.client.TopVolumePairs(ctx, o.cfg.Scanner.MaxPairs, o.cfg.Scanner.MinVolumeUSDT)
	if err != nil {
		if len(o.universe) > 0 {
			log.Printf("[EPOCH] рефреш вселенной не удался (%v), остаёмся на %d парах", err, len(o.universe))
			return o.universe, nil
		}
		return nil, err
	}

	o.universe = syms
	o.lastRefresh = o.now()
	o.st.ClearRefresh()
	o.store.ResetUniverse(syms)
	o.st.SetUniverseSize(len(syms))
	return syms, nil
}
