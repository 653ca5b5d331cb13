package service

import (
	"context"
	"reflect"
	"testing"
	"time"

	"imb_bot/internal/models"
	"imb_bot/internal/modules/config"
	ohlc "imb_bot/internal/modules/ohlc/service"
	state "imb_bot/internal/modules/state/service"
)

func TestPartitionBatches(t *testing.T) {
	syms := []string{"A", "B", "C", "D", "E"}

	got := PartitionBatches(syms, 2)
	want := [][]string{{"A", "B"}, {"C", "D"}, {"E"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if got := PartitionBatches(syms, 0); len(got) != 1 || len(got[0]) != 5 {
		t.Fatalf("size<=0 must yield single batch, got %v", got)
	}
	if got := PartitionBatches(nil, 3); got != nil {
		t.Fatalf("empty input must yield nil, got %v", got)
	}
}

type fakeExchange struct {
	pairs      []string
	pairsCalls int
}

func (f *fakeExchange) TopVolumePairs(_ context.Context, _ int, _ float64) ([]string, error) {
	f.pairsCalls++
	return f.pairs, nil
}

func (f *fakeExchange) GetKlines(_ context.Context, _, _ string, _ int) ([]models.Candle, error) {
	return []models.Candle{
		{OpenTime: time.Unix(0, 0), Close: 1, Final: true},
	}, nil
}

func orchestratorFixture(worker WorkerFunc) (*Orchestrator, *fakeExchange, *state.State) {
	cfg := &config.Config{
		RefreshInterval: time.Hour,
		EpochRetryDelay: time.Millisecond,
		CooldownDefault: time.Minute,
		PreloadParallel: 2,
		IMB:             models.DefaultIMBSettings(),
	}
	cfg.Scanner.BatchSize = 2
	cfg.Scanner.MaxPairs = 10
	cfg.Scanner.Timeframe = "5m"
	cfg.Scanner.PreloadLimit = 5
	cfg.Scanner.MaxCandles = 120

	st := state.NewState(cfg)
	store := ohlc.NewStore(cfg)
	ex := &fakeExchange{pairs: []string{"AUSDT", "BUSDT", "CUSDT"}}
	pre := NewPreloader(cfg, store, ex)

	return NewOrchestrator(cfg, st, store, ex, pre, nil, worker), ex, st
}

// Первый завершившийся воркер должен снести всю эпоху: остальных
// отменяют через ctx, эпоха ждёт всех.
func TestEpochTeardownOnFirstWorkerExit(t *testing.T) {
	release := make(chan struct{})
	cancelled := make(chan struct{}, 8)

	worker := func(ctx context.Context, symbols []string, _ time.Time) {
		if symbols[0] == "AUSDT" {
			<-release // первый батч выходит по команде теста
			return
		}
		<-ctx.Done() // остальные живут до отмены эпохи
		cancelled <- struct{}{}
	}

	o, ex, st := orchestratorFixture(worker)
	st.RequestSoftRestart()

	done := make(chan error, 1)
	go func() { done <- o.runEpoch(context.Background()) }()

	select {
	case <-done:
		t.Fatal("epoch ended before any worker exited")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runEpoch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("epoch did not tear down after first worker exit")
	}

	// 3 символа, батчи по 2 -> второй воркер обязан был получить отмену
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("second worker was not cancelled")
	}

	if ex.pairsCalls != 1 {
		t.Fatalf("pairsCalls = %d, want 1", ex.pairsCalls)
	}
	if st.SoftRestart() {
		t.Fatal("epoch end must clear soft restart flag")
	}
	if st.UniverseSize() != 3 {
		t.Fatalf("universe size = %d, want 3", st.UniverseSize())
	}
}

// Между эпохами внутри RefreshInterval вселенная не пересобирается,
// /refresh форсирует пересбор.
func TestUniverseRefreshPolicy(t *testing.T) {
	worker := func(ctx context.Context, _ []string, _ time.Time) {}
	o, ex, st := orchestratorFixture(worker)

	now := time.Unix(10_000, 0)
	o.now = func() time.Time { return now }

	ctx := context.Background()
	if err := o.runEpoch(ctx); err != nil {
		t.Fatalf("epoch 1: %v", err)
	}
	if err := o.runEpoch(ctx); err != nil {
		t.Fatalf("epoch 2: %v", err)
	}
	if ex.pairsCalls != 1 {
		t.Fatalf("pairsCalls = %d, want 1 (universe still fresh)", ex.pairsCalls)
	}

	st.RequestRefresh()
	if err := o.runEpoch(ctx); err != nil {
		t.Fatalf("epoch 3: %v", err)
	}
	if ex.pairsCalls != 2 {
		t.Fatalf("pairsCalls = %d, want 2 after /refresh", ex.pairsCalls)
	}
	if st.ForceRefresh() {
		t.Fatal("refresh flag must be cleared after rebuild")
	}

	// интервал истёк -> плановый пересбор
	now = now.Add(2 * time.Hour)
	if err := o.runEpoch(ctx); err != nil {
		t.Fatalf("epoch 4: %v", err)
	}
	if ex.pairsCalls != 3 {
		t.Fatalf("pairsCalls = %d, want 3 after interval expiry", ex.pairsCalls)
	}
}
