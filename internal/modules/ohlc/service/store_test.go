package service

import (
	"testing"
	"time"

	"imb_bot/internal/models"
)

func mkCandle(openMin int64, px float64, final bool) models.Candle {
	start := time.Unix(openMin*60, 0).UTC()
	return models.Candle{
		OpenTime:  start,
		CloseTime: start.Add(5 * time.Minute),
		Open:      px,
		High:      px * 1.001,
		Low:       px * 0.999,
		Close:     px,
		Final:     final,
	}
}

func TestApplyUpdateReplacesFormingCandle(t *testing.T) {
	s := New(10)

	closed := s.ApplyUpdate("BTCUSDT", mkCandle(1, 100, false))
	if closed {
		t.Fatalf("forming candle reported as closed")
	}
	closed = s.ApplyUpdate("BTCUSDT", mkCandle(1, 101, false))
	if closed || s.Len("BTCUSDT") != 1 {
		t.Fatalf("same openTime must replace in place, len=%d", s.Len("BTCUSDT"))
	}
	closed = s.ApplyUpdate("BTCUSDT", mkCandle(1, 102, true))
	if !closed {
		t.Fatalf("final update must report close")
	}
	snap := s.Snapshot("BTCUSDT")
	if len(snap) != 1 || snap[0].Close != 102 || !snap[0].Final {
		t.Fatalf("unexpected buffer after close: %+v", snap)
	}
}

func TestBufferEvictsFromFront(t *testing.T) {
	s := New(3)

	s.Preload("ETHUSDT", []models.Candle{
		mkCandle(1, 1, true),
		mkCandle(2, 2, true),
		mkCandle(3, 3, true),
	})
	s.ApplyUpdate("ETHUSDT", mkCandle(4, 4, true))

	snap := s.Snapshot("ETHUSDT")
	if len(snap) != 3 {
		t.Fatalf("expected len 3 got %d", len(snap))
	}
	for i, want := range []int64{2, 3, 4} {
		if snap[i].OpenTime.Unix() != want*60 {
			t.Fatalf("pos %d: want openTime %dm got %s", i, want, snap[i].OpenTime)
		}
	}
}

func TestBufferInvariantsUnderStream(t *testing.T) {
	s := New(5)
	// каждый бакет: два forming-кадра, затем закрывающий
	for m := int64(1); m <= 20; m++ {
		s.ApplyUpdate("X", mkCandle(m, float64(m), false))
		s.ApplyUpdate("X", mkCandle(m, float64(m)+0.5, false))
		s.ApplyUpdate("X", mkCandle(m, float64(m)+1, true))

		snap := s.Snapshot("X")
		if len(snap) > 5 {
			t.Fatalf("bound violated: len=%d", len(snap))
		}
		for i := 1; i < len(snap); i++ {
			if !snap[i-1].OpenTime.Before(snap[i].OpenTime) {
				t.Fatalf("openTime not strictly ascending at %d", i)
			}
			if !snap[i-1].Final {
				t.Fatalf("non-final candle in the middle at %d", i-1)
			}
		}
	}
}

func TestAppendFinalizesTrailingFormingCandle(t *testing.T) {
	s := New(5)
	s.ApplyUpdate("X", mkCandle(1, 1, false))
	// закрывающий кадр бакета 1 потерялся, сразу открылся бакет 2
	s.ApplyUpdate("X", mkCandle(2, 2, false))

	snap := s.Snapshot("X")
	if len(snap) != 2 {
		t.Fatalf("expected 2 candles got %d", len(snap))
	}
	if !snap[0].Final {
		t.Fatalf("trailing forming candle must be finalized on append")
	}
	if snap[1].Final {
		t.Fatalf("new candle must stay forming")
	}
}

func TestStaleUpdateIgnored(t *testing.T) {
	s := New(5)
	s.ApplyUpdate("X", mkCandle(5, 5, true))
	if closed := s.ApplyUpdate("X", mkCandle(3, 3, true)); closed {
		t.Fatalf("stale update must not report close")
	}
	if s.Len("X") != 1 {
		t.Fatalf("stale update must be dropped, len=%d", s.Len("X"))
	}
}

func TestPreloadSortsDedupsAndDropsForming(t *testing.T) {
	s := New(10)
	s.Preload("X", []models.Candle{
		mkCandle(3, 3, true),
		mkCandle(1, 1, true),
		mkCandle(2, 2, true),
		mkCandle(2, 22, true), // дубль openTime — побеждает последний
		mkCandle(4, 4, false), // formings в preload не попадают
	})

	snap := s.Snapshot("X")
	if len(snap) != 3 {
		t.Fatalf("expected 3 got %d: %+v", len(snap), snap)
	}
	if snap[1].Close != 22 {
		t.Fatalf("dedup must keep the later duplicate, got %.0f", snap[1].Close)
	}
	for i := 1; i < len(snap); i++ {
		if !snap[i-1].OpenTime.Before(snap[i].OpenTime) {
			t.Fatalf("preload result not sorted")
		}
	}
}

func TestUnknownSymbolLazilyCreated(t *testing.T) {
	s := New(10)
	if closed := s.ApplyUpdate("NEWUSDT", mkCandle(1, 1, true)); !closed {
		t.Fatalf("update for unknown symbol must be applied")
	}
	if s.Len("NEWUSDT") != 1 {
		t.Fatalf("lazy buffer expected")
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	s := New(10)
	s.ApplyUpdate("X", mkCandle(1, 1, true))
	snap := s.Snapshot("X")
	snap[0].Close = 999

	if got := s.Snapshot("X")[0].Close; got == 999 {
		t.Fatalf("snapshot must not alias the buffer")
	}
}

func TestResetUniverseDropsRemovedSymbols(t *testing.T) {
	s := New(10)
	s.ApplyUpdate("A", mkCandle(1, 1, true))
	s.ApplyUpdate("B", mkCandle(1, 1, true))

	s.ResetUniverse([]string{"B"})
	if s.Len("A") != 0 {
		t.Fatalf("dropped symbol must lose its buffer")
	}
	if s.Len("B") != 1 {
		t.Fatalf("kept symbol must survive refresh")
	}
}
