package service

import (
	"context"
	"log"
	"net"
	"strings"
	"time"

	"imb_bot/internal/helper"
	"imb_bot/internal/models"
	"imb_bot/internal/modules/config"
	ohlc "imb_bot/internal/modules/ohlc/service"
	state "imb_bot/internal/modules/state/service"

	"github.com/gorilla/websocket"
)

// Gate — приём закрытой свечи на анализ.
type Gate interface {
	Consider(ctx context.Context, symbol string, candles []models.Candle)
}

// Worker — один combined-стрим на батч символов. Живёт до дедлайна
// эпохи, отмены ctx или командного стоп-флага; сетевые обрывы лечит
// реконнектом внутри себя, не трогая остальные батчи.
type Worker struct {
	cfg    *config.Config
	st     *state.State
	store  *ohlc.Store
	gate   Gate
	dialer *websocket.Dialer
}

func NewWorker(cfg *config.Config, st *state.State, store *ohlc.Store, gate Gate) *Worker {
	return &Worker{
		cfg:    cfg,
		st:     st,
		store:  store,
		gate:   gate,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

func (w *Worker) streamURL(symbols []string) string {
	tf := helper.NormTF(w.cfg.Scanner.Timeframe)
	parts := make([]string, 0, len(symbols))
	for _, s := range symbols {
		parts = append(parts, strings.ToLower(s)+"@kline_"+tf)
	}
	return w.cfg.Binance.StreamURL + "?streams=" + strings.Join(parts, "/")
}

// стоп-условия проверяет каждый воркер сам: выход любого из них
// оркестратор превращает в снос всей эпохи
func (w *Worker) shouldStop(ctx context.Context, deadline time.Time) bool {
	return ctx.Err() != nil ||
		!w.st.Running() ||
		time.Now().After(deadline) ||
		w.st.SoftRestart() ||
		w.st.ForceRefresh()
}

// Stream — WorkerFunc для оркестратора.
func (w *Worker) Stream(ctx context.Context, symbols []string, deadline time.Time) {
	if len(symbols) == 0 {
		return
	}
	url := w.streamURL(symbols)

	for {
		if w.shouldStop(ctx, deadline) {
			return
		}

		log.Printf("[WS] connect: %d symbols", len(symbols))
		conn, _, err := w.dialer.DialContext(ctx, url, nil)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[WS] dial: %v", err)
			}
			w.sleep(ctx, w.cfg.ReconnectDelay)
			continue
		}

		w.st.WorkerConnected()
		timedOut := w.readLoop(ctx, conn, deadline)
		w.st.WorkerDisconnected()

		if w.shouldStop(ctx, deadline) {
			return
		}
		// по таймауту чтения реконнектимся сразу: истёкший read deadline
		// уже отравил соединение, ждать нечего
		if !timedOut {
			w.sleep(ctx, w.cfg.ReconnectDelay)
		}
	}
}

func (w *Worker) readLoop(ctx context.Context, conn *websocket.Conn, deadline time.Time) (timedOut bool) {
	defer conn.Close()

	// страж: отмена ctx рушит блокирующий Read закрытием соединения
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		if w.shouldStop(ctx, deadline) {
			return false
		}

		_ = conn.SetReadDeadline(time.Now().Add(w.cfg.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				log.Printf("[WS] тихий стрим дольше %s, реконнект", w.cfg.ReadTimeout)
				return true
			}
			if ctx.Err() == nil {
				log.Printf("[WS] read: %v", err)
			}
			return false
		}

		w.st.TouchTick(time.Now())

		symbol, candle, err := parseKlineFrame(msg)
		if err != nil {
			if err != errNotKline {
				w.st.CountMalformed()
				if w.st.Debug() {
					log.Printf("[WS] битый кадр: %v", err)
				}
			}
			continue
		}

		closed := w.store.ApplyUpdate(symbol, candle)
		if closed && w.st.Scanning() && w.store.Len(symbol) >= w.st.MinCandles() {
			w.gate.Consider(ctx, symbol, w.store.Snapshot(symbol))
		}
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
