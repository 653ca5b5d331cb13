package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"imb_bot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// kline row: [openTime(ms), "o", "h", "l", "c", "vol", closeTime(ms),
// "quoteVol", trades, ...] — числа и строки вперемешку, поэтому []any.
func parseKlineRow(row []any) (models.Candle, bool) {
	if len(row) < 8 {
		return models.Candle{}, false
	}

	openMs, ok := asInt64(row[0])
	if !ok {
		return models.Candle{}, false
	}
	closeMs, ok := asInt64(row[6])
	if !ok {
		return models.Candle{}, false
	}

	open, ok1 := asFloat(row[1])
	high, ok2 := asFloat(row[2])
	low, ok3 := asFloat(row[3])
	closep, ok4 := asFloat(row[4])
	if !ok1 || !ok2 || !ok3 || !ok4 || closep <= 0 {
		return models.Candle{}, false
	}

	vol, _ := asFloat(row[5])
	quoteVol, _ := asFloat(row[7])

	return models.Candle{
		OpenTime:    time.UnixMilli(openMs),
		CloseTime:   time.UnixMilli(closeMs),
		Open:        open,
		High:        high,
		Low:         low,
		Close:       closep,
		Volume:      vol,
		QuoteVolume: quoteVol,
		Final:       true,
	}, true
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	case float64:
		return x, true
	}
	return 0, false
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// GetKlines — последние limit закрытых свечей, oldest-first.
// Последняя строка ответа Binance — ещё формирующийся бакет,
// его отбрасываем: preload держит только финальные свечи.
func (c *Client) GetKlines(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	if limit <= 0 {
		limit = 100
	}

	// +1 на отброшенный формирующийся бакет
	u := fmt.Sprintf("%s/fapi/v1/klines?symbol=%s&interval=%s&limit=%d",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(timeframe), limit+1,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "klines request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "klines %s %s", symbol, timeframe)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, errors.Errorf("klines %s: http %d: %s", symbol, resp.StatusCode, string(b))
	}

	var rows [][]any
	if err := sonic.Unmarshal(b, &rows); err != nil {
		return nil, errors.Wrapf(err, "klines %s: decode", symbol)
	}

	now := time.Now()
	out := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		candle, ok := parseKlineRow(row)
		if !ok {
			continue
		}
		// бакет ещё не закрылся по времени — не берём
		if candle.CloseTime.After(now) {
			continue
		}
		out = append(out, candle)
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
