package service

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

type ticker24h struct {
	Symbol      string `json:"symbol"`
	QuoteVolume string `json:"quoteVolume"`
	LastPrice   string `json:"lastPrice"`
}

// TopVolumePairs — активная вселенная: USDT-перпы, отсортированные по
// 24h-обороту в quote, отсечка по minVolumeUSDT, максимум maxPairs.
// Порядок детерминированный — от него зависит разбиение на батчи.
func (c *Client) TopVolumePairs(ctx context.Context, maxPairs int, minVolumeUSDT float64) ([]string, error) {
	if maxPairs <= 0 {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/fapi/v1/ticker/24hr", nil)
	if err != nil {
		return nil, errors.Wrap(err, "ticker request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "ticker 24h")
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, errors.Errorf("ticker 24h: http %d: %s", resp.StatusCode, string(b))
	}

	var tickers []ticker24h
	if err := sonic.Unmarshal(b, &tickers); err != nil {
		return nil, errors.Wrap(err, "ticker 24h: decode")
	}

	type rec struct {
		sym string
		vol float64
	}
	arr := make([]rec, 0, len(tickers))
	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, "USDT") {
			continue
		}
		vol, err := strconv.ParseFloat(t.QuoteVolume, 64)
		if err != nil || vol < minVolumeUSDT {
			continue
		}
		last, err := strconv.ParseFloat(t.LastPrice, 64)
		if err != nil || last <= 0 {
			continue
		}
		arr = append(arr, rec{sym: t.Symbol, vol: vol})
	}

	sort.Slice(arr, func(i, j int) bool {
		if arr[i].vol != arr[j].vol {
			return arr[i].vol > arr[j].vol
		}
		return arr[i].sym < arr[j].sym
	})
	if len(arr) > maxPairs {
		arr = arr[:maxPairs]
	}

	out := make([]string, 0, len(arr))
	for _, r := range arr {
		out = append(out, r.sym)
	}
	return out, nil
}
