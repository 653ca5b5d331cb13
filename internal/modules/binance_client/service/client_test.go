package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func testClient(srv *httptest.Server) *Client {
	return &Client{
		http:    srv.Client(),
		baseURL: srv.URL,
	}
}

func TestTopVolumePairsFiltersAndSorts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fapi/v1/ticker/24hr" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"symbol":"BTCUSDT","quoteVolume":"900000000","lastPrice":"65000"},
			{"symbol":"ETHBTC","quoteVolume":"900000000","lastPrice":"0.05"},
			{"symbol":"ETHUSDT","quoteVolume":"500000000","lastPrice":"3000"},
			{"symbol":"DOGEUSDT","quoteVolume":"1000","lastPrice":"0.1"},
			{"symbol":"SOLUSDT","quoteVolume":"700000000","lastPrice":"150"}
		]`))
	}))
	defer srv.Close()

	pairs, err := testClient(srv).TopVolumePairs(context.Background(), 2, 1_000_000)
	if err != nil {
		t.Fatalf("TopVolumePairs: %v", err)
	}
	if len(pairs) != 2 || pairs[0] != "BTCUSDT" || pairs[1] != "SOLUSDT" {
		t.Fatalf("unexpected universe: %v", pairs)
	}
}

func TestGetKlinesParsesAndDropsFormingBucket(t *testing.T) {
	past := time.Now().Add(-10 * time.Minute).UnixMilli()
	past2 := time.Now().Add(-5 * time.Minute).UnixMilli()
	future := time.Now().Add(4 * time.Minute).UnixMilli()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fapi/v1/klines" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		body := `[
			[` + strconv.FormatInt(past-300000, 10) + `,"100","101","99","100.5","12",` + strconv.FormatInt(past, 10) + `,"1200",10],
			[` + strconv.FormatInt(past, 10) + `,"100.5","102","100","101","10",` + strconv.FormatInt(past2, 10) + `,"1000",9],
			[` + strconv.FormatInt(past2, 10) + `,"101","103","101","102","5",` + strconv.FormatInt(future, 10) + `,"500",4]
		]`
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	candles, err := testClient(srv).GetKlines(context.Background(), "BTCUSDT", "5m", 10)
	if err != nil {
		t.Fatalf("GetKlines: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("forming bucket must be dropped, got %d candles", len(candles))
	}
	if !candles[0].OpenTime.Before(candles[1].OpenTime) {
		t.Fatalf("klines must be oldest-first")
	}
	if candles[1].Close != 101 || !candles[1].Final {
		t.Fatalf("bad candle parse: %+v", candles[1])
	}
}

