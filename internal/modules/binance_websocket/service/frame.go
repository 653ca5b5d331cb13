package service

import (
	"strconv"
	"time"

	"imb_bot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// кадр без kline-части: подтверждение подписки, ответ на ping и пр.
var errNotKline = errors.New("not a kline frame")

// combinedFrame — кадр combined-стрима fstream:
// {"stream":"btcusdt@kline_5m","data":{"s":"BTCUSDT","k":{...}}}
type combinedFrame struct {
	Stream string `json:"stream"`
	Data   struct {
		Symbol string `json:"s"`
		Kline  struct {
			OpenTime  int64  `json:"t"`
			CloseTime int64  `json:"T"`
			Interval  string `json:"i"`
			Open      string `json:"o"`
			Close     string `json:"c"`
			High      string `json:"h"`
			Low       string `json:"l"`
			Volume    string `json:"v"`
			Quote     string `json:"q"`
			Final     bool   `json:"x"`
		} `json:"k"`
	} `json:"data"`
}

// parseKlineFrame — символ + свеча из сырого кадра.
// errNotKline — служебный кадр, его просто пропускаем; остальные
// ошибки — битые данные.
func parseKlineFrame(msg []byte) (string, models.Candle, error) {
	var f combinedFrame
	if err := sonic.Unmarshal(msg, &f); err != nil {
		return "", models.Candle{}, errors.Wrap(err, "decode frame")
	}

	k := f.Data.Kline
	if f.Data.Symbol == "" || k.OpenTime == 0 {
		return "", models.Candle{}, errNotKline
	}

	open, err1 := strconv.ParseFloat(k.Open, 64)
	high, err2 := strconv.ParseFloat(k.High, 64)
	low, err3 := strconv.ParseFloat(k.Low, 64)
	closeP, err4 := strconv.ParseFloat(k.Close, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return "", models.Candle{}, errors.New("bad OHLC in kline frame")
	}
	if closeP <= 0 || high < low {
		return "", models.Candle{}, errors.New("inconsistent kline frame")
	}

	vol, _ := strconv.ParseFloat(k.Volume, 64)
	quote, _ := strconv.ParseFloat(k.Quote, 64)

	c := models.Candle{
		OpenTime:    time.UnixMilli(k.OpenTime),
		CloseTime:   time.UnixMilli(k.CloseTime),
		Open:        open,
		High:        high,
		Low:         low,
		Close:       closeP,
		Volume:      vol,
		QuoteVolume: quote,
		Final:       k.Final,
	}
	return f.Data.Symbol, c, nil
}
