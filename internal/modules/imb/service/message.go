package service

import (
	"fmt"
	"strings"
	"time"

	"imb_bot/internal/helper"
	"imb_bot/internal/models"
	htf "imb_bot/internal/modules/htf/service"
)

// buildMessage — текст сигнала для рассылки. Форматирование живёт тут,
// ядро сканера видит только готовую строку.
func buildMessage(res *models.SignalResult, htfCtx htf.Context, set models.IMBSettings) string {
	emoji := "🟢"
	if res.Side == models.SideShort {
		emoji = "🔴"
	}

	levMin, levMax := recommendLeverage(res.SLPct)
	slPctText := fmt.Sprintf("%.2f%%", res.SLPct)

	tfDur := helper.TFDuration(set.EntryTF)
	if tfDur <= 0 {
		tfDur = 5 * time.Minute
	}
	valid := time.Duration(set.MaxEntryAgeCandles) * tfDur
	validText := "короткая"
	if valid > 0 {
		validText = fmt.Sprintf("±%d мин", int(valid.Minutes()))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s IMB SIGNAL — %s (%s)\n", emoji, res.Symbol, res.Side)
	fmt.Fprintf(&b, "Entry : `%.6f`\n", res.Entry)
	fmt.Fprintf(&b, "SL    : `%.6f`\n", res.SL)
	fmt.Fprintf(&b, "TP1   : `%.6f`\n", res.TP1)
	fmt.Fprintf(&b, "TP2   : `%.6f`\n", res.TP2)
	fmt.Fprintf(&b, "TP3   : `%.6f`\n", res.TP3)
	b.WriteString("Model : Institutional Mitigation Block (IMB)\n")
	fmt.Fprintf(&b, "Плечо : %.0fx–%.0fx (SL %s)\n", levMin, levMax, slPctText)
	fmt.Fprintf(&b, "Валидность входа : %s\n", validText)
	fmt.Fprintf(&b, "Tier : %s (Score %d)\n", res.Tier, res.Score)
	fmt.Fprintf(&b, "HTF : 1h %s / %s, 15m %s\n",
		htfCtx.Trend1h, htfCtx.Pos1h, htfCtx.Pos15m)

	if res.SLPct > 0 {
		posMult := 100.0 / res.SLPct
		fmt.Fprintf(&b,
			"Risk Calc (риск 1%%):\n"+
				"• SL %s → размер позиции ≈ %.1f× баланса\n"+
				"• Пример: баланс 100 USDT → позиция ≈ %.0f USDT",
			slPctText, posMult, posMult*100,
		)
	} else {
		b.WriteString("Risk Calc: SL% невалиден, пропусти расчёт.")
	}

	return b.String()
}
