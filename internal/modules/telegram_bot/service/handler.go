package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"imb_bot/internal/models"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (t *Telegram) isAdmin(chatID int64) bool {
	return t.cfg.Telegram.AdminChatID != 0 && chatID == t.cfg.Telegram.AdminChatID
}

func (t *Telegram) handleUpdate(ctx context.Context, up tgbot.Update) {
	if up.Message == nil || !up.Message.IsCommand() {
		return
	}
	msg := up.Message
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		t.handleSubscribe(ctx, msg)
	case "stop":
		t.handleUnsubscribe(ctx, chatID)
	case "status":
		t.handleStatus(ctx, chatID)
	case "mute":
		t.handleMute(ctx, chatID, true)
	case "unmute":
		t.handleMute(ctx, chatID, false)
	case "tier":
		t.handleTier(ctx, chatID, msg.CommandArguments())

	// командная плоскость — только админ
	case "startscan":
		t.adminOnly(ctx, chatID, func() {
			t.st.SetScanning(true)
			t.SendF(ctx, chatID, "▶️ Скан включён")
		})
	case "stopscan":
		t.adminOnly(ctx, chatID, func() {
			t.st.SetScanning(false)
			t.SendF(ctx, chatID, "⏸ Скан выключен, стримы живут")
		})
	case "refresh":
		t.adminOnly(ctx, chatID, func() {
			t.st.RequestRefresh()
			t.SendF(ctx, chatID, "🔄 Пересбор вселенной на следующей эпохе")
		})
	case "restart":
		t.adminOnly(ctx, chatID, func() {
			t.st.RequestSoftRestart()
			t.SendF(ctx, chatID, "♻️ Мягкий рестарт эпохи")
		})
	case "cooldown":
		t.adminOnly(ctx, chatID, func() { t.handleCooldown(ctx, chatID, msg.CommandArguments()) })
	case "mode":
		t.adminOnly(ctx, chatID, func() { t.handleMode(ctx, chatID, msg.CommandArguments()) })
	case "preset":
		t.adminOnly(ctx, chatID, func() { t.handlePreset(ctx, chatID, msg.CommandArguments()) })
	case "debug":
		t.adminOnly(ctx, chatID, func() {
			t.st.SetDebug(!t.st.Debug())
			t.SendF(ctx, chatID, "🔧 debug=%v", t.st.Debug())
		})
	case "vip":
		t.adminOnly(ctx, chatID, func() { t.handleVIP(ctx, chatID, msg.CommandArguments()) })
	}
}

func (t *Telegram) adminOnly(ctx context.Context, chatID int64, fn func()) {
	if !t.isAdmin(chatID) {
		t.SendF(ctx, chatID, "⛔️ Команда только для админа")
		return
	}
	fn()
}

func (t *Telegram) handleSubscribe(ctx context.Context, msg *tgbot.Message) {
	chatID := msg.Chat.ID
	sub, ok := t.repo.Get(chatID)
	if !ok {
		sub = &models.Subscriber{
			ChatID: chatID,
			Name:   strings.TrimSpace(msg.From.UserName),
		}
	}
	sub.Settings.Muted = false

	if err := t.repo.Upsert(ctx, sub); err != nil {
		log.Printf("subscribe %d: %v", chatID, err)
		t.SendF(ctx, chatID, "❗️ Не получилось подписать, попробуй позже")
		return
	}
	t.SendF(ctx, chatID,
		"👋 Подписка оформлена.\nСигналы от тира %s и выше.\nКоманды: /status /tier /mute /stop",
		t.st.MinTier())
}

func (t *Telegram) handleUnsubscribe(ctx context.Context, chatID int64) {
	if err := t.repo.Delete(ctx, chatID); err != nil {
		log.Printf("unsubscribe %d: %v", chatID, err)
		t.SendF(ctx, chatID, "❗️ Ошибка, попробуй позже")
		return
	}
	t.SendF(ctx, chatID, "👋 Подписка удалена")
}

func (t *Telegram) handleStatus(ctx context.Context, chatID int64) {
	st := t.st

	scanning := "⏸ standby"
	if st.Scanning() {
		scanning = "▶️ active"
	}
	lastTick := "—"
	if lt := st.LastTick(); !lt.IsZero() {
		lastTick = time.Since(lt).Truncate(time.Second).String() + " назад"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Статус\n")
	fmt.Fprintf(&b, "Скан: %s\n", scanning)
	fmt.Fprintf(&b, "Вселенная: %d пар\n", st.UniverseSize())
	fmt.Fprintf(&b, "WS-соединений: %d\n", st.Connections())
	fmt.Fprintf(&b, "Последний тик: %s\n", lastTick)
	fmt.Fprintf(&b, "Сигналов отправлено: %d\n", st.SignalsSent())
	fmt.Fprintf(&b, "Битых кадров: %d\n", st.Malformed())
	fmt.Fprintf(&b, "Кулдаун: %s\n", st.Cooldown())
	fmt.Fprintf(&b, "Мин. тир: %s\n", st.MinTier())
	fmt.Fprintf(&b, "Подписчиков: %d\n", t.repo.Count())
	fmt.Fprintf(&b, "Аптайм: %s", st.Uptime().Truncate(time.Second))

	t.Send(ctx, chatID, b.String())
}

func (t *Telegram) handleMute(ctx context.Context, chatID int64, muted bool) {
	sub, ok := t.repo.Get(chatID)
	if !ok {
		t.SendF(ctx, chatID, "Сначала /start")
		return
	}
	sub.Settings.Muted = muted
	if err := t.repo.Upsert(ctx, sub); err != nil {
		log.Printf("mute %d: %v", chatID, err)
		return
	}
	if muted {
		t.SendF(ctx, chatID, "🔇 Рассылка на паузе, /unmute чтобы вернуть")
	} else {
		t.SendF(ctx, chatID, "🔔 Рассылка включена")
	}
}

// /tier A+ — персональный порог, пустой аргумент сбрасывает на общий.
func (t *Telegram) handleTier(ctx context.Context, chatID int64, arg string) {
	sub, ok := t.repo.Get(chatID)
	if !ok {
		t.SendF(ctx, chatID, "Сначала /start")
		return
	}

	arg = strings.TrimSpace(arg)
	if arg == "" {
		sub.Settings.MinTier = ""
	} else {
		tier, ok := models.ParseTier(arg)
		if !ok {
			t.SendF(ctx, chatID, "Не понял тир %q, жду B / A / A+", arg)
			return
		}
		sub.Settings.MinTier = string(tier)
	}

	if err := t.repo.Upsert(ctx, sub); err != nil {
		log.Printf("tier %d: %v", chatID, err)
		return
	}
	if sub.Settings.MinTier == "" {
		t.SendF(ctx, chatID, "✅ Персональный порог снят, действует общий (%s)", t.st.MinTier())
	} else {
		t.SendF(ctx, chatID, "✅ Твой порог: %s", sub.Settings.MinTier)
	}
}

// /cooldown 15m или /cooldown 900 (секунды).
func (t *Telegram) handleCooldown(ctx context.Context, chatID int64, arg string) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		t.SendF(ctx, chatID, "Кулдаун сейчас %s", t.st.Cooldown())
		return
	}

	d, err := time.ParseDuration(arg)
	if err != nil {
		if sec, err2 := strconv.Atoi(arg); err2 == nil && sec > 0 {
			d = time.Duration(sec) * time.Second
		} else {
			t.SendF(ctx, chatID, "Не понял %q, жду 15m / 900", arg)
			return
		}
	}
	if d <= 0 {
		t.SendF(ctx, chatID, "Кулдаун должен быть положительным")
		return
	}

	t.st.SetCooldown(d)
	t.SendF(ctx, chatID, "⏱ Кулдаун: %s", d)
}

func (t *Telegram) handleMode(ctx context.Context, chatID int64, arg string) {
	tier, ok := models.ParseTier(strings.TrimSpace(arg))
	if !ok {
		t.SendF(ctx, chatID, "Не понял тир %q, жду B / A / A+", arg)
		return
	}
	t.st.SetMinTier(tier)
	t.SendF(ctx, chatID, "🎚 Общий порог: %s", tier)
}

func (t *Telegram) handlePreset(ctx context.Context, chatID int64, arg string) {
	name := strings.TrimSpace(strings.ToLower(arg))
	if name == "" {
		names := make([]string, 0, len(models.Presets))
		for n := range models.Presets {
			names = append(names, n)
		}
		t.SendF(ctx, chatID, "Доступные пресеты: %s", strings.Join(names, ", "))
		return
	}

	p, ok := models.Presets[name]
	if !ok {
		t.SendF(ctx, chatID, "Нет пресета %q", name)
		return
	}

	set := models.DefaultIMBSettings()
	p.Apply(&set)
	t.st.SetIMBSettings(set)
	t.SendF(ctx, chatID, "%s\nПороги применены, действуют со следующей свечи", p.Description)
}

// /vip <chat_id> <days>
func (t *Telegram) handleVIP(ctx context.Context, chatID int64, arg string) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		t.SendF(ctx, chatID, "Формат: /vip <chat_id> <days>")
		return
	}
	target, err1 := strconv.ParseInt(fields[0], 10, 64)
	days, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil || days <= 0 {
		t.SendF(ctx, chatID, "Формат: /vip <chat_id> <days>")
		return
	}

	sub, ok := t.repo.Get(target)
	if !ok {
		sub = &models.Subscriber{ChatID: target}
	}
	sub.VIP = true
	sub.VIPUntil = time.Now().AddDate(0, 0, days)

	if err := t.repo.Upsert(ctx, sub); err != nil {
		t.SendF(ctx, chatID, "❗️ Не сохранилось: %v", err)
		return
	}
	t.SendF(ctx, chatID, "⭐️ VIP для %d до %s", target, sub.VIPUntil.Format("2006-01-02"))
	t.SendF(ctx, target, "⭐️ Тебе выдан VIP до %s", sub.VIPUntil.Format("2006-01-02"))
}
