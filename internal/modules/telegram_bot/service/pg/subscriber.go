package pg

import (
	"context"
	"sync"
	"time"

	"imb_bot/internal/models"
	"imb_bot/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Subscribers — репозиторий получателей рассылки: кэш в памяти поверх
// постгреса. Рассылка читает только кэш, база нужна чтобы пережить
// рестарт процесса.
type Subscribers struct {
	db *db.PgTxManager

	mu   sync.RWMutex
	data map[int64]*models.Subscriber
}

func NewSubscribers(m *db.PgTxManager) *Subscribers {
	return &Subscribers{
		db:   m,
		data: make(map[int64]*models.Subscriber),
	}
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS subscribers (
	chat_id    BIGINT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	vip        BOOLEAN NOT NULL DEFAULT FALSE,
	vip_until  TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
	settings   JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Load — схема + прогрев кэша на старте. Протухший VIP снимается
// сразу и фиксируется обратно в базу.
func (s *Subscribers) Load(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.Subscribers.Load")
		}
	}()

	var expired []*models.Subscriber

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctxTx, createTableSQL); err != nil {
			return err
		}

		rows, err := tx.Query(ctxTx,
			`SELECT chat_id, name, vip, vip_until, settings, created_at FROM subscribers`)
		if err != nil {
			return err
		}
		defer rows.Close()

		now := time.Now()
		loaded := make(map[int64]*models.Subscriber)
		for rows.Next() {
			var (
				sub models.Subscriber
				raw []byte
			)
			if err := rows.Scan(&sub.ChatID, &sub.Name, &sub.VIP, &sub.VIPUntil, &raw, &sub.CreatedAt); err != nil {
				return err
			}
			if len(raw) > 0 {
				if err := sonic.Unmarshal(raw, &sub.Settings); err != nil {
					return err
				}
			}
			if sub.VIP && !sub.VIPActive(now) {
				sub.VIP = false
				expired = append(expired, &sub)
			}
			loaded[sub.ChatID] = &sub
		}
		if err := rows.Err(); err != nil {
			return err
		}

		s.mu.Lock()
		s.data = loaded
		s.mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}

	for _, sub := range expired {
		if err := s.Upsert(ctx, sub); err != nil {
			return err
		}
	}
	return nil
}

// Upsert — создаёт или обновляет подписчика, кэш и база синхронно.
func (s *Subscribers) Upsert(ctx context.Context, sub *models.Subscriber) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.Subscribers.Upsert")
		}
	}()

	raw, err := sonic.Marshal(sub.Settings)
	if err != nil {
		return err
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx,
			`INSERT INTO subscribers (chat_id, name, vip, vip_until, settings, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (chat_id) DO UPDATE SET
			   name = EXCLUDED.name,
			   vip = EXCLUDED.vip,
			   vip_until = EXCLUDED.vip_until,
			   settings = EXCLUDED.settings`,
			sub.ChatID, sub.Name, sub.VIP, sub.VIPUntil, raw, sub.CreatedAt)
		return err
	})
	if err != nil {
		return err
	}

	cp := *sub
	s.mu.Lock()
	s.data[sub.ChatID] = &cp
	s.mu.Unlock()
	return nil
}

// Delete — /stop: подписчик уходит целиком.
func (s *Subscribers) Delete(ctx context.Context, chatID int64) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "pg.Subscribers.Delete")
		}
	}()

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, `DELETE FROM subscribers WHERE chat_id = $1`, chatID)
		return err
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.data, chatID)
	s.mu.Unlock()
	return nil
}

func (s *Subscribers) Get(chatID int64) (*models.Subscriber, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.data[chatID]
	if !ok {
		return nil, false
	}
	cp := *sub
	return &cp, true
}

// All — снапшот кэша для рассылки.
func (s *Subscribers) All() []*models.Subscriber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Subscriber, 0, len(s.data))
	for _, sub := range s.data {
		cp := *sub
		out = append(out, &cp)
	}
	return out
}

func (s *Subscribers) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
