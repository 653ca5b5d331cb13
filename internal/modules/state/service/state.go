package service

import (
	"sync"
	"sync/atomic"
	"time"

	"imb_bot/internal/models"
	"imb_bot/internal/modules/config"
)

// State — общее состояние движка. Мутируется телеграм-командами,
// читается оркестратором и каждым воркером, поэтому только атомики
// и узкие геттеры/сеттеры — никаких голых полей наружу.
type State struct {
	startedAt time.Time

	running      atomic.Bool
	scanning     atomic.Bool
	forceRefresh atomic.Bool
	softRestart  atomic.Bool
	debug        atomic.Bool

	cooldownSec atomic.Int64
	minCandles  atomic.Int64

	wsConnected  atomic.Int64 // число живых соединений
	lastTickUnix atomic.Int64 // unix seconds

	malformed   atomic.Int64
	signalsSent atomic.Int64

	mu       sync.Mutex
	minTier  models.Tier
	imb      models.IMBSettings
	universe int // размер активного списка пар
}

func NewState(cfg *config.Config) *State {
	s := &State{startedAt: time.Now()}
	s.running.Store(true)
	// стартуем в standby: скан включается командой /startscan
	s.scanning.Store(false)
	s.cooldownSec.Store(int64(cfg.CooldownDefault.Seconds()))
	s.minCandles.Store(int64(cfg.Scanner.MinCandles))
	s.imb = cfg.IMB
	if t, ok := models.ParseTier(cfg.MinTier); ok {
		s.minTier = t
	} else {
		s.minTier = models.TierA
	}
	return s
}

func (s *State) SetRunning(v bool) { s.running.Store(v) }
func (s *State) Running() bool     { return s.running.Load() }

func (s *State) SetScanning(v bool) { s.scanning.Store(v) }
func (s *State) Scanning() bool     { return s.scanning.Load() }

func (s *State) RequestRefresh()    { s.forceRefresh.Store(true) }
func (s *State) ForceRefresh() bool { return s.forceRefresh.Load() }
func (s *State) ClearRefresh()      { s.forceRefresh.Store(false) }

func (s *State) RequestSoftRestart() { s.softRestart.Store(true) }
func (s *State) SoftRestart() bool   { return s.softRestart.Load() }
func (s *State) ClearSoftRestart()   { s.softRestart.Store(false) }

func (s *State) SetDebug(v bool) { s.debug.Store(v) }
func (s *State) Debug() bool     { return s.debug.Load() }

func (s *State) SetCooldown(d time.Duration) { s.cooldownSec.Store(int64(d.Seconds())) }
func (s *State) Cooldown() time.Duration {
	return time.Duration(s.cooldownSec.Load()) * time.Second
}

func (s *State) SetMinCandles(n int) { s.minCandles.Store(int64(n)) }
func (s *State) MinCandles() int     { return int(s.minCandles.Load()) }

func (s *State) WorkerConnected()    { s.wsConnected.Add(1) }
func (s *State) WorkerDisconnected() { s.wsConnected.Add(-1) }
func (s *State) Connections() int    { return int(s.wsConnected.Load()) }

func (s *State) TouchTick(t time.Time) { s.lastTickUnix.Store(t.Unix()) }
func (s *State) LastTick() time.Time {
	u := s.lastTickUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) CountMalformed()  { s.malformed.Add(1) }
func (s *State) Malformed() int64 { return s.malformed.Load() }

func (s *State) CountSignal()       { s.signalsSent.Add(1) }
func (s *State) SignalsSent() int64 { return s.signalsSent.Load() }

func (s *State) SetMinTier(t models.Tier) {
	s.mu.Lock()
	s.minTier = t
	s.mu.Unlock()
}

func (s *State) MinTier() models.Tier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minTier
}

// SetIMBSettings — заменяет активные пороги целиком (пресет или команда).
func (s *State) SetIMBSettings(v models.IMBSettings) {
	s.mu.Lock()
	s.imb = v
	s.mu.Unlock()
}

func (s *State) IMBSettings() models.IMBSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imb
}

func (s *State) SetUniverseSize(n int) {
	s.mu.Lock()
	s.universe = n
	s.mu.Unlock()
}

func (s *State) UniverseSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.universe
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
