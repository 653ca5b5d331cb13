package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"imb_bot/internal/models"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

// Config ...
type Config struct {
	Telegram struct {
		Token string `yaml:"token"`
		// Служебный чат для операционных сообщений (эпохи, прогрев, ошибки).
		ServiceChatID int64 `yaml:"service_chat_id"`
		// Админ: /vip и прочие привилегированные команды.
		AdminChatID int64 `yaml:"admin_chat_id"`
	} `yaml:"telegram"`
	DB string `yaml:"db_dsn"`

	Health struct {
		Addr string `yaml:"addr"`
	} `yaml:"health"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	Binance struct {
		RestURL   string `yaml:"rest_url"`
		StreamURL string `yaml:"stream_url"`
	} `yaml:"binance"`

	Scanner struct {
		Timeframe     string  `yaml:"timeframe"`
		MaxCandles    int     `yaml:"max_candles"`
		PreloadLimit  int     `yaml:"preload_limit"`
		MinCandles    int     `yaml:"min_candles"`
		BatchSize     int     `yaml:"batch_size"`
		MaxPairs      int     `yaml:"max_pairs"`
		MinVolumeUSDT float64 `yaml:"min_volume_usdt"`
	} `yaml:"scanner"`

	HTF struct {
		FetchLimit int `yaml:"fetch_limit"`
	} `yaml:"htf"`

	// Пороги детектора + стартовый пресет/тиер.
	IMB       models.IMBSettings `yaml:"imb"`
	IMBPreset string             `yaml:"imb_preset"`
	MinTier   string             `yaml:"min_tier"`

	// Длительности задаём через env (yaml.v2 не парсит "4h" в Duration).
	RefreshInterval time.Duration
	CooldownDefault time.Duration
	ReadTimeout     time.Duration
	ReconnectDelay  time.Duration
	EpochRetryDelay time.Duration
	TTL1h           time.Duration
	TTL15m          time.Duration

	PreloadParallel int
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		IMB:       models.DefaultIMBSettings(),
		IMBPreset: getenvDefault("IMB_PRESET", "default"),
		MinTier:   getenvDefault("MIN_TIER", "A"),

		RefreshInterval: durationFromEnv("REFRESH_INTERVAL", "4h"),
		CooldownDefault: durationFromEnv("SIGNAL_COOLDOWN", "15m"),
		ReadTimeout:     durationFromEnv("WS_READ_TIMEOUT", "60s"),
		ReconnectDelay:  durationFromEnv("WS_RECONNECT_DELAY", "3s"),
		EpochRetryDelay: durationFromEnv("EPOCH_RETRY_DELAY", "5s"),
		TTL1h:           durationFromEnv("HTF_TTL_1H", "1h"),
		TTL15m:          durationFromEnv("HTF_TTL_15M", "15m"),

		PreloadParallel: intFromEnv("PRELOAD_PARALLEL", 8),
	}
	config.Scanner.Timeframe = "5m"
	config.Scanner.MaxCandles = 120
	config.Scanner.PreloadLimit = 60
	config.Scanner.MinCandles = 40
	config.Scanner.BatchSize = 80
	config.Scanner.MaxPairs = intFromEnv("MAX_PAIRS", 200)
	config.Scanner.MinVolumeUSDT = floatFromEnv("MIN_VOLUME_USDT", 10_000_000)
	config.Binance.RestURL = "https://fapi.binance.com"
	config.Binance.StreamURL = "wss://fstream.binance.com/stream"
	config.HTF.FetchLimit = 150
	config.Health.Addr = ":8080"

	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	// пресет поверх yaml: пороги из пресета сильнее файла
	if p, ok := models.Presets[config.IMBPreset]; ok {
		p.Apply(&config.IMB)
	} else if config.IMBPreset != "" {
		return nil, fmt.Errorf("unknown imb preset %q", config.IMBPreset)
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
