package config

import (
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ChannelTelegram = "telegram"
	ChannelKafka    = "kafka"
)

type Tables struct {
	Schema      string
	Orders      string
	Subscribers string
}

type Postgres struct {
	Host     string
	Port     string
	DB       string
	User     string
	Password string
	SSLMode  string
}

type Sheet struct {
	URL         string
	Credentials string
	RangeStart  string
	RangeEnd    string
}

type Rate struct {
	Source string
	Target string
	URL    string
}

type Notify struct {
	Channel       string
	TelegramToken string
	KafkaBrokers  []string
	KafkaTopic    string
	Workers       int
}

type Schedule struct {
	SyncInterval   time.Duration
	NotifyInterval time.Duration
	FetchTimeout   time.Duration
	StoreTimeout   time.Duration
	SendTimeout    time.Duration
}

type Log struct {
	Level  string
	Format string
	File   string
}

type Breaker struct {
	Threshold   uint32
	OpenTimeout time.Duration
	MaxHalfOpen uint32
}

type Retry struct {
	Attempts     int
	Base         time.Duration
	Max          time.Duration
	JitterFactor float64
}

type Config struct {
	HTTPAddr string
	CacheCap int
	Timezone string

	Pg       Postgres
	Tables   Tables
	Sheet    Sheet
	Rate     Rate
	Notify   Notify
	Schedule Schedule
	Log      Log
	Breaker  Breaker
	Retry    Retry
}

// Load fatals on error for simplicity in main().
func Load() Config {
	cfg, err := load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	return cfg
}

func load() (Config, error) {
	_ = godotenv.Load("env/.env")

	cfg := Config{
		HTTPAddr: envDefault("HTTP_ADDR", ":8081"),
		CacheCap: envInt("CACHE_CAP", 1000),
		Timezone: envDefault("TIMEZONE", "Europe/Moscow"),

		Pg: Postgres{
			Host:     strings.TrimSpace(os.Getenv("PG_HOST")),
			Port:     strings.TrimSpace(envDefault("PG_PORT", "5432")),
			DB:       strings.TrimSpace(os.Getenv("PG_DB")),
			User:     strings.TrimSpace(os.Getenv("PG_USER")),
			Password: strings.TrimSpace(os.Getenv("PG_PASSWORD")),
			SSLMode:  strings.TrimSpace(envDefault("PG_SSLMODE", "disable")),
		},

		Tables: Tables{
			Schema:      envDefault("DB_SCHEMA", "public"),
			Orders:      envDefault("TBL_ORDERS", "google_sheet"),
			Subscribers: envDefault("TBL_SUBSCRIBERS", "subscribers"),
		},

		Sheet: Sheet{
			URL:         strings.TrimSpace(envDefault("SHEET_URL", os.Getenv("SHEET_ID"))),
			Credentials: envDefault("SHEET_CREDENTIALS", "client_secret.json"),
			RangeStart:  envDefault("SHEET_RANGE_START", "A2"),
			RangeEnd:    envDefault("SHEET_RANGE_END", "D1000"),
		},

		Rate: Rate{
			Source: strings.ToUpper(envDefault("RATE_SOURCE_CURRENCY", "USD")),
			Target: strings.ToUpper(envDefault("RATE_TARGET_CURRENCY", "RUB")),
			URL:    envDefault("RATE_URL", "https://www.google.com/search"),
		},

		Notify: Notify{
			Channel:       strings.ToLower(envDefault("NOTIFY_CHANNEL", ChannelTelegram)),
			TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
			KafkaBrokers:  splitCSV(strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))),
			KafkaTopic:    strings.TrimSpace(os.Getenv("KAFKA_TOPIC")),
			Workers:       envInt("DELIVERY_WORKERS", 4),
		},

		Schedule: Schedule{
			SyncInterval:   envDurationMS("SYNC_INTERVAL", time.Minute),
			NotifyInterval: envDurationMS("NOTIFY_INTERVAL", 30*time.Minute),
			FetchTimeout:   envDurationMS("FETCH_TIMEOUT", 15*time.Second),
			StoreTimeout:   envDurationMS("STORE_TIMEOUT", 10*time.Second),
			SendTimeout:    envDurationMS("SEND_TIMEOUT", 10*time.Second),
		},

		Log: Log{
			Level:  envDefault("LOG_LEVEL", "info"),
			Format: envDefault("LOG_FORMAT", "json"),
			File:   strings.TrimSpace(os.Getenv("LOG_FILE")),
		},

		Breaker: Breaker{
			Threshold:   envUint32("BREAKER_THRESHOLD", 5),
			OpenTimeout: envDurationMS("BREAKER_OPENTIMEOUT", 2*time.Minute),
			MaxHalfOpen: envUint32("BREAKER_MAXHALFOPEN", 1),
		},

		Retry: Retry{
			Attempts:     envInt("RETRY_ATTEMPTS", 3),
			Base:         envDurationMS("RETRY_BASE", 500*time.Millisecond),
			Max:          envDurationMS("RETRY_MAX", 5*time.Second),
			JitterFactor: envFloat64("RETRY_JITTERFACTOR", 0.3),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	req := map[string]string{
		"PG_HOST":     c.Pg.Host,
		"PG_DB":       c.Pg.DB,
		"PG_USER":     c.Pg.User,
		"PG_PASSWORD": c.Pg.Password,
		"SHEET_URL":   c.Sheet.URL,
	}
	switch c.Notify.Channel {
	case ChannelTelegram:
		req["TELEGRAM_TOKEN"] = c.Notify.TelegramToken
	case ChannelKafka:
		req["KAFKA_BROKERS"] = strings.Join(c.Notify.KafkaBrokers, ",")
		req["KAFKA_TOPIC"] = c.Notify.KafkaTopic
	default:
		return &invalidEnvError{Key: "NOTIFY_CHANNEL", Value: c.Notify.Channel}
	}
	for k, v := range req {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &missingEnvError{Keys: missing}
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return &invalidEnvError{Key: "TIMEZONE", Value: c.Timezone}
	}
	return nil
}

// normalize clamps values that would otherwise stall the scheduler or the pool.
func (c *Config) normalize() {
	if c.CacheCap <= 0 {
		log.Printf("CACHE_CAP is %d, adjusting to 1", c.CacheCap)
		c.CacheCap = 1
	}
	if c.Notify.Workers <= 0 {
		log.Printf("DELIVERY_WORKERS is %d, adjusting to 1", c.Notify.Workers)
		c.Notify.Workers = 1
	}
	if c.Schedule.SyncInterval <= 0 {
		log.Printf("SYNC_INTERVAL is %v, adjusting to 1m", c.Schedule.SyncInterval)
		c.Schedule.SyncInterval = time.Minute
	}
	if c.Schedule.NotifyInterval <= 0 {
		log.Printf("NOTIFY_INTERVAL is %v, adjusting to 30m", c.Schedule.NotifyInterval)
		c.Schedule.NotifyInterval = 30 * time.Minute
	}
	if c.Retry.Attempts < 1 {
		log.Printf("RETRY_ATTEMPTS is %d, adjusting to 1", c.Retry.Attempts)
		c.Retry.Attempts = 1
	}
	if c.Retry.Base <= 0 {
		log.Printf("RETRY_BASE is %v, adjusting to 100ms", c.Retry.Base)
		c.Retry.Base = 100 * time.Millisecond
	}
	if c.Retry.Max < c.Retry.Base {
		log.Printf("RETRY_MAX (%v) < RETRY_BASE (%v), adjusting max to base", c.Retry.Max, c.Retry.Base)
		c.Retry.Max = c.Retry.Base
	}
}

// Location returns the configured timezone; validate() guarantees it loads.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type missingEnvError struct{ Keys []string }

func (e *missingEnvError) Error() string {
	return "missing required envs: " + strings.Join(e.Keys, ", ")
}

type invalidEnvError struct{ Key, Value string }

func (e *invalidEnvError) Error() string {
	return "invalid env " + e.Key + "=" + strconv.Quote(e.Value)
}

// DSN builds a proper Postgres URL, safely escaping user/pass and query.
func (c Config) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Pg.User, c.Pg.Password),
		Host:   net.JoinHostPort(c.Pg.Host, c.Pg.Port),
		Path:   "/" + c.Pg.DB,
	}
	q := url.Values{}
	if c.Pg.SSLMode != "" {
		q.Set("sslmode", c.Pg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func envDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return n
}

func envUint32(k string, def uint32) uint32 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	u, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return uint32(u)
}

func envFloat64(k string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %.3f: %v", k, v, def, err)
		return def
	}
	return f
}

// envDurationMS supports either plain integer milliseconds ("1500") or
// Go duration strings ("1.5s", "250ms", "2m").
func envDurationMS(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' }) != -1 {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
			return def
		}
		return d
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
