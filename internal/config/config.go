package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"github.com/hamed0406/oraclemonitor/internal/monitor"
	"github.com/hamed0406/oraclemonitor/internal/source"
)

type Config struct {
	MissTolerance       int64         // misses within a window that trigger an alert
	MissTolerancePeriod time.Duration // quiet time after which the window resets
	SampleInterval      time.Duration // pause between ticks
	AlertCooldown       time.Duration // minimum gap between two alerts

	RPC     string // node REST base URL
	Valoper string // validator operator address

	TelegramBotID string
	TelegramToken string
	TelegramChat  string
	SlackWebhook  string

	Once bool // APP_ENV=test: run a single tick and exit

	LogDir      string
	LogLevel    zapcore.Level
	HTTPTimeout time.Duration

	StatusAddr    string // empty disables the status API
	StatusAPIKeys []string
	StatusRPM     int
	StatusBurst   int
}

// Error describes one bad or missing setting.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string { return e.Key + ": " + e.Reason }

// Load reads envFile (if it exists) without overriding variables already set,
// then builds the config from the environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the config from the environment. Every problem is reported,
// not just the first.
func FromEnv() (Config, error) {
	var errs error
	fail := func(key, reason string) {
		errs = multierr.Append(errs, &Error{Key: key, Reason: reason})
	}

	cfg := Config{
		RPC:           env("RPC"),
		Valoper:       env("VALOPER_ADDRESS"),
		TelegramBotID: env("TELEGRAM_BOT_ID"),
		TelegramToken: env("TELEGRAM_TOKEN"),
		TelegramChat:  env("TELEGRAM_CHAT"),
		SlackWebhook:  env("SLACK_WEBHOOK_URL"),
		Once:          strings.EqualFold(env("APP_ENV"), "test"),
		LogDir:        env("LOG_DIR"),
		StatusAddr:    env("STATUS_ADDR"),
		StatusAPIKeys: splitList(env("STATUS_API_KEYS")),
		StatusRPM:     120,
		StatusBurst:   60,
		HTTPTimeout:   10 * time.Second,
	}

	if n, ok := requiredInt("MISS_TOLERANCE", 0, fail); ok {
		cfg.MissTolerance = int64(n)
	}
	if n, ok := requiredInt("MISS_TOLERANCE_PERIOD", 1, fail); ok {
		cfg.MissTolerancePeriod = time.Duration(n) * time.Second
	}
	if n, ok := requiredInt("SLEEP", 1, fail); ok {
		cfg.SampleInterval = time.Duration(n) * time.Second
	}
	if n, ok := requiredInt("ALERT_SLEEP_PERIOD", 1, fail); ok {
		cfg.AlertCooldown = time.Duration(n) * time.Second
	}

	switch {
	case cfg.RPC == "":
		fail("RPC", "required")
	default:
		if u, err := url.ParseRequestURI(cfg.RPC); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fail("RPC", fmt.Sprintf("invalid URL %q", cfg.RPC))
		}
	}
	if cfg.Valoper == "" {
		fail("VALOPER_ADDRESS", "required")
	}

	tg := cfg.TelegramBotID != "" || cfg.TelegramToken != "" || cfg.TelegramChat != ""
	if tg && (cfg.TelegramBotID == "" || cfg.TelegramToken == "" || cfg.TelegramChat == "") {
		fail("TELEGRAM_BOT_ID/TELEGRAM_TOKEN/TELEGRAM_CHAT", "all three must be set")
	}
	if !tg && cfg.SlackWebhook == "" {
		fail("TELEGRAM_BOT_ID/SLACK_WEBHOOK_URL", "no alert channel configured")
	}

	if cfg.LogDir == "" {
		cfg.LogDir = "logs"
	}
	cfg.LogLevel = zapcore.InfoLevel
	if v := env("LOG_LEVEL"); v != "" {
		lvl, err := zapcore.ParseLevel(v)
		if err != nil {
			fail("LOG_LEVEL", err.Error())
		} else {
			cfg.LogLevel = lvl
		}
	}

	if v := env("HTTP_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.HTTPTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := env("STATUS_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.StatusRPM = n
		}
	}
	if v := env("STATUS_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.StatusBurst = n
		}
	}

	if errs != nil {
		return Config{}, errs
	}
	return cfg, nil
}

// Policy returns the monitor tuning carried by the config.
func (c Config) Policy() monitor.Policy {
	return monitor.Policy{
		Tolerance:       c.MissTolerance,
		TolerancePeriod: c.MissTolerancePeriod,
		Cooldown:        c.AlertCooldown,
	}
}

func (c Config) MissEndpoint() string {
	return source.MissEndpoint(c.RPC, c.Valoper)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func requiredInt(key string, min int, fail func(key, reason string)) (int, bool) {
	v := env(key)
	if v == "" {
		fail(key, "required")
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fail(key, fmt.Sprintf("not an integer: %q", v))
		return 0, false
	}
	if n < min {
		fail(key, fmt.Sprintf("must be >= %d, got %d", min, n))
		return 0, false
	}
	return n, true
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
