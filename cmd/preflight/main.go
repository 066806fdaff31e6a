// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"

	"go.uber.org/multierr"

	"github.com/hamed0406/oraclemonitor/internal/config"
)

func main() {
	envFile := ".env"
	if len(os.Args) > 1 {
		envFile = os.Args[1]
	}

	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load(envFile)
	if err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintln(os.Stderr, "✖", e)
		}
		os.Exit(1)
	}

	ok("miss endpoint " + cfg.MissEndpoint())
	ok(fmt.Sprintf("tolerance=%d period=%s interval=%s cooldown=%s",
		cfg.MissTolerance, cfg.MissTolerancePeriod, cfg.SampleInterval, cfg.AlertCooldown))

	if cfg.TelegramBotID != "" {
		ok("telegram chat " + cfg.TelegramChat)
	}
	if cfg.SlackWebhook != "" {
		ok("slack webhook present")
	}

	if cfg.AlertCooldown < cfg.SampleInterval {
		warn("ALERT_SLEEP_PERIOD is shorter than SLEEP; every qualifying tick may alert.")
	}
	if cfg.MissTolerancePeriod <= cfg.SampleInterval {
		warn("MISS_TOLERANCE_PERIOD <= SLEEP; the window resets whenever a single tick sees no new misses.")
	}
	if cfg.MissTolerance == 0 {
		warn("MISS_TOLERANCE=0 alerts on every tick once the cooldown passes.")
	}

	if cfg.StatusAddr == "" {
		warn("STATUS_ADDR empty; status API disabled.")
	} else {
		ok("STATUS_ADDR=" + cfg.StatusAddr)
		if len(cfg.StatusAPIKeys) == 0 {
			warn("STATUS_API_KEYS empty; status API is open to anyone who can reach it.")
		}
	}

	if cfg.Once {
		warn("APP_ENV=test; the monitor will run a single check and exit.")
	}

	ok("preflight passed")
}
