package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/oraclemonitor/internal/config"
	"github.com/hamed0406/oraclemonitor/internal/httpapi"
	"github.com/hamed0406/oraclemonitor/internal/logging"
	"github.com/hamed0406/oraclemonitor/internal/notify"
	"github.com/hamed0406/oraclemonitor/internal/repo/memory"
	"github.com/hamed0406/oraclemonitor/internal/scheduler"
	"github.com/hamed0406/oraclemonitor/internal/source"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env", ".env", "path to a .env file (optional)")
	once := fs.Bool("once", false, "run a single check and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(stderr, "configuration error:")
		for _, e := range multierr.Errors(err) {
			fmt.Fprintln(stderr, "  -", e)
		}
		return 1
	}
	if *once {
		cfg.Once = true
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, "logger:", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	var channels notify.Multi
	if tg := notify.NewTelegram(cfg.TelegramBotID, cfg.TelegramToken, cfg.TelegramChat, cfg.HTTPTimeout); tg != nil {
		channels = append(channels, tg)
	}
	if sl := notify.NewSlack(cfg.SlackWebhook, cfg.HTTPTimeout); sl != nil {
		channels = append(channels, sl)
	}

	store := memory.New(memory.DefaultCapacity)
	runner := scheduler.NewRunner(
		logger,
		source.NewHTTPSource(cfg.MissEndpoint(), cfg.HTTPTimeout),
		channels,
		store,
		scheduler.RunnerConfig{
			Policy:    cfg.Policy(),
			Interval:  cfg.SampleInterval,
			Validator: cfg.Valoper,
			Once:      cfg.Once,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.StatusAddr != "" && !cfg.Once {
		api := httpapi.NewServer(logger, store, cfg.Policy(), cfg.SampleInterval)
		srv := &http.Server{
			Addr:              cfg.StatusAddr,
			Handler:           api.Router(cfg.StatusAPIKeys, cfg.StatusRPM, cfg.StatusBurst),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("status_api_listen", zap.String("addr", cfg.StatusAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("status_api_error", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	logger.Info("miss_endpoint", zap.String("url", cfg.MissEndpoint()), zap.Int("alert_channels", len(channels)))

	err = runner.Run(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return 0
	case cfg.Once:
		// the harness wants to know the single check failed
		return 1
	default:
		logger.Error("monitor_exit", zap.Error(err))
		return 1
	}
}
