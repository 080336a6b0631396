package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/Spok95/portal-bot/internal/bot"
	"github.com/Spok95/portal-bot/internal/browser"
	"github.com/Spok95/portal-bot/internal/calendar"
	"github.com/Spok95/portal-bot/internal/config"
	"github.com/Spok95/portal-bot/internal/dialog"
	"github.com/Spok95/portal-bot/internal/domain/runs"
	"github.com/Spok95/portal-bot/internal/infra/db"
	httpx "github.com/Spok95/portal-bot/internal/infra/http"
	"github.com/Spok95/portal-bot/internal/infra/logger"
	"github.com/Spok95/portal-bot/internal/infra/metrics"
	"github.com/Spok95/portal-bot/internal/portal"
)

func main() {
	cfgPath := flag.String("config", "config/example.yaml", "path to config file")
	migrations := flag.String("migrations", "migrations", "goose migrations directory")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := db.Migrate(cfg.Postgres.DSN, *migrations); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("db connected")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		gatherer = reg
	}

	launcher := browser.NewRodLauncher(cfg.Browser(), log.With("component", "browser"))
	client := portal.New(cfg.PortalClient(), launcher, calendar.New(cfg.Location()),
		log.With("component", "portal"), metrics.NewPortal(reg))
	defer client.Close()

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("telegram auth failed", "err", err)
		os.Exit(1)
	}
	log.Info("telegram authorized", "bot", api.Self.UserName)

	b := bot.New(api, log.With("component", "bot"), client,
		dialog.NewRepo(pool), runs.NewRepo(pool), bot.Options{
			AdminChatID:  cfg.Telegram.AdminChatID,
			AllowedChats: cfg.Telegram.AllowedChats,
			Location:     cfg.Location(),
		})

	srv := httpx.New(cfg.HTTP.Addr, client.Ready, gatherer)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP server started", "addr", cfg.HTTP.Addr)
		return srv.Run(ctx)
	})
	g.Go(func() error {
		return b.Run(ctx, 30)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("graceful shutdown complete")
}
