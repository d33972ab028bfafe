package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/zinin/hh-job-bot/internal/backend"
	"github.com/zinin/hh-job-bot/internal/bot"
	"github.com/zinin/hh-job-bot/internal/catalog"
	"github.com/zinin/hh-job-bot/internal/config"
	"github.com/zinin/hh-job-bot/internal/dispatch"
	"github.com/zinin/hh-job-bot/internal/handler"
	"github.com/zinin/hh-job-bot/internal/logging"
	"github.com/zinin/hh-job-bot/internal/notify"
	"github.com/zinin/hh-job-bot/internal/session"
	"github.com/zinin/hh-job-bot/internal/telegram"
	"github.com/zinin/hh-job-bot/internal/wizard"
)

var (
	Version     = "dev"
	VersionFull = "dev"
	Commit      = "unknown"
	BuildDate   = "unknown"
)

func versionString() string {
	return fmt.Sprintf("%s (%s, %s)", VersionFull, Commit, BuildDate)
}

func main() {
	configPath := flag.String("config", "telegram-bot.json", "Path to JSON config (empty: environment only)")
	envPath := flag.String("env", ".env", "Path to .env file")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println(versionString())
		return
	}

	if err := config.LoadEnvFile(*envPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *envPath, err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		// Environment-only deployments ship no JSON file
		cfg, err = config.Load("")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	slogger, logger, err := logging.NewSlogLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	slog.SetDefault(slogger)
	logger.SetLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if logger.StartRotation(ctx, cfg.LogMaxSize, time.Minute) {
		slog.Debug("Log rotation enabled", "path", logger.Path(), "max_size", cfg.LogMaxSize)
	}

	store, err := session.Open(ctx, session.Options{
		Driver:        cfg.Session.Driver,
		SQLitePath:    cfg.Session.SQLitePath,
		RedisAddr:     cfg.Session.RedisAddr,
		RedisPassword: cfg.Session.RedisPassword,
		RedisDB:       cfg.Session.RedisDB,
		RedisPrefix:   cfg.Session.RedisPrefix,
	})
	if err != nil {
		slog.Error("Failed to open session store", "driver", cfg.Session.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Session store ready", "driver", cfg.Session.Driver)

	api, err := bot.Connect(cfg.BotToken, cfg.ProxyURL)
	if err != nil {
		slog.Error("Failed to connect to Telegram", "error", err)
		os.Exit(1)
	}
	slog.Info("Authorized", "username", api.Self.UserName)

	sender := telegram.NewSender(api)
	options := catalog.New(cfg.CatalogURL)
	backendClient := backend.New(cfg.BackendURL)

	dispatcher := dispatch.New(backendClient, sender,
		dispatch.WithLimit(cfg.Results.Limit),
		dispatch.WithDelay(cfg.ResultsDelay()),
		dispatch.WithLocale(cfg.Language()),
	)
	engine := wizard.NewEngine(store, sender, dispatcher, wizard.DefaultSteps(options, backendClient))

	misc := handler.NewMiscHandler(&handler.Deps{
		Sender:      sender,
		AuthURL:     backendClient.AuthURL,
		Version:     Version,
		VersionFull: VersionFull,
		Commit:      Commit,
		BuildDate:   BuildDate,
	})

	b := bot.New(api, sender, misc, engine, bot.WithAllowedUsers(cfg.AllowedUsers))
	if err := b.RegisterCommands(); err != nil {
		slog.Warn("Failed to register commands", "error", err)
	}

	var wg sync.WaitGroup
	if cfg.Notify.ListenAddr != "" {
		srv := notify.NewServer(cfg.Notify.ListenAddr, notify.NewHandler(sender, cfg.Notify.Token))
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				slog.Error("Notify server failed", "error", err)
				stop()
			}
		}()
	}

	slog.Info("Telegram Bot started", "version", versionString())
	b.Run(ctx)
	stop()
	wg.Wait()
	slog.Info("Bot stopped")
}
