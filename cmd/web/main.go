package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"adwarden/activedirectory"
	"adwarden/config"
	"adwarden/history"
	"adwarden/mailer"
	"adwarden/web"
)

func main() {
	configPath := flag.String("config", "settings.env", "Path to env configuration file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.LoadEnvConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	adInstance := activedirectory.NewActiveDirectoryInstance(cfg.BaseDN, cfg.DcFQDN, cfg.PageSize, cfg.SearchTimeout)
	if err := adInstance.Connect(cfg.Username, cfg.Password); err != nil {
		slog.Error("directory connection failed", "error", err)
		os.Exit(1)
	}
	defer adInstance.Close()

	pool, err := history.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := history.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	dispatcher := mailer.NewSMTPDispatcher(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)

	server := web.NewServer(adInstance, store, dispatcher, cfg)
	if err := server.Start(); err != nil {
		slog.Error("web server error", "error", err)
		os.Exit(1)
	}
}
