package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/joho/godotenv"

	"github.com/set-night/earnhub"
	"github.com/set-night/earnhub/internal/config"
	"github.com/set-night/earnhub/internal/partner"
	"github.com/set-night/earnhub/internal/repository"
	"github.com/set-night/earnhub/internal/server"
	"github.com/set-night/earnhub/internal/service"
	"github.com/set-night/earnhub/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	migrationsFS, err := fs.Sub(earnhub.MigrationsFS, "migrations")
	if err != nil {
		return err
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		return err
	}

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := repository.NewStore(pool)

	tgBot, err := bot.New(cfg.BotToken)
	if err != nil {
		return err
	}
	notifier := telegram.NewNotifier(tgBot, cfg)

	adapters := buildAdapters(cfg)

	accounts := service.NewAccountService(store)
	catalog := service.NewCatalogService(store, adapters)
	completions := service.NewCompletionService(store)
	withdrawals := service.NewWithdrawalService(store)
	promos := service.NewPromoService(store)

	if cfg.SyncOffersOnStart && len(adapters) > 0 {
		synced := catalog.SyncPartnerOffers(ctx)
		slog.Info("partner offers synced", "count", synced)
	}

	srv, err := server.New(server.Deps{
		Config:      cfg,
		Accounts:    accounts,
		Catalog:     catalog,
		Completions: completions,
		Withdrawals: withdrawals,
		Promos:      promos,
		Adapters:    adapters,
		Notifier:    notifier,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "port", cfg.Port)
		errCh <- srv.Listen(cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildAdapters(cfg *config.Config) []partner.Adapter {
	client := partner.NewHTTPClient(config.PartnerRequestTimeout)

	var adapters []partner.Adapter
	if cfg.AdGemEnabled {
		adapters = append(adapters, partner.NewAdGem(cfg.AdGemAppID, cfg.AdGemSecret, cfg.AdGemURL, client))
	}
	if cfg.CPALeadEnabled {
		adapters = append(adapters, partner.NewCPALead(cfg.CPALeadAppID, cfg.CPALeadSecret, cfg.CPALeadURL, client))
	}
	if cfg.AdGateEnabled {
		adapters = append(adapters, partner.NewAdGate(cfg.AdGateWallID, cfg.AdGateSecret, cfg.AdGateURL, client))
	}
	if cfg.UNUEnabled {
		adapters = append(adapters, partner.NewUNU(cfg.UNUAPIKey, cfg.UNUSecret, cfg.UNUURL, client))
	}
	return adapters
}
