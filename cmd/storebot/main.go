package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dshills/storebot/internal/cart"
	"github.com/dshills/storebot/internal/catalog"
	"github.com/dshills/storebot/internal/config"
	"github.com/dshills/storebot/internal/ledger"
	"github.com/dshills/storebot/internal/notify"
	"github.com/dshills/storebot/internal/order"
	"github.com/dshills/storebot/internal/session"
	"github.com/dshills/storebot/internal/storage"
	"github.com/dshills/storebot/internal/telegram"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("Storebot\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	log.SetOutput(os.Stderr)
	logger := log.Default()
	logger.Printf("Storebot v%s starting...", version)
	logger.Printf("Build Mode: %s, Driver: %s", storage.BuildMode, storage.DriverName)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("Configuration error: %v", err)
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	// Spreadsheet mirror is optional; without it orders live only in
	// the primary store
	var mirror ledger.Ledger = ledger.Noop{}
	if cfg.SheetID != "" {
		sheets, err := ledger.NewSheets(context.Background(), cfg.SheetID, cfg.CredentialsFile)
		if err != nil {
			logger.Printf("Ledger mirror unavailable: %v", err)
		} else {
			mirror = sheets
			logger.Printf("Ledger mirror connected to sheet %s", cfg.SheetID)
		}
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatalf("Failed to authorize bot: %v", err)
	}

	channel := telegram.NewChannel(api)
	notifier := notify.NewNotifier(channel, logger)
	caster := notify.NewDispatcher(channel, logger)
	carts := cart.New(store)
	cat := catalog.New(store, config.SeedCategories, config.SeedBrands)
	orders := order.NewManager(store, mirror, notifier, carts, cfg.AdminIDs, cfg.BTCWallet, logger)
	eng := session.NewEngine(session.NewManager(), store, carts, cat, orders, caster, cfg.AdminIDs, logger)
	bot := telegram.NewBot(api, eng, carts, cat, orders, store, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Printf("Bot ready, %d administrator(s) configured", len(cfg.AdminIDs))
		errChan <- bot.Run(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
		<-errChan
	case err := <-errChan:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatalf("Bot error: %v", err)
		}
	}

	logger.Println("Stopped")
}
