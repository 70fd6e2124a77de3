// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultDBPath is used when STOREBOT_DB_PATH is unset.
const DefaultDBPath = "storebot.db"

// Seed lists used only while the catalog is empty. Once products exist,
// category and brand sets are derived from the store.
var (
	SeedCategories = []string{"Electronics", "Clothing", "Books", "Home"}
	SeedBrands     = []string{"Brand A", "Brand B", "Brand C", "Brand D"}
)

// Config holds everything the bot needs at startup.
type Config struct {
	BotToken        string
	AdminIDs        []int64
	BTCWallet       string
	SheetID         string
	CredentialsFile string
	DBPath          string
}

// FromEnv builds a Config from environment variables. Only the bot token is
// required; a missing sheet ID disables the ledger mirror.
func FromEnv() (*Config, error) {
	cfg := &Config{
		BotToken:        os.Getenv("STOREBOT_TOKEN"),
		BTCWallet:       os.Getenv("STOREBOT_BTC_WALLET"),
		SheetID:         os.Getenv("STOREBOT_SHEET_ID"),
		CredentialsFile: os.Getenv("STOREBOT_CREDENTIALS_FILE"),
		DBPath:          os.Getenv("STOREBOT_DB_PATH"),
	}
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("STOREBOT_TOKEN is required")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}
	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = "credentials.json"
	}

	ids, err := ParseAdminIDs(os.Getenv("STOREBOT_ADMIN_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.AdminIDs = ids
	return cfg, nil
}

// ParseAdminIDs parses a comma-separated list of numeric chat ids. Blank
// entries are skipped; anything non-numeric is an error.
func ParseAdminIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
