package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/paynet/nexus-liquidity/internal/models"
)

type Config struct {
	Env              string
	HTTPPort         string
	ConfigPath       string
	Workers          int
	RateRPS          int
	DisplayCurrency  string
	RiskSeed         int64
	TxLogCap         int
	AuditDatabaseURL string
}

func Load() Config {
	cfg := Config{
		Env:              get("APP_ENV", "dev"),
		HTTPPort:         get("HTTP_PORT", "8080"),
		ConfigPath:       get("CONFIG_PATH", "config/network.json"),
		Workers:          getInt("LIQUIDITY_SERVICE_WORKERS", 10),
		RateRPS:          getInt("RATE_RPS", 100),
		DisplayCurrency:  get("DISPLAY_CURRENCY", "MYR"),
		RiskSeed:         int64(getInt("RISK_SEED", 42)),
		TxLogCap:         getInt("TXLOG_CAP", 0),
		AuditDatabaseURL: get("AUDIT_DATABASE_URL", ""),
	}
	return cfg
}

// LoadNetwork reads the bank list from the network configuration file.
// A missing or malformed file is reported to the caller, not fatal: the
// ledger then starts empty, which rejects every debit (safe) while still
// accepting credits.
func LoadNetwork(path string) ([]models.Bank, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network config: %w", err)
	}
	var nc struct {
		Banks []models.Bank `json:"banks"`
	}
	if err := json.Unmarshal(raw, &nc); err != nil {
		return nil, fmt.Errorf("parse network config: %w", err)
	}
	return nc.Banks, nil
}

func get(key, def string) string { v := os.Getenv(key); if v == "" { return def }; return v }

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
