package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Port    string `koanf:"port"`
	DBDSN   string `koanf:"db_dsn"`
	LogFile string `koanf:"log_file"`
	// Seed inserts demo catalog data and users on startup (idempotent).
	Seed bool `koanf:"seed"`
}

func defaults() Config {
	return Config{
		Port:    "8080",
		DBDSN:   "tradeup.db", // sqlite file in project root
		LogFile: "./tradeup.log",
		Seed:    true,
	}
}

// Load layers defaults, an optional YAML file (TRADEUP_CONFIG) and
// env vars (TRADEUP_ prefix), lowest to highest precedence.
func Load() (Config, error) {
	cfg := defaults()

	k := koanf.New(".")
	if path := os.Getenv("TRADEUP_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, err
		}
	}

	// TRADEUP_PORT -> port, TRADEUP_DB_DSN -> db_dsn, ...
	envProvider := env.Provider("TRADEUP_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "tradeup_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, err
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, err
	}

	if cfg.Port == "" {
		return Config{}, errors.New("port must not be empty")
	}
	if cfg.DBDSN == "" {
		return Config{}, errors.New("db_dsn must not be empty")
	}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s SEED=%v", cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.Seed)
	return cfg, nil
}
