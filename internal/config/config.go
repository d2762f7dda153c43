// Package config loads settings from a YAML file, CHAINQUIZ_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "CHAINQUIZ_"

// Config is the full runtime configuration.
type Config struct {
	Listen   string `koanf:"listen" validate:"required"`
	DB       string `koanf:"db" validate:"required"`
	ReposDir string `koanf:"repos_dir" validate:"required"`
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	Chain  Chain  `koanf:"chain"`
	Wallet Wallet `koanf:"wallet"`
	Views  Views  `koanf:"views"`

	// One-shot actions; the server does not start when either is set.
	AddSource string `koanf:"add_source"`
	Sync      bool   `koanf:"sync"`
}

// Chain locates the node and the two contracts.
type Chain struct {
	RPCURL          string `koanf:"rpc_url" validate:"required,url"`
	ChainID         int64  `koanf:"chain_id" validate:"gte=0"` // 0 asks the node
	QuizContract    string `koanf:"quiz_contract" validate:"required,eth_addr"`
	ArticleContract string `koanf:"article_contract" validate:"required,eth_addr"`
}

// Wallet holds the signing key. Empty runs the app read-only.
type Wallet struct {
	PrivateKey string `koanf:"private_key" validate:"omitempty,hexadecimal"`
}

// Views controls per-page session lifetime.
type Views struct {
	IdleTimeout time.Duration `koanf:"idle_timeout" validate:"min=1s"`
}

// Level returns the slog level for LogLevel.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load parses args (without the program name) and builds the configuration.
// It returns pflag.ErrHelp when --help was requested.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("chainquiz", pflag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a YAML config file")
	fs.String("listen", ":8080", "HTTP listen address")
	fs.String("db", "chainquiz.db", "Path to the SQLite database file")
	fs.String("repos_dir", "repos", "Directory for cloned git sources")
	fs.String("log_level", "info", "Log level: debug, info, warn or error")
	fs.String("chain.rpc_url", "http://127.0.0.1:8545", "Ethereum JSON-RPC endpoint")
	fs.Int64("chain.chain_id", 0, "Chain ID; 0 asks the node")
	fs.String("chain.quiz_contract", "", "Quiz contract address")
	fs.String("chain.article_contract", "", "Article contract address")
	fs.String("wallet.private_key", "", "Hex private key of the signing account")
	fs.Duration("views.idle_timeout", 10*time.Minute, "Drop page sessions idle this long")
	fs.String("add_source", "", "Add a new source (local path or git URL) and exit")
	fs.Bool("sync", false, "Import all sources and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if *configPath != "" {
		if err := k.Load(file.Provider(*configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", *configPath, err)
		}
	}

	// CHAINQUIZ_CHAIN__RPC_URL -> chain.rpc_url
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Flag defaults only fill keys that no earlier layer set.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.AddSource != "" {
		// Adding a source touches only the database.
		return validator.New().StructPartial(cfg, "Listen", "DB", "ReposDir", "LogLevel")
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("koanf")
	})
	err := v.Struct(cfg)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, len(verrs))
		for i, fe := range verrs {
			fields[i] = fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
	}
	return err
}
