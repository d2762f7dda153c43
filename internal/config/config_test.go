package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

const (
	quizAddr    = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	articleAddr = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
)

func requiredFlags() []string {
	return []string{"--chain.quiz_contract", quizAddr, "--chain.article_contract", articleAddr}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(requiredFlags())
	if err != nil {
		t.Fatalf("Load() returned an unexpected error: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("Expected default listen ':8080', but got '%s'", cfg.Listen)
	}
	if cfg.Chain.RPCURL != "http://127.0.0.1:8545" {
		t.Errorf("Expected default RPC URL, but got '%s'", cfg.Chain.RPCURL)
	}
	if cfg.Views.IdleTimeout != 10*time.Minute {
		t.Errorf("Expected idle timeout 10m, but got %s", cfg.Views.IdleTimeout)
	}
	if cfg.Chain.QuizContract != quizAddr {
		t.Errorf("Expected quiz contract %s, but got %s", quizAddr, cfg.Chain.QuizContract)
	}
	if cfg.Level() != slog.LevelInfo {
		t.Errorf("Expected info level, but got %s", cfg.Level())
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chainquiz.yaml")
	yaml := `
listen: ":9000"
log_level: debug
chain:
  rpc_url: "http://node:8545"
  chain_id: 31337
  quiz_contract: "` + quizAddr + `"
  article_contract: "` + articleAddr + `"
views:
  idle_timeout: 30s
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHAINQUIZ_CHAIN__RPC_URL", "http://env-node:8545")
	t.Setenv("CHAINQUIZ_DB", "env.db")

	cfg, err := Load([]string{"--config", path, "--db", "flag.db"})
	if err != nil {
		t.Fatalf("Load() returned an unexpected error: %v", err)
	}

	testCases := []struct {
		name string
		got  string
		want string
	}{
		{name: "file over default", got: cfg.Listen, want: ":9000"},
		{name: "env over file", got: cfg.Chain.RPCURL, want: "http://env-node:8545"},
		{name: "flag over env", got: cfg.DB, want: "flag.db"},
		{name: "default when unset", got: cfg.ReposDir, want: "repos"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("Expected '%s', but got '%s'", tc.want, tc.got)
			}
		})
	}

	if cfg.Chain.ChainID != 31337 {
		t.Errorf("Expected chain id 31337, but got %d", cfg.Chain.ChainID)
	}
	if cfg.Views.IdleTimeout != 30*time.Second {
		t.Errorf("Expected idle timeout 30s, but got %s", cfg.Views.IdleTimeout)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Expected debug level, but got %s", cfg.Level())
	}
}

func TestLoadValidation(t *testing.T) {
	testCases := []struct {
		name  string
		args  []string
		field string
	}{
		{name: "missing contracts", args: nil, field: "quiz_contract"},
		{name: "bad address", args: []string{"--chain.quiz_contract", "0x1234", "--chain.article_contract", articleAddr}, field: "quiz_contract"},
		{name: "bad log level", args: append(requiredFlags(), "--log_level", "loud"), field: "log_level"},
		{name: "bad key", args: append(requiredFlags(), "--wallet.private_key", "not-hex"), field: "private_key"},
		{name: "zero idle timeout", args: append(requiredFlags(), "--views.idle_timeout", "0s"), field: "idle_timeout"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.args)
			if err == nil {
				t.Fatal("Expected a validation error, but got nil")
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("Expected error to mention %s, but got %v", tc.field, err)
			}
		})
	}
}

func TestLoadAddSourceSkipsChainSettings(t *testing.T) {
	cfg, err := Load([]string{"--add_source", "./content"})
	if err != nil {
		t.Fatalf("Load() returned an unexpected error: %v", err)
	}
	if cfg.AddSource != "./content" {
		t.Errorf("Expected add_source './content', but got '%s'", cfg.AddSource)
	}
}

func TestLoadHelp(t *testing.T) {
	_, err := Load([]string{"--help"})
	if !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("Expected pflag.ErrHelp, but got %v", err)
	}
}
