package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Storage != StorageSurrealDB {
		t.Errorf("Storage = %q, want %q", cfg.Storage, StorageSurrealDB)
	}
	if cfg.SurrealDBNamespace != "brandtalk" {
		t.Errorf("SurrealDBNamespace = %q, want brandtalk", cfg.SurrealDBNamespace)
	}
	if cfg.LLMProvider != ProviderOllama {
		t.Errorf("LLMProvider = %q, want %q", cfg.LLMProvider, ProviderOllama)
	}
	if cfg.HistoryLimit != 10 {
		t.Errorf("HistoryLimit = %d, want 10", cfg.HistoryLimit)
	}
	if cfg.CompletionTimeout != 30*time.Second {
		t.Errorf("CompletionTimeout = %v, want 30s", cfg.CompletionTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BRANDTALK_STORAGE", "memory")
	t.Setenv("BRANDTALK_LLM_PROVIDER", "anthropic")
	t.Setenv("BRANDTALK_HISTORY_LIMIT", "25")
	t.Setenv("BRANDTALK_COMPLETION_TIMEOUT", "90s")
	t.Setenv("BRANDTALK_LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.Storage != StorageMemory {
		t.Errorf("Storage = %q, want memory", cfg.Storage)
	}
	if cfg.LLMProvider != ProviderAnthropic {
		t.Errorf("LLMProvider = %q, want anthropic", cfg.LLMProvider)
	}
	if cfg.HistoryLimit != 25 {
		t.Errorf("HistoryLimit = %d, want 25", cfg.HistoryLimit)
	}
	if cfg.CompletionTimeout != 90*time.Second {
		t.Errorf("CompletionTimeout = %v, want 90s", cfg.CompletionTimeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("BRANDTALK_HISTORY_LIMIT", "not-a-number")
	t.Setenv("BRANDTALK_COMPLETION_TIMEOUT", "-5s")

	cfg := Load()
	if cfg.HistoryLimit != 10 {
		t.Errorf("HistoryLimit = %d, want fallback 10", cfg.HistoryLimit)
	}
	if cfg.CompletionTimeout != 30*time.Second {
		t.Errorf("CompletionTimeout = %v, want fallback 30s", cfg.CompletionTimeout)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
