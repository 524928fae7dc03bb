package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIListenAddr != ":8080" {
		t.Errorf("api addr = %q", cfg.APIListenAddr)
	}
	if cfg.WSListenAddr != ":8888" {
		t.Errorf("ws addr = %q", cfg.WSListenAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.MaxMessageSize != 65536 {
		t.Errorf("max message size = %d", cfg.MaxMessageSize)
	}
	if cfg.PingInterval != 5*time.Second {
		t.Errorf("ping interval = %s", cfg.PingInterval)
	}
	if cfg.SendBuffer != 64 {
		t.Errorf("send buffer = %d", cfg.SendBuffer)
	}
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load([]string{"-a", ":9090", "--ws-listen-addr", ":9999", "-l", "info"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIListenAddr != ":9090" {
		t.Errorf("api addr = %q", cfg.APIListenAddr)
	}
	if cfg.WSListenAddr != ":9999" {
		t.Errorf("ws addr = %q", cfg.WSListenAddr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "ws_listen_addr: \":7777\"\nping_interval: 10s\nsend_buffer: 128\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WSListenAddr != ":7777" {
		t.Errorf("ws addr = %q", cfg.WSListenAddr)
	}
	if cfg.PingInterval != 10*time.Second {
		t.Errorf("ping interval = %s", cfg.PingInterval)
	}
	if cfg.SendBuffer != 128 {
		t.Errorf("send buffer = %d", cfg.SendBuffer)
	}
	// Untouched flags keep their defaults.
	if cfg.APIListenAddr != ":8080" {
		t.Errorf("api addr = %q", cfg.APIListenAddr)
	}
}

func TestLoad_BadArgs(t *testing.T) {
	if _, err := Load([]string{"--no-such-flag"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load([]string{"--config", "/nonexistent/config.yaml"}); err == nil {
		t.Error("expected error for missing config file")
	}
}
