package cfg

import (
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	// Test default version
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestLoadArgs_ExplicitFlags(t *testing.T) {
	cfg, err := LoadArgs([]string{
		"--port", "9090",
		"--proxy-path", "/img",
		"--proxy-allow", "cdn.example.com",
		"--proxy-allow", "img.example.org",
		"--sources-file", "./sources.yml",
		"--request-timeout", "5",
		"--concurrency", "3",
		"--stats-db", "/tmp/stats.db",
		"--user-agent", "Test Agent",
		"--timezone", "UTC",
		"--debug",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected configuration, got nil")
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", cfg.Port)
	}
	if cfg.ProxyPath != "/img" {
		t.Errorf("Expected proxy path '/img', got '%s'", cfg.ProxyPath)
	}
	if len(cfg.ProxyAllow) != 2 || cfg.ProxyAllow[1] != "img.example.org" {
		t.Errorf("Expected two allowed proxy hosts, got: %v", cfg.ProxyAllow)
	}
	if cfg.SourcesFile != "./sources.yml" {
		t.Errorf("Expected sources file './sources.yml', got '%s'", cfg.SourcesFile)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("Expected request timeout 5s, got %v", cfg.RequestTimeout)
	}
	if cfg.Concurrency != 3 {
		t.Errorf("Expected concurrency 3, got %d", cfg.Concurrency)
	}
	if cfg.StatsDB != "/tmp/stats.db" {
		t.Errorf("Expected stats db '/tmp/stats.db', got '%s'", cfg.StatsDB)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
	if cfg.Version == "" {
		t.Error("Expected version to be set")
	}
}

func TestLoadArgs_InvalidConcurrency(t *testing.T) {
	_, err := LoadArgs([]string{"--concurrency", "0", "--request-timeout", "10"})
	if err == nil {
		t.Error("Expected error for zero concurrency")
	}
}

func TestLoadArgs_InvalidTimeout(t *testing.T) {
	_, err := LoadArgs([]string{"--request-timeout", "-1", "--concurrency", "2"})
	if err == nil {
		t.Error("Expected error for negative request timeout")
	}
}

func TestLoadArgs_UnknownFlag(t *testing.T) {
	_, err := LoadArgs([]string{"--no-such-flag"})
	if err == nil {
		t.Error("Expected error for unknown flag")
	}
}
