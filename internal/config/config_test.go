package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DSP_API_URL", "DSP_API_KEY",
		"WAVESCOPE_PORT", "WAVESCOPE_DATA_DIR", "WAVESCOPE_BANDS_FILE",
		"WAVESCOPE_DEBOUNCE_MS", "WAVESCOPE_FFT_SIZE", "WAVESCOPE_POLL_SECONDS",
	} {
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.DSPAPIURL != "http://dsp:5000" {
		t.Errorf("DSPAPIURL = %q, want default", cfg.DSPAPIURL)
	}
	if cfg.DSPAPIKey != "" {
		t.Errorf("DSPAPIKey = %q, want empty default", cfg.DSPAPIKey)
	}
	if cfg.Port != 8090 {
		t.Errorf("Port = %d, want 8090", cfg.Port)
	}
	if cfg.DataDir != "./data" {
		t.Errorf("DataDir = %q, want ./data", cfg.DataDir)
	}
	if cfg.BandsFile != "./data/bands.json" {
		t.Errorf("BandsFile = %q, want ./data/bands.json", cfg.BandsFile)
	}
	if cfg.DebounceDelay != 800*time.Millisecond {
		t.Errorf("DebounceDelay = %v, want 800ms", cfg.DebounceDelay)
	}
	if cfg.FFTSize != 2048 {
		t.Errorf("FFTSize = %d, want 2048", cfg.FFTSize)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DSP_API_URL", "http://localhost:9000")
	t.Setenv("DSP_API_KEY", "test-key-123")
	t.Setenv("WAVESCOPE_PORT", "3000")
	t.Setenv("WAVESCOPE_DATA_DIR", "/tmp/wavescope")
	t.Setenv("WAVESCOPE_BANDS_FILE", "/tmp/wavescope/custom.json")
	t.Setenv("WAVESCOPE_DEBOUNCE_MS", "1000")
	t.Setenv("WAVESCOPE_FFT_SIZE", "1024")
	t.Setenv("WAVESCOPE_POLL_SECONDS", "5")

	cfg := Load()

	if cfg.DSPAPIURL != "http://localhost:9000" {
		t.Errorf("DSPAPIURL = %q, want env override", cfg.DSPAPIURL)
	}
	if cfg.DSPAPIKey != "test-key-123" {
		t.Errorf("DSPAPIKey = %q, want env override", cfg.DSPAPIKey)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.DataDir != "/tmp/wavescope" {
		t.Errorf("DataDir = %q, want env override", cfg.DataDir)
	}
	if cfg.BandsFile != "/tmp/wavescope/custom.json" {
		t.Errorf("BandsFile = %q, want env override", cfg.BandsFile)
	}
	if cfg.DebounceDelay != time.Second {
		t.Errorf("DebounceDelay = %v, want 1s", cfg.DebounceDelay)
	}
	if cfg.FFTSize != 1024 {
		t.Errorf("FFTSize = %d, want 1024", cfg.FFTSize)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.PollInterval)
	}
}

func TestEnvIntInvalidFallsBack(t *testing.T) {
	t.Setenv("WAVESCOPE_PORT", "not-a-number")
	cfg := Load()
	if cfg.Port != 8090 {
		t.Errorf("Invalid int env should fall back to default: got %d, want 8090", cfg.Port)
	}
}
