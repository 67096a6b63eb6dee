package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// DSP backend connection
	DSPAPIURL string
	DSPAPIKey string

	// Server
	Port int

	// Studio behavior
	DataDir       string        // where uploads and fetched stems are cached
	BandsFile     string        // persisted custom-band list (generic mode)
	DebounceDelay time.Duration // quiet period before gains are pushed to the backend
	FFTSize       int           // window for the visualization DFT
	PollInterval  time.Duration // separation progress poll cadence
}

// Load reads configuration from the environment with sane defaults.
// A .env file in the working directory is honored when present.
func Load() Config {
	godotenv.Load()

	return Config{
		DSPAPIURL: envStr("DSP_API_URL", "http://dsp:5000"),
		DSPAPIKey: envStr("DSP_API_KEY", ""),

		Port: envInt("WAVESCOPE_PORT", 8090),

		DataDir:       envStr("WAVESCOPE_DATA_DIR", "./data"),
		BandsFile:     envStr("WAVESCOPE_BANDS_FILE", "./data/bands.json"),
		DebounceDelay: time.Duration(envInt("WAVESCOPE_DEBOUNCE_MS", 800)) * time.Millisecond,
		FFTSize:       envInt("WAVESCOPE_FFT_SIZE", 2048),
		PollInterval:  time.Duration(envInt("WAVESCOPE_POLL_SECONDS", 2)) * time.Second,
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
