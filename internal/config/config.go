// Package config loads the agent daemon configuration from a .env file and
// the process environment. Environment variables win over the .env file,
// which wins over the defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/banky/hl-agent/constants"
	"github.com/banky/hl-agent/normalize"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zapcore"
)

const (
	envBaseURL      = "HL_BASE_URL"
	envListenAddr   = "HL_LISTEN_ADDR"
	envTimeout      = "HL_TIMEOUT_SECONDS"
	envSlippage     = "HL_DEFAULT_SLIPPAGE"
	envCloseMode    = "HL_CLOSE_MODE"
	envMetaCacheTTL = "HL_META_CACHE_TTL_SECONDS"
	envUseWSMids    = "HL_USE_WS_MIDS"
	envCORSOrigins  = "HL_CORS_ORIGINS"
	envLogLevel     = "HL_LOG_LEVEL"
	envDex          = "HL_DEX"
)

type Config struct {
	// BaseURL is the venue API root. Mainnet unless overridden.
	BaseURL    string
	ListenAddr string
	// Timeout is the per-request venue timeout in seconds. Zero means none.
	Timeout         uint
	DefaultSlippage decimal.Decimal
	CloseMode       normalize.PriceMode
	MetaCacheTTL    time.Duration
	// UseWSMids prices orders from an allMids websocket subscription instead
	// of one info request per order.
	UseWSMids   bool
	CORSOrigins []string
	LogLevel    zapcore.Level
	Dex         string
}

func Default() Config {
	return Config{
		BaseURL:         constants.MAINNET_API_URL,
		ListenAddr:      ":8080",
		Timeout:         10,
		DefaultSlippage: normalize.DefaultSlippage,
		CloseMode:       normalize.PriceSlippage,
		MetaCacheTTL:    time.Minute,
		CORSOrigins:     []string{"*"},
		LogLevel:        zapcore.InfoLevel,
	}
}

// Load reads envPath (the .env of the working directory when empty) if it
// exists, then applies the environment on top of Default.
func Load(envPath string) (Config, error) {
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup. Malformed values are errors rather
// than silently falling back to defaults.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(envBaseURL); ok {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := get(envListenAddr); ok {
		cfg.ListenAddr = v
	}
	if v, ok := get(envDex); ok {
		cfg.Dex = v
	}

	if v, ok := get(envTimeout); ok {
		secs, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", envTimeout, err)
		}
		cfg.Timeout = uint(secs)
	}

	if v, ok := get(envSlippage); ok {
		s, err := decimal.NewFromString(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", envSlippage, err)
		}
		if s.IsNegative() || s.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return Config{}, fmt.Errorf("%s: %s outside [0, 1)", envSlippage, s)
		}
		cfg.DefaultSlippage = s
	}

	if v, ok := get(envCloseMode); ok {
		mode, err := normalize.ParsePriceMode(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", envCloseMode, err)
		}
		cfg.CloseMode = mode
	}

	if v, ok := get(envMetaCacheTTL); ok {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 0 {
			return Config{}, fmt.Errorf("%s: invalid seconds %q", envMetaCacheTTL, v)
		}
		cfg.MetaCacheTTL = time.Duration(secs) * time.Second
	}

	if v, ok := get(envUseWSMids); ok {
		use, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", envUseWSMids, err)
		}
		cfg.UseWSMids = use
	}

	if v, ok := get(envCORSOrigins); ok {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}

	if v, ok := get(envLogLevel); ok {
		level, err := zapcore.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", envLogLevel, err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

// IsMainnet reports whether BaseURL is the mainnet API.
func (c Config) IsMainnet() bool {
	return c.BaseURL == constants.MAINNET_API_URL
}
