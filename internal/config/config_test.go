package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/banky/hl-agent/constants"
	"github.com/banky/hl-agent/normalize"
	"github.com/maxatome/go-testdeep/td"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zapcore"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))
	td.CmpNoError(t, err)

	td.Cmp(t, cfg, Default())
	td.Cmp(t, cfg.BaseURL, constants.MAINNET_API_URL)
	td.CmpTrue(t, cfg.IsMainnet())
	td.CmpTrue(t, cfg.DefaultSlippage.Equal(decimal.RequireFromString("0.01")))
	td.Cmp(t, cfg.CloseMode, normalize.PriceSlippage)
}

func TestOverrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"HL_BASE_URL":               constants.TESTNET_API_URL + "/",
		"HL_LISTEN_ADDR":            "127.0.0.1:9000",
		"HL_TIMEOUT_SECONDS":        "0",
		"HL_DEFAULT_SLIPPAGE":       "0.025",
		"HL_CLOSE_MODE":             "zero",
		"HL_META_CACHE_TTL_SECONDS": "30",
		"HL_USE_WS_MIDS":            "true",
		"HL_CORS_ORIGINS":           "https://a.example, https://b.example,",
		"HL_LOG_LEVEL":              "debug",
		"HL_DEX":                    "xyz",
	}))
	td.CmpNoError(t, err)

	td.Cmp(t, cfg.BaseURL, constants.TESTNET_API_URL)
	td.CmpFalse(t, cfg.IsMainnet())
	td.Cmp(t, cfg.ListenAddr, "127.0.0.1:9000")
	td.Cmp(t, cfg.Timeout, uint(0))
	td.Cmp(t, cfg.DefaultSlippage.String(), "0.025")
	td.Cmp(t, cfg.CloseMode, normalize.PriceZero)
	td.Cmp(t, cfg.MetaCacheTTL, 30*time.Second)
	td.CmpTrue(t, cfg.UseWSMids)
	td.Cmp(t, cfg.CORSOrigins, []string{"https://a.example", "https://b.example"})
	td.Cmp(t, cfg.LogLevel, zapcore.DebugLevel)
	td.Cmp(t, cfg.Dex, "xyz")
}

func TestBlankValuesKeepDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"HL_BASE_URL":   "  ",
		"HL_CLOSE_MODE": "",
	}))
	td.CmpNoError(t, err)
	td.Cmp(t, cfg, Default())
}

func TestMalformedValues(t *testing.T) {
	tests := map[string]string{
		"HL_TIMEOUT_SECONDS":        "ten",
		"HL_DEFAULT_SLIPPAGE":       "1.5",
		"HL_CLOSE_MODE":             "market",
		"HL_META_CACHE_TTL_SECONDS": "-1",
		"HL_USE_WS_MIDS":            "maybe",
		"HL_LOG_LEVEL":              "loud",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := FromLookup(lookupFrom(map[string]string{key: value}))
			if !td.CmpError(t, err) {
				return
			}
			td.Cmp(t, err.Error(), td.HasPrefix(key+":"))
		})
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "HL_LISTEN_ADDR=:7070\nHL_CLOSE_MODE=zero\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	// the process environment wins over the file
	t.Setenv("HL_CLOSE_MODE", "slippage")
	t.Setenv("HL_LISTEN_ADDR", "")

	cfg, err := Load(path)
	td.CmpNoError(t, err)
	td.Cmp(t, cfg.CloseMode, normalize.PriceSlippage)

	// godotenv does not override variables that are already set, even
	// when empty, so the default applies
	td.Cmp(t, cfg.ListenAddr, ":8080")
}
