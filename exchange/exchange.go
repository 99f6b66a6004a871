// Package exchange runs the agent-key order pipeline: resolve the market,
// normalize size and price, encode, hash, sign, and submit the signed
// envelope to the venue.
package exchange

import (
	"context"
	"time"

	"github.com/banky/hl-agent/asset"
	"github.com/banky/hl-agent/constants"
	"github.com/banky/hl-agent/info"
	"github.com/banky/hl-agent/normalize"
	"github.com/banky/hl-agent/rest"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccountSource reads perpetual account state. ClosePosition uses it to size
// a close.
type AccountSource interface {
	UserState(ctx context.Context, address common.Address, dex string) (*info.UserState, error)
}

// Config for initializing the Exchange client
type Config struct {
	// BaseURL is the venue API root. Defaults to mainnet.
	BaseURL string
	// Timeout is the per-request timeout in seconds. Zero means none.
	Timeout uint
	Logger  *zap.Logger

	// Meta overrides the metadata source. By default the info endpoint is
	// used, cached for MetaCacheTTL.
	Meta         info.MetadataSource
	MetaCacheTTL time.Duration
	// Prices overrides the mid price source, e.g. with a ws.MidsFeed. When it
	// fails the info endpoint is asked instead.
	Prices info.PriceSource
	// Accounts overrides the account state source.
	Accounts AccountSource

	SpotAliases map[string]string
	Dex         string

	// DefaultSlippage applies when an intent has none. Defaults to 1%.
	DefaultSlippage mo.Option[decimal.Decimal]
	// CloseMode is the price mode of reduce-only closes.
	CloseMode normalize.PriceMode
	// AccountAddress owns positions when no vault is given. Defaults to the
	// signer address.
	AccountAddress common.Address

	// Clock feeds the nonce source. Defaults to time.Now.
	Clock func() time.Time
}

// Exchange submits signed order actions. It holds no per-request state and
// is safe for concurrent use.
type Exchange struct {
	rest     rest.ClientInterface
	info     *info.Info
	meta     info.MetadataSource
	prices   info.PriceSource
	accounts AccountSource
	resolver *asset.Resolver
	// pricesOverridden is set when prices is not the info endpoint, which
	// then backs it up.
	pricesOverridden bool

	dex            string
	slippage       decimal.Decimal
	closeMode      normalize.PriceMode
	accountAddress mo.Option[common.Address]
	nonces         *NonceSource
	logger         *zap.Logger
}

// New creates a new Exchange client
func New(cfg Config) *Exchange {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return NewWithClient(rest.New(rest.Config{
		BaseUrl: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Logger:  logger,
	}), cfg)
}

// NewWithClient builds an Exchange on an existing transport. cfg.BaseURL and
// cfg.Timeout are ignored.
func NewWithClient(client rest.ClientInterface, cfg Config) *Exchange {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	infoClient := info.NewWithClient(client)

	var meta info.MetadataSource = info.NewCache(infoClient, cfg.MetaCacheTTL)
	if cfg.Meta != nil {
		meta = cfg.Meta
	}
	var prices info.PriceSource = infoClient
	if cfg.Prices != nil {
		prices = cfg.Prices
	}
	var accounts AccountSource = infoClient
	if cfg.Accounts != nil {
		accounts = cfg.Accounts
	}

	opts := []asset.Option{asset.WithDex(cfg.Dex)}
	if cfg.SpotAliases != nil {
		opts = append(opts, asset.WithSpotAliases(cfg.SpotAliases))
	}

	var accountAddress mo.Option[common.Address]
	if cfg.AccountAddress != constants.ZERO_ADDRESS {
		accountAddress = mo.Some(cfg.AccountAddress)
	}

	return &Exchange{
		rest:             client,
		info:             infoClient,
		meta:             meta,
		prices:           prices,
		accounts:         accounts,
		resolver:         asset.NewResolver(meta, opts...),
		pricesOverridden: cfg.Prices != nil,
		dex:              cfg.Dex,
		slippage:         cfg.DefaultSlippage.OrElse(normalize.DefaultSlippage),
		closeMode:        cfg.CloseMode,
		accountAddress:   accountAddress,
		nonces:           NewNonceSource(cfg.Clock),
		logger:           logger,
	}
}

// IsMainnet reports whether orders go to mainnet. Signers must be created
// for the same network.
func (e *Exchange) IsMainnet() bool {
	return e.rest.IsMainnet()
}

// Info is the read-only client sharing this exchange's transport.
func (e *Exchange) Info() *info.Info {
	return e.info
}
