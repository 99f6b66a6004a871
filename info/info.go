// Package info wraps the venue's read-only /info endpoint: asset universes,
// mid prices and account state.
package info

import (
	"context"
	"fmt"

	"github.com/banky/hl-agent/constants"
	"github.com/banky/hl-agent/rest"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// MetadataSource returns the perpetual and spot universes.
type MetadataSource interface {
	Meta(ctx context.Context, dex string) (*Meta, error)
	SpotMeta(ctx context.Context) (*SpotMeta, error)
}

// PriceSource returns current mid prices keyed by coin name, or by "@index"
// for spot pairs.
type PriceSource interface {
	AllMids(ctx context.Context, dex string) (map[string]string, error)
}

// Info provides access to market data and user account information via the
// REST API
type Info struct {
	rest rest.ClientInterface
}

var (
	_ MetadataSource = (*Info)(nil)
	_ PriceSource    = (*Info)(nil)
)

// Config for initializing the Info client
type Config struct {
	BaseURL string
	Timeout uint
}

// New creates a new Info client
func New(cfg Config) *Info {
	return NewWithClient(rest.New(rest.Config{
		BaseUrl: cfg.BaseURL,
		Timeout: cfg.Timeout,
	}))
}

// NewWithClient creates an Info client on top of an existing transport.
func NewWithClient(client rest.ClientInterface) *Info {
	return &Info{rest: client}
}

func (i *Info) post(ctx context.Context, body map[string]any, result any) error {
	if err := i.rest.Post(ctx, constants.INFO_PATH, body, result); err != nil {
		return fmt.Errorf("info %v: %w", body["type"], err)
	}
	return nil
}

// ===== Market Data Queries =====

// AllMids retrieves mid-prices for all coins, with fallback to last trade
// price if book is empty.
func (i *Info) AllMids(ctx context.Context, dex string) (map[string]string, error) {
	var result map[string]string
	err := i.post(ctx, map[string]any{
		"type": "allMids",
		"dex":  dex,
	}, &result)

	return result, err
}

// Meta retrieves exchange metadata for perpetuals.
func (i *Info) Meta(ctx context.Context, dex string) (*Meta, error) {
	var result Meta
	err := i.post(ctx, map[string]any{
		"type": "meta",
		"dex":  dex,
	}, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// SpotMeta retrieves exchange metadata for spot trading.
func (i *Info) SpotMeta(ctx context.Context) (*SpotMeta, error) {
	var result SpotMeta
	err := i.post(ctx, map[string]any{
		"type": "spotMeta",
	}, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ===== User Account Queries =====

// UserState retrieves perpetual margin and position data.
func (i *Info) UserState(
	ctx context.Context,
	address common.Address,
	dex string,
) (*UserState, error) {
	var result UserState
	err := i.post(ctx, map[string]any{
		"type": "clearinghouseState",
		"user": address.Hex(),
		"dex":  dex,
	}, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// SpotUserState retrieves spot token balances.
func (i *Info) SpotUserState(
	ctx context.Context,
	address common.Address,
) (*SpotUserState, error) {
	var result SpotUserState
	err := i.post(ctx, map[string]any{
		"type": "spotClearinghouseState",
		"user": address.Hex(),
	}, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Balances fetches perpetual margin and spot balances for address
// concurrently.
func (i *Info) Balances(ctx context.Context, address common.Address) (*Balances, error) {
	var (
		perp *UserState
		spot *SpotUserState
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		perp, err = i.UserState(gctx, address, "")
		return err
	})
	g.Go(func() error {
		var err error
		spot, err = i.SpotUserState(gctx, address)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Balances{
		Address:      address,
		Withdrawable: perp.Withdrawable,
		Margin:       perp.MarginSummary,
		Positions:    perp.AssetPositions,
		Spot:         spot.Balances,
	}, nil
}

// PositionSize returns the signed size of the perpetual position in coin, or
// false when there is none.
func (s *UserState) PositionSize(coin string) (string, bool) {
	for _, p := range s.AssetPositions {
		if p.Position.Coin == coin {
			return p.Position.Szi, true
		}
	}
	return "", false
}
