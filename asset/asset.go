// Package asset resolves market symbols to the venue's numeric asset ids.
//
// Perpetuals are identified by their position in the perpetual universe.
// Spot pairs are identified by SPOT_ASSET_OFFSET plus their position in the
// spot universe, where the pair is the one joining the requested token with
// the quote token.
package asset

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/banky/hl-agent/constants"
	"github.com/banky/hl-agent/info"
	"github.com/banky/hl-agent/types"
)

// Class is the asset class of a market.
type Class int

const (
	Perpetual Class = iota
	Spot
)

func (c Class) String() string {
	switch c {
	case Perpetual:
		return "perpetual"
	case Spot:
		return "spot"
	default:
		return "unknown(" + strconv.Itoa(int(c)) + ")"
	}
}

// ParseClass accepts "perp", "perpetual", "spot" and the empty string, which
// means perpetual.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "perp", "perps", "perpetual":
		return Perpetual, nil
	case "spot":
		return Spot, nil
	}
	return 0, types.Errorf(types.KindInputValidation, "unknown asset class %q", s)
}

// DefaultSpotAliases maps perpetual symbols to the name of the spot token
// that tracks the same underlying.
var DefaultSpotAliases = map[string]string{
	"BTC": "UBTC",
	"ETH": "UETH",
	"SOL": "USOL",
}

// Descriptor is a resolved market.
type Descriptor struct {
	ID         int64
	SzDecimals int32
	Class      Class
	// Coin is the venue's name for the market: the perpetual name or the spot
	// pair name.
	Coin string
	// MidKeys are the keys to try, in order, in an allMids response.
	MidKeys []string
}

// IsSpot reports whether the id lives in the spot id space.
func (d Descriptor) IsSpot() bool {
	return d.Class == Spot
}

// Resolver looks symbols up in freshly fetched metadata.
type Resolver struct {
	meta    info.MetadataSource
	dex     string
	aliases map[string]string
}

type Option func(*Resolver)

// WithSpotAliases replaces the spot alias table.
func WithSpotAliases(aliases map[string]string) Option {
	return func(r *Resolver) {
		r.aliases = aliases
	}
}

// WithDex resolves perpetuals against a builder-deployed dex.
func WithDex(dex string) Option {
	return func(r *Resolver) {
		r.dex = dex
	}
}

func NewResolver(meta info.MetadataSource, opts ...Option) *Resolver {
	r := &Resolver{
		meta:    meta,
		aliases: DefaultSpotAliases,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps symbol to a descriptor in the given class. Metadata fetch
// failures are returned unchanged in the chain; missing symbols fail with
// types.ErrAssetNotFound.
func (r *Resolver) Resolve(
	ctx context.Context,
	symbol string,
	class Class,
) (Descriptor, error) {
	switch class {
	case Perpetual:
		meta, err := r.meta.Meta(ctx, r.dex)
		if err != nil {
			return Descriptor{}, fmt.Errorf("fetch perpetual universe: %w", err)
		}
		return ResolvePerp(meta, symbol)

	case Spot:
		spotMeta, err := r.meta.SpotMeta(ctx)
		if err != nil {
			return Descriptor{}, fmt.Errorf("fetch spot universe: %w", err)
		}
		return ResolveSpot(spotMeta, symbol, r.aliases)
	}

	return Descriptor{}, types.Errorf(types.KindInputValidation, "unknown asset class %s", class)
}

// ResolvePerp finds symbol in the perpetual universe.
func ResolvePerp(meta *info.Meta, symbol string) (Descriptor, error) {
	for i, a := range meta.Universe {
		if a.Name == symbol {
			return Descriptor{
				ID:         int64(i),
				SzDecimals: a.SzDecimals,
				Class:      Perpetual,
				Coin:       a.Name,
				MidKeys:    []string{a.Name},
			}, nil
		}
	}

	return Descriptor{}, types.Errorf(
		types.KindAssetNotFound,
		"perpetual %q not found in universe of %d assets",
		symbol,
		len(meta.Universe),
	)
}

// ResolveSpot finds the pair trading symbol against the quote token. The
// alias table is applied first; the raw symbol is tried when the alias has
// no token.
func ResolveSpot(
	meta *info.SpotMeta,
	symbol string,
	aliases map[string]string,
) (Descriptor, error) {
	names := []string{symbol}
	if alias, ok := aliases[symbol]; ok && alias != symbol {
		names = []string{alias, symbol}
	}

	var token *info.SpotTokenInfo
	for _, name := range names {
		if token = findToken(meta.Tokens, name); token != nil {
			break
		}
	}
	if token == nil {
		return Descriptor{}, types.Errorf(
			types.KindAssetNotFound,
			"spot token %q (requested %q) not found",
			names[0],
			symbol,
		)
	}

	for i, pair := range meta.Universe {
		if !joinsQuote(pair.Tokens, token.Index) {
			continue
		}

		keys := []string{"@" + strconv.Itoa(pair.Index)}
		if pair.Name != "" && pair.Name != keys[0] {
			keys = append(keys, pair.Name)
		}

		return Descriptor{
			ID:         int64(constants.SPOT_ASSET_OFFSET + i),
			SzDecimals: token.SzDecimals,
			Class:      Spot,
			Coin:       pair.Name,
			MidKeys:    keys,
		}, nil
	}

	return Descriptor{}, types.Errorf(
		types.KindAssetNotFound,
		"spot pair [%d,%d] for %q (token %q) not found",
		token.Index,
		constants.QUOTE_TOKEN_INDEX,
		symbol,
		token.Name,
	)
}

func findToken(tokens []info.SpotTokenInfo, name string) *info.SpotTokenInfo {
	for i := range tokens {
		if tokens[i].Name == name {
			return &tokens[i]
		}
	}
	return nil
}

func joinsQuote(tokens [2]int, base int) bool {
	quote := constants.QUOTE_TOKEN_INDEX
	return (tokens[0] == base && tokens[1] == quote) ||
		(tokens[0] == quote && tokens[1] == base)
}
