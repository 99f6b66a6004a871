package exchange

import (
	"context"
	"strings"

	"github.com/banky/hl-agent/action"
	"github.com/banky/hl-agent/asset"
	"github.com/banky/hl-agent/normalize"
	"github.com/banky/hl-agent/signing"
	"github.com/banky/hl-agent/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Kind is the order variant of an intent.
type Kind int

const (
	// MarketIOC is an immediate-or-cancel limit order priced off the mid.
	MarketIOC Kind = iota
	// TriggerMarket is a market order that rests until the trigger price.
	TriggerMarket
)

func (k Kind) String() string {
	if k == TriggerMarket {
		return "trigger"
	}
	return "market"
}

// ParseKind accepts "market", "ioc" and "trigger"; the empty string is
// MarketIOC.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "market", "ioc":
		return MarketIOC, nil
	case "trigger":
		return TriggerMarket, nil
	}
	return 0, types.Errorf(types.KindInputValidation, "unknown order kind %q", s)
}

// Intent is one order to place, in caller terms.
type Intent struct {
	Symbol string
	Class  asset.Class
	Kind   Kind
	IsBuy  bool
	// Amount is a quote notional when Notional is set, otherwise a base
	// quantity.
	Amount     decimal.Decimal
	Notional   bool
	ReduceOnly bool

	Slippage  mo.Option[decimal.Decimal]
	TickSize  mo.Option[decimal.Decimal]
	PriceMode mo.Option[normalize.PriceMode]

	// TriggerPx and TpSl are required for TriggerMarket.
	TriggerPx mo.Option[decimal.Decimal]
	TpSl      action.TpSl

	Cloid mo.Option[action.Cloid]
}

// Validate checks the intent before any request is made.
func (i Intent) Validate() error {
	if strings.TrimSpace(i.Symbol) == "" {
		return types.Errorf(types.KindInputValidation, "symbol is required")
	}
	if !i.Amount.IsPositive() {
		return types.Errorf(types.KindInputValidation, "order amount must be positive, got %s", i.Amount)
	}
	if s, ok := i.Slippage.Get(); ok && (s.IsNegative() || s.GreaterThanOrEqual(decimal.NewFromInt(1))) {
		return types.Errorf(types.KindInputValidation, "slippage %s outside [0, 1)", s)
	}
	if t, ok := i.TickSize.Get(); ok && !t.IsPositive() {
		return types.Errorf(types.KindInputValidation, "tick size must be positive, got %s", t)
	}

	switch i.Kind {
	case MarketIOC:
		if i.TriggerPx.IsPresent() {
			return types.Errorf(types.KindInputValidation, "trigger price given for a market order")
		}
	case TriggerMarket:
		px, ok := i.TriggerPx.Get()
		if !ok || !px.IsPositive() {
			return types.Errorf(types.KindInputValidation, "trigger order needs a positive trigger price")
		}
		if i.TpSl != action.TakeProfit && i.TpSl != action.StopLoss {
			return types.Errorf(types.KindInputValidation, "trigger order needs tpsl \"tp\" or \"sl\", got %q", i.TpSl)
		}
	default:
		return types.Errorf(types.KindInputValidation, "unknown order kind %d", i.Kind)
	}
	return nil
}

// PlaceOrder runs the full pipeline for intent and submits the signed
// action. The market lookup and the mid price fetch run concurrently.
func (e *Exchange) PlaceOrder(
	ctx context.Context,
	signer *signing.Signer,
	vault mo.Option[common.Address],
	intent Intent,
) (Result, error) {
	if signer == nil {
		return Result{}, types.Errorf(types.KindInputValidation, "signing key is required")
	}
	if err := intent.Validate(); err != nil {
		return Result{}, err
	}

	logger := e.logger.With(
		zap.String("symbol", intent.Symbol),
		zap.Stringer("class", intent.Class),
		zap.Stringer("kind", intent.Kind),
	)

	var (
		desc asset.Descriptor
		mids map[string]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		desc, err = e.resolver.Resolve(gctx, intent.Symbol, intent.Class)
		return err
	})
	g.Go(func() error {
		var err error
		mids, err = e.allMids(gctx, e.midsDex(intent.Class))
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	mid, err := midPrice(mids, desc)
	if err != nil {
		return Result{}, err
	}

	params := normalize.Params{
		Amount:     intent.Amount,
		Notional:   intent.Notional,
		RefPrice:   mid,
		SzDecimals: desc.SzDecimals,
		IsBuy:      intent.IsBuy,
		Slippage:   intent.Slippage.OrElse(e.slippage),
		TickSize:   intent.TickSize,
		Mode:       intent.PriceMode.OrElse(normalize.PriceSlippage),
		Spot:       desc.IsSpot(),
	}
	if intent.Kind == TriggerMarket {
		params.RefPrice = intent.TriggerPx.MustGet()
		params.SizePrice = mo.Some(mid)
	}

	norm, err := normalize.Normalize(params)
	if err != nil {
		return Result{}, err
	}

	orderType := action.LimitType(action.TifIoc)
	if intent.Kind == TriggerMarket {
		if norm.RefPx == "0" {
			return Result{}, types.Errorf(
				types.KindInputValidation,
				"trigger price %s rounds to zero at tick %s",
				params.RefPrice,
				norm.Tick,
			)
		}
		orderType = action.TriggerType(true, norm.RefPx, intent.TpSl)
	}
	if norm.TickHeuristic {
		logger.Warn("no tick size given, derived one from the price",
			zap.Stringer("tick", norm.Tick),
			zap.Stringer("ref_px", params.RefPrice),
		)
	}

	wire := action.OrderWire{
		Asset:      desc.ID,
		IsBuy:      intent.IsBuy,
		LimitPx:    norm.LimitPx,
		Size:       norm.Size,
		ReduceOnly: intent.ReduceOnly,
		OrderType:  orderType,
		Cloid:      intent.Cloid.ToPointer(),
	}

	env, err := e.SignAction(signer, vault, action.NewOrderAction(wire))
	if err != nil {
		return Result{}, err
	}

	logger.Info("submitting order",
		zap.Int64("asset", desc.ID),
		zap.Uint64("nonce", env.Nonce),
		zap.String("size", norm.Size),
		zap.String("limit_px", norm.LimitPx),
		zap.Bool("reduce_only", intent.ReduceOnly),
	)

	result, err := e.Submit(ctx, env)
	if err != nil {
		logger.Warn("order rejected", zap.Uint64("nonce", env.Nonce), zap.Error(err))
		return Result{}, err
	}
	result.TickHeuristic = norm.TickHeuristic
	return result, nil
}

// midsDex is the dex whose allMids carries the class's mid keys. Spot pairs
// are only quoted by the default dex.
func (e *Exchange) midsDex(class asset.Class) string {
	if class == asset.Spot {
		return ""
	}
	return e.dex
}

// allMids reads the configured price source. When a streaming source has no
// snapshot, or has lost its connection, the info endpoint answers instead.
func (e *Exchange) allMids(ctx context.Context, dex string) (map[string]string, error) {
	mids, err := e.prices.AllMids(ctx, dex)
	if err == nil {
		return mids, nil
	}
	if e.pricesOverridden && ctx.Err() == nil {
		e.logger.Warn("price source unavailable, falling back to info endpoint",
			zap.String("dex", dex),
			zap.Error(err),
		)
		mids, err = e.info.AllMids(ctx, dex)
	}
	if err != nil && types.KindOf(err) != types.KindPriceUnavailable {
		return nil, types.Errorf(types.KindPriceUnavailable, "fetch mid prices: %w", err)
	}
	return mids, err
}

// midPrice looks the descriptor's mid keys up in order.
func midPrice(mids map[string]string, desc asset.Descriptor) (decimal.Decimal, error) {
	for _, key := range desc.MidKeys {
		raw, ok := mids[key]
		if !ok {
			continue
		}
		px, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, types.Errorf(types.KindPriceUnavailable, "mid price %q for %s is not a number", raw, key)
		}
		if !px.IsPositive() {
			return decimal.Zero, types.Errorf(types.KindPriceUnavailable, "mid price for %s is %s", key, raw)
		}
		return px, nil
	}
	return decimal.Zero, types.Errorf(
		types.KindPriceUnavailable,
		"no mid price for %s (keys %s)",
		desc.Coin,
		strings.Join(desc.MidKeys, ", "),
	)
}
