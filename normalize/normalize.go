// Package normalize turns an order amount and a reference price into the
// canonical size and limit price strings the venue accepts.
//
// Rounding contracts:
//   - size is truncated toward zero at the asset's size decimals
//   - buy limit prices are rounded up to the tick, sell limit prices down
package normalize

import (
	"strconv"
	"strings"

	"github.com/banky/hl-agent/constants"
	"github.com/banky/hl-agent/types"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"
)

// PriceMode selects how the limit price of an immediate-or-cancel order is
// derived.
type PriceMode int

const (
	// PriceSlippage offsets the reference price by the slippage tolerance.
	PriceSlippage PriceMode = iota
	// PriceZero sends a limit price of zero. Not every asset class fills at
	// zero, which is why it is opt-in.
	PriceZero
)

func (m PriceMode) String() string {
	if m == PriceZero {
		return "zero"
	}
	return "slippage"
}

// ParsePriceMode accepts "zero" and "slippage"; the empty string is
// PriceSlippage.
func ParsePriceMode(s string) (PriceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "slippage":
		return PriceSlippage, nil
	case "zero":
		return PriceZero, nil
	}
	return 0, types.Errorf(types.KindInputValidation, "unknown price mode %q", s)
}

var DefaultSlippage = decimal.RequireFromString(constants.DEFAULT_SLIPPAGE)

type Params struct {
	// Amount is a quote notional when Notional is set, otherwise a base
	// quantity.
	Amount   decimal.Decimal
	Notional bool
	// RefPrice is the price the slippage offset is applied to. It also
	// converts a notional into a size unless SizePrice is set.
	RefPrice decimal.Decimal
	// SizePrice overrides RefPrice for the notional conversion.
	SizePrice  mo.Option[decimal.Decimal]
	SzDecimals int32
	IsBuy      bool
	Slippage   decimal.Decimal
	// TickSize is authoritative when present. Without it a tick is derived
	// from the price and the result is flagged.
	TickSize mo.Option[decimal.Decimal]
	Mode     PriceMode
	Spot     bool
}

type Result struct {
	LimitPx string
	Size    string
	// RefPx is RefPrice on the same tick as LimitPx. Trigger orders send it
	// as the trigger price.
	RefPx         string
	Tick          decimal.Decimal
	TickHeuristic bool
}

// Normalize computes the wire size and limit price for p.
func Normalize(p Params) (Result, error) {
	if !p.RefPrice.IsPositive() {
		return Result{}, types.Errorf(
			types.KindPriceUnavailable,
			"reference price %s is not positive",
			p.RefPrice,
		)
	}
	if p.Amount.IsNegative() {
		return Result{}, types.Errorf(types.KindInputValidation, "negative order amount %s", p.Amount)
	}
	if p.SzDecimals < 0 {
		return Result{}, types.Errorf(types.KindInputValidation, "negative size decimals %d", p.SzDecimals)
	}

	var (
		size decimal.Decimal
		err  error
	)
	if p.Notional {
		sizePrice := p.SizePrice.OrElse(p.RefPrice)
		size, err = SizeFromNotional(p.Amount, sizePrice, p.SzDecimals)
	} else {
		size, err = SizeFromQuantity(p.Amount, p.SzDecimals)
	}
	if err != nil {
		return Result{}, err
	}

	if p.Mode == PriceZero {
		return Result{LimitPx: "0", Size: Wire(size), RefPx: Wire(p.RefPrice)}, nil
	}

	slipped, err := Slip(p.RefPrice, p.IsBuy, p.Slippage)
	if err != nil {
		return Result{}, err
	}

	// the fallback tick follows the slipped price, which may sit one
	// magnitude above the reference
	tick, authoritative := p.TickSize.Get()
	heuristic := !authoritative
	if heuristic {
		tick = HeuristicTick(slipped, p.SzDecimals, p.Spot)
	}
	if !tick.IsPositive() {
		return Result{}, types.Errorf(types.KindInputValidation, "tick size %s is not positive", tick)
	}

	px, err := RoundToTick(slipped, p.IsBuy, tick)
	if err != nil {
		return Result{}, err
	}

	return Result{
		LimitPx:       Wire(px),
		Size:          Wire(size),
		RefPx:         Wire(NearestTick(p.RefPrice, tick)),
		Tick:          tick,
		TickHeuristic: heuristic,
	}, nil
}

// SizeFromNotional divides notional by price and truncates the quotient at
// szDecimals fractional digits.
func SizeFromNotional(notional, price decimal.Decimal, szDecimals int32) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, types.Errorf(types.KindPriceUnavailable, "price %s is not positive", price)
	}

	// QuoRem truncates exactly at the requested precision.
	size, _ := notional.QuoRem(price, szDecimals)
	if !size.IsPositive() {
		return decimal.Zero, types.Errorf(
			types.KindZeroOrderSize,
			"notional %s at price %s is zero at %d size decimals",
			notional,
			price,
			szDecimals,
		)
	}
	return size, nil
}

// SizeFromQuantity truncates qty at szDecimals fractional digits.
func SizeFromQuantity(qty decimal.Decimal, szDecimals int32) (decimal.Decimal, error) {
	size := qty.Truncate(szDecimals)
	if !size.IsPositive() {
		return decimal.Zero, types.Errorf(
			types.KindZeroOrderSize,
			"quantity %s is zero at %d size decimals",
			qty,
			szDecimals,
		)
	}
	return size, nil
}

// LimitPrice applies slippage to ref and quantizes the result to tick,
// rounding up for buys and down for sells.
func LimitPrice(ref decimal.Decimal, isBuy bool, slippage, tick decimal.Decimal) (decimal.Decimal, error) {
	px, err := Slip(ref, isBuy, slippage)
	if err != nil {
		return decimal.Zero, err
	}
	return RoundToTick(px, isBuy, tick)
}

// Slip moves ref against the taker: up for buys, down for sells.
func Slip(ref decimal.Decimal, isBuy bool, slippage decimal.Decimal) (decimal.Decimal, error) {
	one := decimal.NewFromInt(1)
	if slippage.IsNegative() || slippage.GreaterThanOrEqual(one) {
		return decimal.Zero, types.Errorf(types.KindInputValidation, "slippage %s outside [0, 1)", slippage)
	}

	if isBuy {
		return ref.Mul(one.Add(slippage)), nil
	}
	return ref.Mul(one.Sub(slippage)), nil
}

// RoundToTick quantizes px to tick, up for buys and down for sells.
func RoundToTick(px decimal.Decimal, isBuy bool, tick decimal.Decimal) (decimal.Decimal, error) {
	steps, rem := px.QuoRem(tick, 0)
	if isBuy && rem.IsPositive() {
		steps = steps.Add(decimal.NewFromInt(1))
	}
	rounded := steps.Mul(tick)

	if !rounded.IsPositive() {
		return decimal.Zero, types.Errorf(
			types.KindPriceUnavailable,
			"limit price %s rounds to %s at tick %s",
			px,
			rounded,
			tick,
		)
	}
	return rounded, nil
}

// NearestTick rounds px to the closest multiple of tick, halves away from
// zero.
func NearestTick(px, tick decimal.Decimal) decimal.Decimal {
	steps, rem := px.QuoRem(tick, 0)
	if rem.Mul(decimal.NewFromInt(2)).GreaterThanOrEqual(tick) {
		steps = steps.Add(decimal.NewFromInt(1))
	}
	return steps.Mul(tick)
}

// HeuristicTick derives a tick from the price magnitude: the venue accepts
// PRICE_SIG_FIGS significant figures and at most maxDecimals - szDecimals
// fractional digits, so larger prices get coarser ticks. Integer prices are
// always accepted, which caps the tick at 1.
func HeuristicTick(price decimal.Decimal, szDecimals int32, spot bool) decimal.Decimal {
	maxDecimals := int32(constants.PERP_MAX_DECIMALS)
	if spot {
		maxDecimals = constants.SPOT_MAX_DECIMALS
	}

	exp := magnitude(price) - constants.PRICE_SIG_FIGS
	if minExp := -(maxDecimals - szDecimals); exp < minExp {
		exp = minExp
	}
	if exp > 0 {
		exp = 0
	}

	return decimal.New(1, exp)
}

// magnitude is the number of integer digits of a price >= 1, or minus the
// number of leading fractional zeros of a price < 1.
func magnitude(price decimal.Decimal) int32 {
	one := decimal.NewFromInt(1)
	if price.GreaterThanOrEqual(one) {
		return int32(len(strconv.FormatInt(price.IntPart(), 10)))
	}

	var m int32
	tenth := decimal.New(1, -1)
	for scaled := price; scaled.IsPositive() && scaled.LessThan(tenth); scaled = scaled.Shift(1) {
		m--
	}
	return m
}

// Wire renders d in the venue's canonical form: no trailing zeros, no bare
// trailing point and no negative zero.
func Wire(d decimal.Decimal) string {
	s := d.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	if s == "-0" || s == "" {
		s = "0"
	}
	return s
}
