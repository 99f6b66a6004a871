package exchange

import (
	"context"
	"fmt"

	"github.com/banky/hl-agent/action"
	"github.com/banky/hl-agent/asset"
	"github.com/banky/hl-agent/normalize"
	"github.com/banky/hl-agent/signing"
	"github.com/banky/hl-agent/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"
)

// CloseOptions tune ClosePosition. The zero value closes the whole position
// with the exchange's close price mode.
type CloseOptions struct {
	// Size closes part of the position. It is a base quantity.
	Size mo.Option[decimal.Decimal]
	// IsBuy sets the side. Together with Size it skips the position lookup.
	IsBuy     mo.Option[bool]
	Slippage  mo.Option[decimal.Decimal]
	TickSize  mo.Option[decimal.Decimal]
	PriceMode mo.Option[normalize.PriceMode]
	Cloid     mo.Option[action.Cloid]
	// Account owns the position when no vault is given. It overrides the
	// exchange's configured account.
	Account mo.Option[common.Address]
}

// ClosePosition sends a reduce-only immediate-or-cancel order against the
// perpetual position in symbol. The position is read from the vault, the
// requested account, the configured account, or the signer's own address, in
// that order.
func (e *Exchange) ClosePosition(
	ctx context.Context,
	signer *signing.Signer,
	vault mo.Option[common.Address],
	symbol string,
	opts CloseOptions,
) (Result, error) {
	if signer == nil {
		return Result{}, types.Errorf(types.KindInputValidation, "signing key is required")
	}

	size, sizeSet := opts.Size.Get()
	isBuy, sideSet := opts.IsBuy.Get()

	if !sizeSet || !sideSet {
		owner := vault.OrElse(opts.Account.OrElse(e.accountAddress.OrElse(signer.Address())))
		szi, err := e.positionSize(ctx, owner, symbol)
		if err != nil {
			return Result{}, err
		}
		if !sideSet {
			// Closing a long sells, closing a short buys.
			isBuy = szi.IsNegative()
		}
		if !sizeSet {
			size = szi.Abs()
		}
	}

	return e.PlaceOrder(ctx, signer, vault, Intent{
		Symbol:     symbol,
		Class:      asset.Perpetual,
		Kind:       MarketIOC,
		IsBuy:      isBuy,
		Amount:     size,
		ReduceOnly: true,
		Slippage:   opts.Slippage,
		TickSize:   opts.TickSize,
		PriceMode:  mo.Some(opts.PriceMode.OrElse(e.closeMode)),
		Cloid:      opts.Cloid,
	})
}

func (e *Exchange) positionSize(
	ctx context.Context,
	owner common.Address,
	symbol string,
) (decimal.Decimal, error) {
	state, err := e.accounts.UserState(ctx, owner, e.dex)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read positions of %s: %w", owner, err)
	}

	raw, ok := state.PositionSize(symbol)
	if !ok {
		return decimal.Zero, types.Errorf(
			types.KindInputValidation,
			"no open %s position for %s",
			symbol,
			owner,
		)
	}

	szi, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("position size %q for %s: %w", raw, symbol, err)
	}
	if szi.IsZero() {
		return decimal.Zero, types.Errorf(
			types.KindInputValidation,
			"no open %s position for %s",
			symbol,
			owner,
		)
	}
	return szi, nil
}
