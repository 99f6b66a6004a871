package exchange

import (
	"context"
	"encoding/json"

	"github.com/banky/hl-agent/action"
	"github.com/banky/hl-agent/constants"
	"github.com/banky/hl-agent/signing"
	"github.com/banky/hl-agent/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

// Envelope is the signed request body of /exchange.
type Envelope struct {
	Action    action.Action     `json:"action"`
	Nonce     uint64            `json:"nonce"`
	Signature signing.Signature `json:"signature"`
	// VaultAddress is null when trading for the signer's own account.
	VaultAddress *common.Address `json:"vaultAddress"`
}

// Assemble packs the pieces of a signed action. The nonce must be the one
// the action was hashed with.
func Assemble(
	a action.Action,
	nonce uint64,
	sig signing.Signature,
	vault mo.Option[common.Address],
) Envelope {
	return Envelope{
		Action:       a,
		Nonce:        nonce,
		Signature:    sig,
		VaultAddress: vault.ToPointer(),
	}
}

// SignAction signs a without submitting it.
func (e *Exchange) SignAction(
	signer *signing.Signer,
	vault mo.Option[common.Address],
	a action.Action,
) (Envelope, error) {
	if signer == nil {
		return Envelope{}, types.Errorf(types.KindInputValidation, "signing key is required")
	}

	encoded, err := action.Encode(a)
	if err != nil {
		return Envelope{}, err
	}

	// The nonce is taken once; hashing, signing and the envelope share it.
	nonce := e.nonces.Next()
	hash := signing.ActionHash(encoded, nonce, vault)

	sig, err := signer.Sign(hash)
	if err != nil {
		return Envelope{}, err
	}

	e.logger.Debug("signed action",
		zap.Uint64("nonce", nonce),
		zap.Stringer("agent", signer.Address()),
		zap.Stringer("connection_id", hash),
	)

	return Assemble(a, nonce, sig, vault), nil
}

// Submit posts env to /exchange. A top-level "ok" is an accepted action;
// anything else, including transport failures, is types.ErrVenueRejected.
// Submit never retries: the venue may already have executed the order.
func (e *Exchange) Submit(ctx context.Context, env Envelope) (Result, error) {
	var raw json.RawMessage
	if err := e.rest.Post(ctx, constants.EXCHANGE_PATH, env, &raw); err != nil {
		return Result{}, types.Errorf(types.KindVenueRejected, "submit order action: %w", err)
	}

	var resp Response[OrderPayload]
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Result{}, types.Errorf(
			types.KindVenueRejected,
			"unreadable venue response %s: %w",
			string(raw),
			err,
		)
	}
	if !resp.IsOK() {
		return Result{}, types.Errorf(types.KindVenueRejected, "%s", resp.ErrorMessage)
	}

	statuses := resp.Data.Data.Statuses
	result := Result{
		Accepted:   true,
		Response:   raw,
		Statuses:   statuses,
		RealizedPx: realizedPrice(statuses),
		Nonce:      env.Nonce,
	}

	if errs := result.OrderErrors(); len(errs) > 0 {
		e.logger.Warn("venue accepted action with order errors",
			zap.Uint64("nonce", env.Nonce),
			zap.Strings("errors", errs),
		)
	}

	return result, nil
}
