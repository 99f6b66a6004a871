package server

import (
	"net/http"
	"strings"

	"github.com/banky/hl-agent/action"
	"github.com/banky/hl-agent/asset"
	"github.com/banky/hl-agent/exchange"
	"github.com/banky/hl-agent/normalize"
	"github.com/banky/hl-agent/signing"
	"github.com/banky/hl-agent/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/samber/mo"
)

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	intent, err := openIntent(req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	signer, vault, err := s.credentials(req.AgentKey, req.VaultAddress)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.exchange.PlaceOrder(r.Context(), signer, vault, intent)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	payload := orderPayload{
		Market:     intent.Symbol,
		IsBuy:      intent.IsBuy,
		ReduceOnly: intent.ReduceOnly,
	}
	if intent.Notional {
		payload.Notional = intent.Amount.String()
	} else {
		payload.Size = intent.Amount.String()
	}

	respondJSON(w, http.StatusOK, openResponse{
		Success:   true,
		Result:    result,
		Payload:   payload,
		TP:        req.TP,
		SL:        req.SL,
		Timeout:   req.Timeout,
		Timestamp: s.now().UnixMilli(),
	})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	symbol, opts, err := closeOptions(req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	signer, vault, err := s.credentials(req.AgentKey, req.VaultAddress)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.exchange.ClosePosition(r.Context(), signer, vault, symbol, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, closeResponse{
		Success:   true,
		Result:    result,
		ExitPrice: result.RealizedPx,
		Timestamp: s.now().UnixMilli(),
	})
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	var req signRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	signer, vault, err := s.credentials(req.AgentKey, req.VaultAddress)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	env, err := s.exchange.SignAction(signer, vault, req.Action)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, signResponse{Success: true, Envelope: env})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	address, err := parseAddress("address", mux.Vars(r)["address"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	balances, err := s.exchange.Info().Balances(r.Context(), address)
	if err != nil {
		s.respondError(w, r, types.Errorf(types.KindVenueRejected, "fetch balances: %w", err))
		return
	}

	respondJSON(w, http.StatusOK, balanceResponse{Success: true, Balances: balances})
}

// ==============================
// Request parsing
// ==============================

// credentials builds the signer for the exchange's network. The key is never
// echoed back, not even in part.
func (s *Server) credentials(
	agentKey string,
	vaultAddress string,
) (*signing.Signer, mo.Option[common.Address], error) {
	none := mo.None[common.Address]()

	if strings.TrimSpace(agentKey) == "" {
		return nil, none, types.Errorf(types.KindInputValidation, "agent_key is required")
	}
	signer, err := signing.NewSigner(agentKey, s.exchange.IsMainnet())
	if err != nil {
		return nil, none, types.Errorf(types.KindInputValidation, "agent_key: %s", types.MessageOf(err))
	}

	if vaultAddress == "" {
		return signer, none, nil
	}
	vault, err := parseAddress("vault_address", vaultAddress)
	if err != nil {
		return nil, none, err
	}
	return signer, mo.Some(vault), nil
}

func openIntent(req orderRequest) (exchange.Intent, error) {
	symbol := strings.TrimSpace(req.symbol())
	if symbol == "" {
		return exchange.Intent{}, types.Errorf(types.KindInputValidation, "symbol or market is required")
	}

	class, err := asset.ParseClass(req.AssetClass)
	if err != nil {
		return exchange.Intent{}, err
	}
	kind, err := exchange.ParseKind(req.Kind)
	if err != nil {
		return exchange.Intent{}, err
	}

	intent := exchange.Intent{
		Symbol:     symbol,
		Class:      class,
		Kind:       kind,
		IsBuy:      true,
		ReduceOnly: req.ReduceOnly,
		Slippage:   mo.PointerToOption(req.Slippage),
		TickSize:   mo.PointerToOption(req.TickSize),
		TriggerPx:  mo.PointerToOption(req.TriggerPx),
		TpSl:       action.TpSl(req.TpSl),
	}
	if req.IsBuy != nil {
		intent.IsBuy = *req.IsBuy
	}

	switch {
	case req.Size != nil && req.Notional != nil:
		return exchange.Intent{}, types.Errorf(types.KindInputValidation, "give size or notional, not both")
	case req.Size != nil:
		intent.Amount = *req.Size
	case req.Notional != nil:
		intent.Amount = *req.Notional
		intent.Notional = true
	default:
		return exchange.Intent{}, types.Errorf(types.KindInputValidation, "size or notional is required")
	}

	if intent.PriceMode, err = priceMode(req.PriceMode); err != nil {
		return exchange.Intent{}, err
	}
	if intent.Cloid, err = cloid(req.Cloid); err != nil {
		return exchange.Intent{}, err
	}

	return intent, nil
}

func closeOptions(req orderRequest) (string, exchange.CloseOptions, error) {
	var opts exchange.CloseOptions

	symbol := strings.TrimSpace(req.symbol())
	if symbol == "" {
		return "", opts, types.Errorf(types.KindInputValidation, "symbol or market is required")
	}
	class, err := asset.ParseClass(req.AssetClass)
	if err != nil {
		return "", opts, err
	}
	if class != asset.Perpetual {
		return "", opts, types.Errorf(types.KindInputValidation, "only perpetual positions can be closed")
	}
	if req.Notional != nil {
		return "", opts, types.Errorf(types.KindInputValidation, "close size is a base quantity, notional is not accepted")
	}

	opts.Size = mo.PointerToOption(req.Size)
	opts.IsBuy = mo.PointerToOption(req.IsBuy)
	opts.Slippage = mo.PointerToOption(req.Slippage)
	opts.TickSize = mo.PointerToOption(req.TickSize)

	if size, ok := opts.Size.Get(); ok && !size.IsPositive() {
		return "", opts, types.Errorf(types.KindInputValidation, "close size must be positive, got %s", size)
	}
	if opts.PriceMode, err = priceMode(req.PriceMode); err != nil {
		return "", opts, err
	}
	if opts.Cloid, err = cloid(req.Cloid); err != nil {
		return "", opts, err
	}
	if req.MainWallet != "" {
		account, err := parseAddress("main_wallet", req.MainWallet)
		if err != nil {
			return "", opts, err
		}
		opts.Account = mo.Some(account)
	}

	return symbol, opts, nil
}

func priceMode(s string) (mo.Option[normalize.PriceMode], error) {
	if s == "" {
		return mo.None[normalize.PriceMode](), nil
	}
	mode, err := normalize.ParsePriceMode(s)
	if err != nil {
		return mo.None[normalize.PriceMode](), err
	}
	return mo.Some(mode), nil
}

func cloid(s string) (mo.Option[action.Cloid], error) {
	if s == "" {
		return mo.None[action.Cloid](), nil
	}
	c, err := action.ParseCloid(s)
	if err != nil {
		return mo.None[action.Cloid](), types.Errorf(types.KindInputValidation, "cloid: %s", err)
	}
	return mo.Some(c), nil
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, types.Errorf(types.KindInputValidation, "%s %q is not an address", field, s)
	}
	return common.HexToAddress(s), nil
}
