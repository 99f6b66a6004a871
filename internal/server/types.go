package server

import (
	"encoding/json"

	"github.com/banky/hl-agent/action"
	"github.com/banky/hl-agent/exchange"
	"github.com/banky/hl-agent/info"
	"github.com/samber/mo"
	"github.com/shopspring/decimal"
)

// orderRequest is the body of /open and /close. Numbers may be sent as JSON
// numbers or strings.
type orderRequest struct {
	Symbol     string `json:"symbol"`
	Market     string `json:"market"`
	AssetClass string `json:"asset_class"`
	Kind       string `json:"kind"`

	AgentKey     string `json:"agent_key"`
	MainWallet   string `json:"main_wallet"`
	VaultAddress string `json:"vault_address"`

	Size       *decimal.Decimal `json:"size"`
	Notional   *decimal.Decimal `json:"notional"`
	IsBuy      *bool            `json:"is_buy"`
	ReduceOnly bool             `json:"reduce_only"`
	Slippage   *decimal.Decimal `json:"slippage"`
	TickSize   *decimal.Decimal `json:"tick_size"`
	PriceMode  string           `json:"price_mode"`
	TriggerPx  *decimal.Decimal `json:"trigger_px"`
	TpSl       string           `json:"tpsl"`
	Cloid      string           `json:"cloid"`

	// Echoed back untouched for the caller's own bookkeeping.
	TP      json.RawMessage `json:"tp,omitempty"`
	SL      json.RawMessage `json:"sl,omitempty"`
	Timeout json.RawMessage `json:"timeout,omitempty"`
}

func (r orderRequest) symbol() string {
	if r.Symbol != "" {
		return r.Symbol
	}
	return r.Market
}

type signRequest struct {
	AgentKey     string        `json:"agent_key"`
	VaultAddress string        `json:"vault_address"`
	Action       action.Action `json:"action"`
}

type orderPayload struct {
	Market     string `json:"market"`
	Size       string `json:"size,omitempty"`
	Notional   string `json:"notional,omitempty"`
	IsBuy      bool   `json:"is_buy"`
	ReduceOnly bool   `json:"reduce_only"`
}

type openResponse struct {
	Success bool `json:"success"`
	exchange.Result
	Payload   orderPayload    `json:"payload"`
	TP        json.RawMessage `json:"tp,omitempty"`
	SL        json.RawMessage `json:"sl,omitempty"`
	Timeout   json.RawMessage `json:"timeout,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

type closeResponse struct {
	Success bool `json:"success"`
	exchange.Result
	ExitPrice mo.Option[string] `json:"exit_price"`
	Timestamp int64             `json:"timestamp"`
}

type signResponse struct {
	Success bool `json:"success"`
	exchange.Envelope
}

type balanceResponse struct {
	Success bool `json:"success"`
	*info.Balances
}

type healthResponse struct {
	Status  string `json:"status"`
	Network string `json:"network"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}
