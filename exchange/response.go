package exchange

import (
	"encoding/json"
	"fmt"

	"github.com/banky/hl-agent/action"
	"github.com/samber/mo"
)

// Response is a generic top-level response that can hold any "ok" payload type.
type Response[T any] struct {
	Status       string
	Data         *T     // present when Status == "ok"
	ErrorMessage string // present otherwise
}

// wire-level shape:
//
//	{
//	  "status": "ok" | "err",
//	  "response": <object or string>
//	}
type rawResponse struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// UnmarshalJSON handles both "ok" (object) and "err" (string) bodies.
func (r *Response[T]) UnmarshalJSON(data []byte) error {
	var raw rawResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal raw response: %w", err)
	}

	r.Status = raw.Status
	r.Data = nil
	r.ErrorMessage = ""

	if raw.Status == "ok" {
		var payload T
		if err := json.Unmarshal(raw.Response, &payload); err != nil {
			return fmt.Errorf("unmarshal ok response body: %w", err)
		}
		r.Data = &payload
		return nil
	}

	// "err" carries a string; anything else is kept verbatim.
	var msg string
	if err := json.Unmarshal(raw.Response, &msg); err != nil {
		msg = string(raw.Response)
	}
	if msg == "" {
		msg = fmt.Sprintf("venue returned status %q", raw.Status)
	}
	r.ErrorMessage = msg

	return nil
}

func (r Response[T]) IsOK() bool {
	return r.Status == "ok" && r.Data != nil
}

// OrderPayload is the "ok" body of an order action.
type OrderPayload struct {
	Type string `json:"type"`
	Data struct {
		Statuses []OrderStatus `json:"statuses"`
	} `json:"data"`
}

type OrderStatus struct {
	Resting *OrderStatusResting `json:"resting,omitempty"`
	Filled  *OrderStatusFilled  `json:"filled,omitempty"`
	Error   *string             `json:"error,omitempty"`
}

type OrderStatusResting struct {
	Oid      int64         `json:"oid"`
	ClientId *action.Cloid `json:"cloid,omitempty"`
	Status   string        `json:"status,omitempty"`
}

type OrderStatusFilled struct {
	TotalSz string `json:"totalSz"`
	AvgPx   string `json:"avgPx"`
	Oid     int64  `json:"oid"`
}

// Result is the outcome of a submitted order action.
type Result struct {
	Accepted bool `json:"accepted"`
	// Response is the venue's body, untouched.
	Response json.RawMessage `json:"response"`
	Statuses []OrderStatus   `json:"-"`
	// RealizedPx is the average fill price of the first filled order. It is
	// null when nothing filled.
	RealizedPx    mo.Option[string] `json:"realized_price"`
	Nonce         uint64            `json:"nonce"`
	TickHeuristic bool              `json:"tick_heuristic"`
}

// OrderErrors returns the per-order error strings of an accepted action.
func (r Result) OrderErrors() []string {
	var errs []string
	for _, s := range r.Statuses {
		if s.Error != nil {
			errs = append(errs, *s.Error)
		}
	}
	return errs
}

func realizedPrice(statuses []OrderStatus) mo.Option[string] {
	for _, s := range statuses {
		if s.Filled != nil && s.Filled.AvgPx != "" {
			return mo.Some(s.Filled.AvgPx)
		}
	}
	return mo.None[string]()
}
