// Package action defines the order action that is hashed and signed, and its
// canonical msgpack encoding.
package action

import (
	"github.com/banky/hl-agent/constants"
	"github.com/banky/hl-agent/types"
)

// Tif is the time-in-force of a limit order.
type Tif string

const (
	TifIoc Tif = "Ioc"
	TifGtc Tif = "Gtc"
	TifAlo Tif = "Alo"
)

// TpSl tags a trigger order as take-profit or stop-loss.
type TpSl string

const (
	TakeProfit TpSl = "tp"
	StopLoss   TpSl = "sl"
)

type Grouping string

const (
	GroupingNA           Grouping = constants.ORDER_GROUPING_NA
	GroupingNormalTpSl   Grouping = "normalTpsl"
	GroupingPositionTpSl Grouping = "positionTpsl"
)

type LimitOrder struct {
	Tif Tif `json:"tif"`
}

type TriggerOrder struct {
	IsMarket  bool   `json:"isMarket"`
	TriggerPx string `json:"triggerPx"`
	TpSl      TpSl   `json:"tpsl"`
}

// OrderType holds exactly one of Limit or Trigger.
type OrderType struct {
	Limit   *LimitOrder   `json:"limit,omitempty"`
	Trigger *TriggerOrder `json:"trigger,omitempty"`
}

// Validate fails unless exactly one variant is set.
func (t OrderType) Validate() error {
	switch {
	case t.Limit == nil && t.Trigger == nil:
		return types.Errorf(types.KindEncodingError, "order type has no variant")
	case t.Limit != nil && t.Trigger != nil:
		return types.Errorf(types.KindEncodingError, "order type has both limit and trigger variants")
	}
	return nil
}

// LimitType is shorthand for a limit order type.
func LimitType(tif Tif) OrderType {
	return OrderType{Limit: &LimitOrder{Tif: tif}}
}

// TriggerType is shorthand for a trigger order type.
func TriggerType(isMarket bool, triggerPx string, tpsl TpSl) OrderType {
	return OrderType{Trigger: &TriggerOrder{
		IsMarket:  isMarket,
		TriggerPx: triggerPx,
		TpSl:      tpsl,
	}}
}

// OrderWire is one order as it appears inside an action. Field order matches
// the venue's key order.
type OrderWire struct {
	Asset      int64     `json:"a"`
	IsBuy      bool      `json:"b"`
	LimitPx    string    `json:"p"`
	Size       string    `json:"s"`
	ReduceOnly bool      `json:"r"`
	OrderType  OrderType `json:"t"`
	Cloid      *Cloid    `json:"c,omitempty"`
}

// Action is the order action. Decoding it from JSON accepts any key order;
// encoding always produces the venue's order.
type Action struct {
	Type     string      `json:"type"`
	Orders   []OrderWire `json:"orders"`
	Grouping Grouping    `json:"grouping"`
}

// NewOrderAction wraps orders in an "order" action with grouping "na".
func NewOrderAction(orders ...OrderWire) Action {
	return Action{
		Type:     constants.ORDER_ACTION_TYPE,
		Orders:   orders,
		Grouping: GroupingNA,
	}
}

// Validate checks the action can be encoded.
func (a Action) Validate() error {
	if a.Type != constants.ORDER_ACTION_TYPE {
		return types.Errorf(types.KindEncodingError, "unsupported action type %q", a.Type)
	}
	if len(a.Orders) == 0 {
		return types.Errorf(types.KindEncodingError, "order action has no orders")
	}
	if a.Grouping == "" {
		return types.Errorf(types.KindEncodingError, "order action has no grouping")
	}
	for i, o := range a.Orders {
		if o.Asset < 0 {
			return types.Errorf(types.KindEncodingError, "order %d: negative asset %d", i, o.Asset)
		}
		if o.LimitPx == "" || o.Size == "" {
			return types.Errorf(types.KindEncodingError, "order %d: empty price or size", i)
		}
		if err := o.OrderType.Validate(); err != nil {
			return types.Errorf(types.KindEncodingError, "order %d: %s", i, types.MessageOf(err))
		}
	}
	return nil
}
