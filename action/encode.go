package action

import (
	"bytes"

	"github.com/banky/hl-agent/types"
	"github.com/vmihailenco/msgpack/v5"
)

// The wire types encode themselves field by field. Reflection over struct
// tags would not pin the key order or the integer width.
var (
	_ msgpack.CustomEncoder = Action{}
	_ msgpack.CustomEncoder = OrderWire{}
	_ msgpack.CustomEncoder = OrderType{}
)

// Encode returns the canonical msgpack bytes of a. Equal actions always
// produce equal bytes.
func Encode(a Action) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := a.EncodeMsgpack(enc); err != nil {
		return nil, types.Errorf(types.KindEncodingError, "encode action: %w", err)
	}
	return buf.Bytes(), nil
}

func (a Action) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(3); err != nil {
		return err
	}
	if err := encodeKey(enc, "type"); err != nil {
		return err
	}
	if err := enc.EncodeString(a.Type); err != nil {
		return err
	}

	if err := encodeKey(enc, "orders"); err != nil {
		return err
	}
	if err := enc.EncodeArrayLen(len(a.Orders)); err != nil {
		return err
	}
	for _, o := range a.Orders {
		if err := o.EncodeMsgpack(enc); err != nil {
			return err
		}
	}

	if err := encodeKey(enc, "grouping"); err != nil {
		return err
	}
	return enc.EncodeString(string(a.Grouping))
}

func (o OrderWire) EncodeMsgpack(enc *msgpack.Encoder) error {
	n := 6
	if o.Cloid != nil {
		n++
	}
	if err := enc.EncodeMapLen(n); err != nil {
		return err
	}

	if err := encodeKey(enc, "a"); err != nil {
		return err
	}
	if err := enc.EncodeInt(o.Asset); err != nil {
		return err
	}
	if err := encodeKey(enc, "b"); err != nil {
		return err
	}
	if err := enc.EncodeBool(o.IsBuy); err != nil {
		return err
	}
	if err := encodeKey(enc, "p"); err != nil {
		return err
	}
	if err := enc.EncodeString(o.LimitPx); err != nil {
		return err
	}
	if err := encodeKey(enc, "s"); err != nil {
		return err
	}
	if err := enc.EncodeString(o.Size); err != nil {
		return err
	}
	if err := encodeKey(enc, "r"); err != nil {
		return err
	}
	if err := enc.EncodeBool(o.ReduceOnly); err != nil {
		return err
	}
	if err := encodeKey(enc, "t"); err != nil {
		return err
	}
	if err := o.OrderType.EncodeMsgpack(enc); err != nil {
		return err
	}

	if o.Cloid != nil {
		if err := encodeKey(enc, "c"); err != nil {
			return err
		}
		return o.Cloid.EncodeMsgpack(enc)
	}
	return nil
}

func (t OrderType) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := enc.EncodeMapLen(1); err != nil {
		return err
	}

	if t.Limit != nil {
		if err := encodeKey(enc, "limit"); err != nil {
			return err
		}
		if err := enc.EncodeMapLen(1); err != nil {
			return err
		}
		if err := encodeKey(enc, "tif"); err != nil {
			return err
		}
		return enc.EncodeString(string(t.Limit.Tif))
	}

	if err := encodeKey(enc, "trigger"); err != nil {
		return err
	}
	if err := enc.EncodeMapLen(3); err != nil {
		return err
	}
	if err := encodeKey(enc, "isMarket"); err != nil {
		return err
	}
	if err := enc.EncodeBool(t.Trigger.IsMarket); err != nil {
		return err
	}
	if err := encodeKey(enc, "triggerPx"); err != nil {
		return err
	}
	if err := enc.EncodeString(t.Trigger.TriggerPx); err != nil {
		return err
	}
	if err := encodeKey(enc, "tpsl"); err != nil {
		return err
	}
	return enc.EncodeString(string(t.Trigger.TpSl))
}

func encodeKey(enc *msgpack.Encoder, key string) error {
	return enc.EncodeString(key)
}
