package action

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/banky/hl-agent/types"
	"github.com/maxatome/go-testdeep/td"
)

func ethIocOrder() OrderWire {
	return OrderWire{
		Asset:     4,
		IsBuy:     true,
		LimitPx:   "1670.1",
		Size:      "0.0147",
		OrderType: LimitType(TifIoc),
	}
}

func TestEncodeCanonicalBytes(t *testing.T) {
	encoded, err := Encode(NewOrderAction(ethIocOrder()))
	td.CmpNoError(t, err)

	expected := "83" +
		"a474797065" + "a56f72646572" +
		"a66f7264657273" + "91" +
		"86" +
		"a161" + "04" +
		"a162" + "c3" +
		"a170" + "a6313637302e31" +
		"a173" + "a6302e30313437" +
		"a172" + "c2" +
		"a174" + "81" + "a56c696d6974" + "81" + "a3746966" + "a3496f63" +
		"a867726f7570696e67" + "a26e61"

	td.Cmp(t, hex.EncodeToString(encoded), expected)
}

func TestEncodeIsIndependentOfJSONKeyOrder(t *testing.T) {
	canonical := `{"type":"order","orders":[{"a":4,"b":true,"p":"1670.1","s":"0.0147","r":false,"t":{"limit":{"tif":"Ioc"}}}],"grouping":"na"}`
	shuffled := `{"grouping":"na","orders":[{"t":{"limit":{"tif":"Ioc"}},"r":false,"s":"0.0147","p":"1670.1","b":true,"a":4}],"type":"order"}`

	var a1, a2 Action
	td.CmpNoError(t, json.Unmarshal([]byte(canonical), &a1))
	td.CmpNoError(t, json.Unmarshal([]byte(shuffled), &a2))

	b1, err := Encode(a1)
	td.CmpNoError(t, err)
	b2, err := Encode(a2)
	td.CmpNoError(t, err)
	td.CmpTrue(t, bytes.Equal(b1, b2))

	built, err := Encode(NewOrderAction(ethIocOrder()))
	td.CmpNoError(t, err)
	td.CmpTrue(t, bytes.Equal(b1, built))
}

func TestJSONKeepsVenueKeyOrder(t *testing.T) {
	out, err := json.Marshal(NewOrderAction(ethIocOrder()))
	td.CmpNoError(t, err)
	td.Cmp(t, string(out),
		`{"type":"order","orders":[{"a":4,"b":true,"p":"1670.1","s":"0.0147","r":false,"t":{"limit":{"tif":"Ioc"}}}],"grouping":"na"}`)
}

func TestEncodeSpotAssetUsesCompactInt(t *testing.T) {
	order := ethIocOrder()
	order.Asset = 10004

	encoded, err := Encode(NewOrderAction(order))
	td.CmpNoError(t, err)
	// uint16 form, never a float or a fixed 8 byte int
	td.CmpTrue(t, bytes.Contains(encoded, []byte{0xa1, 'a', 0xcd, 0x27, 0x14}))
}

func TestEncodeCloidAsStr8(t *testing.T) {
	cloid, err := ParseCloid("0x00000000000000000000000000000001")
	td.CmpNoError(t, err)

	order := ethIocOrder()
	order.Cloid = &cloid

	encoded, err := Encode(NewOrderAction(order))
	td.CmpNoError(t, err)

	want := append([]byte{0xa1, 'c', 0xd9, 0x22}, "0x00000000000000000000000000000001"...)
	td.CmpTrue(t, bytes.HasSuffix(encoded[:len(encoded)-len("\xa8grouping\xa2na")], want))
	// seven keys in the order map
	td.CmpTrue(t, bytes.Contains(encoded, []byte{0x91, 0x87}))
}

func TestEncodeTriggerOrder(t *testing.T) {
	order := OrderWire{
		Asset:      0,
		IsBuy:      false,
		LimitPx:    "44000",
		Size:       "0.001",
		ReduceOnly: true,
		OrderType:  TriggerType(true, "44000", StopLoss),
	}

	encoded, err := Encode(NewOrderAction(order))
	td.CmpNoError(t, err)

	trigger := "a774726967676572" + "83" +
		"a869734d61726b6574" + "c3" +
		"a9747269676765725078" + "a53434303030" +
		"a474707366" + "a2736c"
	td.Cmp(t, hex.EncodeToString(encoded), td.Contains(trigger))
}

func TestEncodeRejectsMalformedOrderType(t *testing.T) {
	neither := ethIocOrder()
	neither.OrderType = OrderType{}

	_, err := Encode(NewOrderAction(neither))
	td.Cmp(t, types.KindOf(err), types.KindEncodingError)

	both := ethIocOrder()
	both.OrderType = OrderType{
		Limit:   &LimitOrder{Tif: TifIoc},
		Trigger: &TriggerOrder{IsMarket: true, TriggerPx: "1", TpSl: TakeProfit},
	}

	_, err = Encode(NewOrderAction(both))
	td.Cmp(t, types.KindOf(err), types.KindEncodingError)
	td.Cmp(t, err.Error(), td.Contains("both"))
}

func TestEncodeRejectsEmptyAction(t *testing.T) {
	_, err := Encode(NewOrderAction())
	td.Cmp(t, types.KindOf(err), types.KindEncodingError)

	_, err = Encode(Action{Type: "cancel", Orders: []OrderWire{ethIocOrder()}, Grouping: GroupingNA})
	td.Cmp(t, types.KindOf(err), types.KindEncodingError)
}

func TestParseCloid(t *testing.T) {
	c, err := ParseCloid("0x000000000000000000000000000000ff")
	td.CmpNoError(t, err)
	td.Cmp(t, c[15], byte(0xff))
	td.Cmp(t, c.String(), "0x000000000000000000000000000000ff")

	_, err = ParseCloid("0x01")
	td.CmpError(t, err)

	_, err = ParseCloid("not hex")
	td.CmpError(t, err)

	var decoded struct {
		C Cloid `json:"c"`
	}
	td.CmpNoError(t, json.Unmarshal([]byte(`{"c":"0x000000000000000000000000000000ff"}`), &decoded))
	td.Cmp(t, decoded.C, c)
}
