package action

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/vmihailenco/msgpack/v5"
)

const cloidLength = 16

// Cloid is a client order id. On the wire it is a 0x-prefixed hex string of
// exactly 16 bytes.
type Cloid [cloidLength]byte

// ParseCloid decodes a 0x-prefixed, 32 hex digit client order id.
func ParseCloid(s string) (Cloid, error) {
	var c Cloid
	b, err := hexutil.Decode(s)
	if err != nil {
		return c, fmt.Errorf("invalid cloid %q: %w", s, err)
	}
	if len(b) != cloidLength {
		return c, fmt.Errorf("invalid cloid length: got %d bytes, want %d", len(b), cloidLength)
	}
	copy(c[:], b)
	return c, nil
}

func (c Cloid) Hex() string { return hexutil.Encode(c[:]) }

func (c Cloid) String() string { return c.Hex() }

func (c Cloid) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *Cloid) UnmarshalText(text []byte) error {
	parsed, err := ParseCloid(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

var _ msgpack.CustomEncoder = Cloid{}

// EncodeMsgpack writes the hex form, which is 34 bytes and therefore a str8.
func (c Cloid) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(c.Hex())
}
