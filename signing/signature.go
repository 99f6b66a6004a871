package signing

import (
	"encoding/json"
	"fmt"

	"github.com/banky/hl-agent/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const signatureLength = 65

// Signature is a recoverable secp256k1 signature with V in {27, 28}.
type Signature struct {
	R common.Hash
	S common.Hash
	V byte
}

// SplitSignature splits a raw [R || S || V] signature. V is shifted into the
// Ethereum range when it is a recovery id.
func SplitSignature(raw []byte) (Signature, error) {
	if len(raw) != signatureLength {
		return Signature{}, types.Errorf(
			types.KindSigningError,
			"invalid signature length: got %d, want %d",
			len(raw),
			signatureLength,
		)
	}

	var sig Signature
	copy(sig.R[:], raw[:32])
	copy(sig.S[:], raw[32:64])
	sig.V = raw[64]
	if sig.V < 27 {
		sig.V += 27
	}
	return sig, nil
}

// Bytes returns [R || S || V] with V as stored.
func (s Signature) Bytes() []byte {
	out := make([]byte, 0, signatureLength)
	out = append(out, s.R[:]...)
	out = append(out, s.S[:]...)
	return append(out, s.V)
}

type signatureJSON struct {
	R string `json:"r"`
	S string `json:"s"`
	V uint8  `json:"v"`
}

// MarshalJSON encodes the signature as
// { "r": "0x...", "s": "0x...", "v": <number> }
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(signatureJSON{
		R: hexutil.Encode(s.R[:]),
		S: hexutil.Encode(s.S[:]),
		V: s.V,
	})
}

func (s *Signature) UnmarshalJSON(data []byte) error {
	var a signatureJSON
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	r, err := decodeWord("r", a.R)
	if err != nil {
		return err
	}
	sv, err := decodeWord("s", a.S)
	if err != nil {
		return err
	}

	s.R, s.S, s.V = r, sv, a.V
	return nil
}

func decodeWord(name, value string) (common.Hash, error) {
	b, err := hexutil.Decode(value)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf(
			"invalid %s length: got %d, want %d",
			name,
			len(b),
			common.HashLength,
		)
	}
	return common.BytesToHash(b), nil
}

func (s Signature) String() string {
	return fmt.Sprintf(
		"R: %s, S: %s, V: %d",
		hexutil.Encode(s.R[:]),
		hexutil.Encode(s.S[:]),
		s.V,
	)
}
