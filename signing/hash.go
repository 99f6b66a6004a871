// Package signing hashes encoded order actions and signs them as EIP-712
// "Agent" messages.
package signing

import (
	"encoding/binary"

	"github.com/banky/hl-agent/action"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/mo"
)

// ActionHash is keccak256(encoded || uint64be(nonce) || vault flag), where the
// vault flag is 0x01 followed by the vault address, or a single 0x00.
func ActionHash(
	encoded []byte,
	nonce uint64,
	vault mo.Option[common.Address],
) common.Hash {
	data := make([]byte, 0, len(encoded)+8+1+common.AddressLength)
	data = append(data, encoded...)
	data = binary.BigEndian.AppendUint64(data, nonce)

	if v, ok := vault.Get(); ok {
		data = append(data, 0x01)
		data = append(data, v.Bytes()...)
	} else {
		data = append(data, 0x00)
	}

	return crypto.Keccak256Hash(data)
}

// HashAction encodes a and hashes it with ActionHash.
func HashAction(
	a action.Action,
	nonce uint64,
	vault mo.Option[common.Address],
) (common.Hash, error) {
	encoded, err := action.Encode(a)
	if err != nil {
		return common.Hash{}, err
	}
	return ActionHash(encoded, nonce, vault), nil
}
