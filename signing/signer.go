package signing

import (
	"crypto/ecdsa"
	"strings"

	"github.com/banky/hl-agent/constants"
	"github.com/banky/hl-agent/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Signer signs action hashes with an agent key. It never exposes the key in
// its string forms or its errors.
type Signer struct {
	key       *ecdsa.PrivateKey
	address   common.Address
	isMainnet bool
}

// NewSigner parses a hex private key, with or without a 0x prefix.
func NewSigner(hexKey string, isMainnet bool) (*Signer, error) {
	trimmed := strings.TrimSpace(hexKey)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if trimmed == "" {
		return nil, types.Errorf(types.KindSigningError, "signing key is empty")
	}

	// The parse error is dropped since it can quote the offending input.
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, types.Errorf(types.KindSigningError, "signing key is not a valid secp256k1 private key")
	}

	return FromECDSA(key, isMainnet), nil
}

func FromECDSA(key *ecdsa.PrivateKey, isMainnet bool) *Signer {
	return &Signer{
		key:       key,
		address:   crypto.PubkeyToAddress(key.PublicKey),
		isMainnet: isMainnet,
	}
}

// Address is the agent address derived from the key.
func (s *Signer) Address() common.Address {
	return s.address
}

func (s *Signer) IsMainnet() bool {
	return s.isMainnet
}

func (s *Signer) String() string {
	return "Signer(" + s.address.Hex() + ")"
}

func (s *Signer) GoString() string {
	return s.String()
}

// Sign signs the Agent message whose connection id is actionHash.
func (s *Signer) Sign(actionHash common.Hash) (Signature, error) {
	digest, err := AgentDigest(actionHash, s.isMainnet)
	if err != nil {
		return Signature{}, err
	}

	raw, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return Signature{}, types.Errorf(types.KindSigningError, "sign agent message: %w", err)
	}
	return SplitSignature(raw)
}

// Recover returns the address that produced sig over the Agent message for
// actionHash.
func Recover(actionHash common.Hash, sig Signature, isMainnet bool) (common.Address, error) {
	digest, err := AgentDigest(actionHash, isMainnet)
	if err != nil {
		return common.Address{}, err
	}

	raw := sig.Bytes()
	if raw[64] >= 27 {
		raw[64] -= 27
	}
	pub, err := crypto.SigToPub(digest.Bytes(), raw)
	if err != nil {
		return common.Address{}, types.Errorf(types.KindSigningError, "recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// AgentDigest is the EIP-712 digest of the Agent message for actionHash.
func AgentDigest(actionHash common.Hash, isMainnet bool) (common.Hash, error) {
	digest, _, err := apitypes.TypedDataAndHash(AgentTypedData(actionHash, isMainnet))
	if err != nil {
		return common.Hash{}, types.Errorf(types.KindSigningError, "hash typed data: %w", err)
	}
	return common.BytesToHash(digest), nil
}

// AgentTypedData builds the typed data of the phantom agent that stands in
// for an action hash.
func AgentTypedData(actionHash common.Hash, isMainnet bool) apitypes.TypedData {
	source := constants.TESTNET_SOURCE
	if isMainnet {
		source = constants.MAINNET_SOURCE
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			constants.SIGNATURE_PRIMARY_TYPE: {
				{Name: "source", Type: "string"},
				{Name: "connectionId", Type: "bytes32"},
			},
		},
		PrimaryType: constants.SIGNATURE_PRIMARY_TYPE,
		Domain: apitypes.TypedDataDomain{
			Name:              constants.SIGNATURE_DOMAIN_NAME,
			Version:           constants.SIGNATURE_DOMAIN_VERSION,
			ChainId:           math.NewHexOrDecimal256(constants.SIGNATURE_CHAIN_ID),
			VerifyingContract: constants.ZERO_ADDRESS.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"source":       source,
			"connectionId": actionHash,
		},
	}
}
