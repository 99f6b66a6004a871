// Package constants holds process-wide immutable configuration shared by the
// order pipeline: endpoints, the L1 signing domain and wire-level literals.
package constants

import "github.com/ethereum/go-ethereum/common"

const MAINNET_API_URL = "https://api.hyperliquid.xyz"
const TESTNET_API_URL = "https://api.hyperliquid-testnet.xyz"
const LOCAL_API_URL = "http://localhost:3001"

const INFO_PATH = "/info"
const EXCHANGE_PATH = "/exchange"

// L1 actions are signed under a fixed off-chain namespace. The chain id is
// not the settlement chain.
const (
	SIGNATURE_DOMAIN_NAME    = "Exchange"
	SIGNATURE_DOMAIN_VERSION = "1"
	SIGNATURE_CHAIN_ID       = 1337
	SIGNATURE_PRIMARY_TYPE   = "Agent"
)

// Phantom agent source for mainnet and testnet.
const (
	MAINNET_SOURCE = "a"
	TESTNET_SOURCE = "b"
)

const ORDER_ACTION_TYPE = "order"
const ORDER_GROUPING_NA = "na"

// Spot pair ids are offset from perpetual ids.
const SPOT_ASSET_OFFSET = 10_000

// Index of the quote token (USDC) in the spot token table.
const QUOTE_TOKEN_INDEX = 0

// Price decimals budget per asset class, shared with size decimals.
const (
	PERP_MAX_DECIMALS = 6
	SPOT_MAX_DECIMALS = 8
)

// Significant figures the venue accepts on a price.
const PRICE_SIG_FIGS = 5

// DEFAULT_SLIPPAGE is the protective offset used when none is requested (1%).
const DEFAULT_SLIPPAGE = "0.01"

var ZERO_ADDRESS = common.Address{}
