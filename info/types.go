package info

import "github.com/ethereum/go-ethereum/common"

// ===== Market Data Types =====

// AssetInfo contains metadata about a perpetual asset
type AssetInfo struct {
	Name         string `json:"name"`
	SzDecimals   int32  `json:"szDecimals"`
	MaxLeverage  int    `json:"maxLeverage,omitempty"`
	OnlyIsolated bool   `json:"onlyIsolated,omitempty"`
	IsDelisted   bool   `json:"isDelisted,omitempty"`
}

// Meta contains exchange metadata for perpetuals. The position of an entry
// in Universe is its asset id.
type Meta struct {
	Universe []AssetInfo `json:"universe"`
}

// SpotAssetInfo describes a spot pair. Tokens holds indexes into
// SpotMeta.Tokens.
type SpotAssetInfo struct {
	Name        string `json:"name"`
	Tokens      [2]int `json:"tokens"`
	Index       int    `json:"index"`
	IsCanonical bool   `json:"isCanonical"`
}

// SpotTokenInfo contains spot token metadata
type SpotTokenInfo struct {
	Name        string  `json:"name"`
	SzDecimals  int32   `json:"szDecimals"`
	WeiDecimals int32   `json:"weiDecimals"`
	Index       int     `json:"index"`
	TokenId     string  `json:"tokenId"`
	IsCanonical bool    `json:"isCanonical"`
	FullName    *string `json:"fullName"`
}

// SpotMeta contains exchange metadata for spot trading
type SpotMeta struct {
	Universe []SpotAssetInfo `json:"universe"`
	Tokens   []SpotTokenInfo `json:"tokens"`
}

// ===== User Account Types =====

// Position represents a user's position in a coin
type Position struct {
	Coin           string   `json:"coin"`
	EntryPx        *string  `json:"entryPx"`
	Leverage       Leverage `json:"leverage"`
	LiquidationPx  *string  `json:"liquidationPx"`
	MarginUsed     string   `json:"marginUsed"`
	PositionValue  string   `json:"positionValue"`
	ReturnOnEquity string   `json:"returnOnEquity"`
	Szi            string   `json:"szi"`
	UnrealizedPnl  string   `json:"unrealizedPnl"`
}

// AssetPosition represents a user's position in an asset
type AssetPosition struct {
	Position Position `json:"position"`
	Type     string   `json:"type"`
}

// Leverage represents leverage configuration
type Leverage struct {
	Type   string  `json:"type"` // "cross" or "isolated"
	Value  int     `json:"value"`
	RawUsd *string `json:"rawUsd,omitempty"` // Only for isolated
}

// MarginSummary contains margin information
type MarginSummary struct {
	AccountValue    string `json:"accountValue"`
	TotalMarginUsed string `json:"totalMarginUsed"`
	TotalNtlPos     string `json:"totalNtlPos"`
	TotalRawUsd     string `json:"totalRawUsd"`
}

// UserState contains perpetual account state for a user
type UserState struct {
	AssetPositions     []AssetPosition `json:"assetPositions"`
	CrossMarginSummary MarginSummary   `json:"crossMarginSummary"`
	MarginSummary      MarginSummary   `json:"marginSummary"`
	Withdrawable       string          `json:"withdrawable"`
}

// SpotBalance is the balance of one spot token
type SpotBalance struct {
	Coin     string `json:"coin"`
	Token    int    `json:"token"`
	Total    string `json:"total"`
	Hold     string `json:"hold"`
	EntryNtl string `json:"entryNtl"`
}

// SpotUserState contains spot balances for a user
type SpotUserState struct {
	Balances []SpotBalance `json:"balances"`
}

// Balances is a combined perpetual and spot snapshot
type Balances struct {
	Address      common.Address  `json:"address"`
	Withdrawable string          `json:"withdrawable"`
	Margin       MarginSummary   `json:"margin"`
	Positions    []AssetPosition `json:"positions"`
	Spot         []SpotBalance   `json:"spot"`
}
