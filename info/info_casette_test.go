package info

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/maxatome/go-testdeep/helpers/tdsuite"
	"github.com/maxatome/go-testdeep/td"
)

// cassetteRestClient replays recorded info responses keyed by request type
type cassetteRestClient struct {
	cassettes map[string]json.RawMessage
	requests  []map[string]any
}

// newCassetteRestClient loads one cassette file per request type
func newCassetteRestClient(t testing.TB, mappings map[string]string) *cassetteRestClient {
	client := &cassetteRestClient{cassettes: make(map[string]json.RawMessage)}

	for requestType, name := range mappings {
		data, err := os.ReadFile(filepath.Join("testdata", "cassettes", name+".json"))
		if err != nil {
			t.Fatalf("failed to load cassette file %s: %v", name, err)
		}
		if !json.Valid(data) {
			t.Fatalf("cassette %s is not valid JSON", name)
		}
		client.cassettes[requestType] = data
	}

	return client
}

// Post implements the rest.ClientInterface Post method using cassettes
func (crc *cassetteRestClient) Post(
	ctx context.Context,
	path string,
	body any,
	result any,
) error {
	bodyMap, ok := body.(map[string]any)
	if !ok {
		return errors.New("request body must be a map")
	}

	requestType, ok := bodyMap["type"].(string)
	if !ok {
		return errors.New("request body must contain 'type' field")
	}
	crc.requests = append(crc.requests, bodyMap)

	cassette, ok := crc.cassettes[requestType]
	if !ok {
		return fmt.Errorf("no cassette for request type %s", requestType)
	}

	if err := json.Unmarshal(cassette, result); err != nil {
		return fmt.Errorf("failed to unmarshal cassette into result: %w", err)
	}

	return nil
}

func (crc *cassetteRestClient) IsMainnet() bool {
	return true
}

// ===== Suite definition =====

var cassetteUser = common.HexToAddress("0x5e9ee1089755c3435139848e47e6635505d5a13a")

type InfoCassetteSuite struct {
	client *cassetteRestClient
	info   *Info
}

func (s *InfoCassetteSuite) PreTest(t *td.T, testName string) error {
	s.client = newCassetteRestClient(t.TB, map[string]string{
		"allMids":                "all_mids",
		"meta":                   "meta",
		"spotMeta":               "spot_meta",
		"clearinghouseState":     "clearinghouse_state",
		"spotClearinghouseState": "spot_clearinghouse_state",
	})
	s.info = NewWithClient(s.client)
	return nil
}

func TestInfoCassetteSuite(t *testing.T) {
	tdsuite.Run(t, &InfoCassetteSuite{})
}

// ===== Cassette-Based Tests as suite methods =====

func (s *InfoCassetteSuite) TestAllMids(assert, require *td.T) {
	mids, err := s.info.AllMids(context.Background(), "")
	require.CmpNoError(err)

	assert.Cmp(mids["BTC"], "30135.0")
	assert.Cmp(mids["ETH"], "1903.95")
	assert.ContainsKey(mids, "ATOM")
	assert.ContainsKey(mids, "MATIC")
	assert.ContainsKey(mids, "@142")
	assert.Cmp(s.client.requests, td.Len(1))
}

func (s *InfoCassetteSuite) TestMeta(assert, require *td.T) {
	meta, err := s.info.Meta(context.Background(), "")
	require.CmpNoError(err)

	require.Len(meta.Universe, 5)
	assert.Cmp(meta.Universe[1], AssetInfo{Name: "ETH", SzDecimals: 4, MaxLeverage: 25})
	assert.True(meta.Universe[3].IsDelisted)
}

func (s *InfoCassetteSuite) TestSpotMeta(assert, require *td.T) {
	spot, err := s.info.SpotMeta(context.Background())
	require.CmpNoError(err)

	require.Len(spot.Universe, 3)
	require.Len(spot.Tokens, 4)
	assert.Cmp(spot.Universe[2], td.SStruct(SpotAssetInfo{
		Name:   "@142",
		Tokens: [2]int{3, 0},
		Index:  142,
	}))
	assert.Cmp(spot.Tokens[3].FullName, td.Ptr("Unit Bitcoin"))
	assert.Nil(spot.Tokens[0].FullName)
}

func (s *InfoCassetteSuite) TestUserState(assert, require *td.T) {
	state, err := s.info.UserState(context.Background(), cassetteUser, "")
	require.CmpNoError(err)

	require.Len(state.AssetPositions, 2)
	assert.Cmp(state.MarginSummary.AccountValue, "1182.312496")
	assert.Cmp(state.Withdrawable, "1123.099996")
	assert.Cmp(state.AssetPositions[0].Position.Leverage, Leverage{Type: "cross", Value: 20})
	assert.Nil(state.AssetPositions[0].Position.LiquidationPx)

	szi, ok := state.PositionSize("ATOM")
	assert.True(ok)
	assert.Cmp(szi, "-25.0")

	_, ok = state.PositionSize("BTC")
	assert.False(ok)

	require.Len(s.client.requests, 1)
	assert.Cmp(s.client.requests[0], map[string]any{
		"type": "clearinghouseState",
		"user": cassetteUser.Hex(),
		"dex":  "",
	})
}

func (s *InfoCassetteSuite) TestBalances(assert, require *td.T) {
	balances, err := s.info.Balances(context.Background(), cassetteUser)
	require.CmpNoError(err)

	assert.Cmp(balances.Address, cassetteUser)
	assert.Cmp(balances.Withdrawable, "1123.099996")
	assert.Len(balances.Positions, 2)
	assert.Cmp(balances.Spot, []SpotBalance{
		{Coin: "USDC", Token: 0, Total: "14.625485", Hold: "0.0", EntryNtl: "0.0"},
		{Coin: "PURR", Token: 1, Total: "2000", Hold: "0", EntryNtl: "1234.56"},
	})
}

func (s *InfoCassetteSuite) TestCachedMeta(assert, require *td.T) {
	cache := NewCache(s.info, time.Minute)

	for range 3 {
		meta, err := cache.Meta(context.Background(), "")
		require.CmpNoError(err)
		assert.Len(meta.Universe, 5)
	}
	_, err := cache.SpotMeta(context.Background())
	require.CmpNoError(err)

	assert.Len(s.client.requests, 2)
}

func (s *InfoCassetteSuite) TestMissingCassette(assert, require *td.T) {
	client := newCassetteRestClient(require.TB, map[string]string{"meta": "meta"})
	_, err := NewWithClient(client).AllMids(context.Background(), "")
	assert.CmpError(err)
	assert.Contains(err.Error(), "no cassette for request type allMids")
}
