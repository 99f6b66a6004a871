package info

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/banky/hl-agent/rest"
	"github.com/ethereum/go-ethereum/common"
	"github.com/maxatome/go-testdeep/td"
)

// Mock REST client for testing
type mockRestClient struct {
	postFunc func(ctx context.Context, path string, body any, result any) error
}

var _ rest.ClientInterface = (*mockRestClient)(nil)

func (m *mockRestClient) Post(ctx context.Context, path string, body any, result any) error {
	return m.postFunc(ctx, path, body, result)
}

func (m *mockRestClient) IsMainnet() bool { return true }

// respond decodes raw into result the same way the real transport does.
func respond(result any, raw string) error {
	return json.Unmarshal([]byte(raw), result)
}

func TestAllMidsSuccess(t *testing.T) {
	info := NewWithClient(&mockRestClient{
		postFunc: func(ctx context.Context, path string, body any, result any) error {
			if path != "/info" {
				t.Errorf("expected path /info, got %s", path)
			}
			req := body.(map[string]any)
			if req["type"] != "allMids" {
				t.Errorf("expected type allMids, got %v", req["type"])
			}
			return respond(result, `{"BTC":"45000.5","ETH":"2500","@107":"24.1"}`)
		},
	})

	mids, err := info.AllMids(context.Background(), "")
	td.CmpNoError(t, err)
	td.Cmp(t, mids, map[string]string{
		"BTC":  "45000.5",
		"ETH":  "2500",
		"@107": "24.1",
	})
}

func TestMetaDecodesUniverse(t *testing.T) {
	info := NewWithClient(&mockRestClient{
		postFunc: func(ctx context.Context, path string, body any, result any) error {
			req := body.(map[string]any)
			if req["type"] != "meta" {
				t.Errorf("expected type meta, got %v", req["type"])
			}
			return respond(result, `{"universe":[
				{"name":"BTC","szDecimals":5,"maxLeverage":40},
				{"name":"ETH","szDecimals":4,"maxLeverage":25}
			]}`)
		},
	})

	meta, err := info.Meta(context.Background(), "")
	td.CmpNoError(t, err)
	td.Cmp(t, meta.Universe, []AssetInfo{
		{Name: "BTC", SzDecimals: 5, MaxLeverage: 40},
		{Name: "ETH", SzDecimals: 4, MaxLeverage: 25},
	})
}

func TestSpotMetaDecodesTokensAndPairs(t *testing.T) {
	info := NewWithClient(&mockRestClient{
		postFunc: func(ctx context.Context, path string, body any, result any) error {
			return respond(result, `{
				"universe":[{"tokens":[1,0],"name":"PURR/USDC","index":0,"isCanonical":true}],
				"tokens":[
					{"name":"USDC","szDecimals":8,"weiDecimals":8,"index":0,"tokenId":"0x6d","isCanonical":true},
					{"name":"PURR","szDecimals":0,"weiDecimals":5,"index":1,"tokenId":"0xc1","isCanonical":true}
				]}`)
		},
	})

	spot, err := info.SpotMeta(context.Background())
	td.CmpNoError(t, err)
	td.Cmp(t, spot.Universe, []SpotAssetInfo{
		{Name: "PURR/USDC", Tokens: [2]int{1, 0}, Index: 0, IsCanonical: true},
	})
	td.Cmp(t, spot.Tokens, td.Len(2))
	td.Cmp(t, spot.Tokens[1].Name, "PURR")
}

func TestMetaPropagatesTransportError(t *testing.T) {
	boom := &rest.ServerError{StatusCode: 502, Text: "bad gateway"}
	info := NewWithClient(&mockRestClient{
		postFunc: func(ctx context.Context, path string, body any, result any) error {
			return boom
		},
	})

	meta, err := info.Meta(context.Background(), "")
	td.CmpNil(t, meta)

	var serverErr *rest.ServerError
	td.CmpTrue(t, errors.As(err, &serverErr))
	td.Cmp(t, err.Error(), td.Contains("info meta"))
}

func TestBalancesFetchesBothStates(t *testing.T) {
	user := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	info := NewWithClient(&mockRestClient{
		postFunc: func(ctx context.Context, path string, body any, result any) error {
			req := body.(map[string]any)
			if req["user"] != user.Hex() {
				t.Errorf("unexpected user %v", req["user"])
			}
			switch req["type"] {
			case "clearinghouseState":
				return respond(result, `{
					"assetPositions":[{"type":"oneWay","position":{"coin":"ETH","szi":"-0.5"}}],
					"marginSummary":{"accountValue":"1200.5"},
					"withdrawable":"900.1"}`)
			case "spotClearinghouseState":
				return respond(result, `{"balances":[{"coin":"USDC","token":0,"total":"50.0","hold":"0.0"}]}`)
			}
			t.Errorf("unexpected request type %v", req["type"])
			return nil
		},
	})

	balances, err := info.Balances(context.Background(), user)
	td.CmpNoError(t, err)
	td.Cmp(t, balances.Withdrawable, "900.1")
	td.Cmp(t, balances.Margin.AccountValue, "1200.5")
	td.Cmp(t, balances.Spot, []SpotBalance{{Coin: "USDC", Token: 0, Total: "50.0", Hold: "0.0"}})

	state := &UserState{AssetPositions: balances.Positions}
	szi, ok := state.PositionSize("ETH")
	td.CmpTrue(t, ok)
	td.Cmp(t, szi, "-0.5")

	_, ok = state.PositionSize("BTC")
	td.CmpFalse(t, ok)
}

func TestBalancesFailsWhenEitherStateFails(t *testing.T) {
	info := NewWithClient(&mockRestClient{
		postFunc: func(ctx context.Context, path string, body any, result any) error {
			if body.(map[string]any)["type"] == "spotClearinghouseState" {
				return errors.New("connection reset")
			}
			return respond(result, `{}`)
		},
	})

	_, err := info.Balances(context.Background(), common.Address{})
	td.CmpError(t, err)
	td.Cmp(t, err.Error(), td.Contains("connection reset"))
}

// countingSource counts metadata fetches.
type countingSource struct {
	meta atomic.Int32
	spot atomic.Int32
}

func (c *countingSource) Meta(ctx context.Context, dex string) (*Meta, error) {
	c.meta.Add(1)
	return &Meta{Universe: []AssetInfo{{Name: "BTC" + dex}}}, nil
}

func (c *countingSource) SpotMeta(ctx context.Context) (*SpotMeta, error) {
	c.spot.Add(1)
	return &SpotMeta{}, nil
}

func TestCacheServesWithinTTL(t *testing.T) {
	source := &countingSource{}
	cache := NewCache(source, time.Hour)

	ctx := context.Background()
	for range 3 {
		_, err := cache.Meta(ctx, "")
		td.CmpNoError(t, err)
		_, err = cache.SpotMeta(ctx)
		td.CmpNoError(t, err)
	}
	td.Cmp(t, source.meta.Load(), int32(1))
	td.Cmp(t, source.spot.Load(), int32(1))

	// dex keys are cached independently
	meta, err := cache.Meta(ctx, "xyz")
	td.CmpNoError(t, err)
	td.Cmp(t, meta.Universe[0].Name, "BTCxyz")
	td.Cmp(t, source.meta.Load(), int32(2))

	cache.Invalidate()
	_, err = cache.Meta(ctx, "")
	td.CmpNoError(t, err)
	_, err = cache.SpotMeta(ctx)
	td.CmpNoError(t, err)
	td.Cmp(t, source.meta.Load(), int32(3))
	td.Cmp(t, source.spot.Load(), int32(2))
}

func TestCacheRefetchesAfterTTL(t *testing.T) {
	source := &countingSource{}
	cache := NewCache(source, 20*time.Millisecond)

	ctx := context.Background()
	_, err := cache.Meta(ctx, "")
	td.CmpNoError(t, err)
	_, err = cache.SpotMeta(ctx)
	td.CmpNoError(t, err)

	time.Sleep(60 * time.Millisecond)

	_, err = cache.Meta(ctx, "")
	td.CmpNoError(t, err)
	_, err = cache.SpotMeta(ctx)
	td.CmpNoError(t, err)
	td.Cmp(t, source.meta.Load(), int32(2))
	td.Cmp(t, source.spot.Load(), int32(2))
}

func TestCacheZeroTTLAlwaysFetches(t *testing.T) {
	source := &countingSource{}
	cache := NewCache(source, 0)

	for range 2 {
		_, err := cache.Meta(context.Background(), "")
		td.CmpNoError(t, err)
	}
	td.Cmp(t, source.meta.Load(), int32(2))
}
