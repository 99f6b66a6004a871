// Package ws keeps the latest mid prices from the venue's allMids websocket
// channel so the order pipeline can price without a request per order.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/banky/hl-agent/info"
	"github.com/banky/hl-agent/types"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const (
	defaultPingInterval = 50 * time.Second
	// allMids snapshots on mainnet exceed the library's 32KiB default.
	readLimit = 4 << 20
)

type Config struct {
	BaseURL      string
	Dex          string
	PingInterval time.Duration
	Logger       *zap.Logger
}

// MidsFeed holds the most recent allMids snapshot.
type MidsFeed struct {
	conn         *websocket.Conn
	dex          string
	pingInterval time.Duration
	logger       *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	mids    map[string]string
	updated time.Time
	err     error

	ready     chan struct{}
	readyOnce sync.Once
}

var _ info.PriceSource = (*MidsFeed)(nil)

// Dial connects to the websocket endpoint under cfg.BaseURL and subscribes to
// allMids.
func Dial(ctx context.Context, cfg Config) (*MidsFeed, error) {
	wsURL, err := websocketURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pingInterval := cfg.PingInterval
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to websocket: %w", err)
	}
	conn.SetReadLimit(readLimit)

	sub, _ := json.Marshal(subscribeRequest{
		Method:       "subscribe",
		Subscription: allMidsSubscription{Type: channelAllMids, Dex: cfg.Dex},
	})
	if err := conn.Write(ctx, websocket.MessageText, sub); err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return nil, fmt.Errorf("subscribe allMids: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	f := &MidsFeed{
		conn:         conn,
		dex:          cfg.Dex,
		pingInterval: pingInterval,
		logger:       logger.With(zap.String("url", wsURL)),
		cancel:       cancel,
		ready:        make(chan struct{}),
	}

	f.wg.Add(2)
	go f.readLoop(loopCtx)
	go f.pingLoop(loopCtx)

	f.logger.Info("subscribed to allMids", zap.String("dex", cfg.Dex))
	return f, nil
}

func websocketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL %q: %w", baseURL, err)
	}

	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = path.Join("/", u.Path, "ws")

	return u.String(), nil
}

// AllMids returns a copy of the latest snapshot. It fails with
// types.ErrPriceUnavailable before the first snapshot arrives, after the
// stream has failed, or for a dex the feed is not subscribed to.
func (f *MidsFeed) AllMids(ctx context.Context, dex string) (map[string]string, error) {
	if dex != f.dex {
		return nil, types.Errorf(
			types.KindPriceUnavailable,
			"mids feed is subscribed to dex %q, not %q",
			f.dex,
			dex,
		)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.err != nil {
		return nil, types.Errorf(types.KindPriceUnavailable, "mids feed stopped: %w", f.err)
	}
	if f.mids == nil {
		return nil, types.Errorf(types.KindPriceUnavailable, "no allMids snapshot received yet")
	}
	return maps.Clone(f.mids), nil
}

// Updated is the receive time of the latest snapshot.
func (f *MidsFeed) Updated() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.updated
}

// WaitReady blocks until the first snapshot arrives or ctx is done.
func (f *MidsFeed) WaitReady(ctx context.Context) error {
	select {
	case <-f.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loops and closes the connection.
func (f *MidsFeed) Close() error {
	f.cancel()
	err := f.conn.Close(websocket.StatusNormalClosure, "closing")
	f.wg.Wait()

	f.fail(errors.New("feed closed"))
	return err
}

func (f *MidsFeed) fail(err error) {
	f.mu.Lock()
	if f.err == nil {
		f.err = err
	}
	f.mu.Unlock()
}

func (f *MidsFeed) readLoop(ctx context.Context) {
	defer f.wg.Done()

	for {
		_, data, err := f.conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				f.logger.Debug("websocket read loop stopped")
			} else {
				f.logger.Error("websocket read error", zap.Error(err))
			}
			f.fail(err)
			return
		}

		f.handleMessage(data)
	}
}

func (f *MidsFeed) handleMessage(data []byte) {
	if string(data) == connectionEstablished {
		f.logger.Debug("websocket connection established")
		return
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		f.logger.Warn("failed to unmarshal ws message", zap.Error(err))
		return
	}

	switch env.Channel {
	case channelAllMids:
		var msg AllMidsMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			f.logger.Warn("failed to unmarshal allMids message", zap.Error(err))
			return
		}

		f.mu.Lock()
		f.mids = msg.Mids
		f.updated = time.Now()
		f.mu.Unlock()

		f.readyOnce.Do(func() { close(f.ready) })

	case channelPong, channelSubscription:
	case channelError:
		f.logger.Error("websocket error message", zap.ByteString("data", env.Data))
	default:
		f.logger.Debug("ignoring websocket channel", zap.String("channel", env.Channel))
	}
}

// pingLoop sends periodic pings to keep the connection alive
func (f *MidsFeed) pingLoop(ctx context.Context) {
	defer f.wg.Done()

	ticker := time.NewTicker(f.pingInterval)
	defer ticker.Stop()

	ping, _ := json.Marshal(pingRequest{Method: "ping"})
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := f.conn.Write(writeCtx, websocket.MessageText, ping)
			cancel()

			if err != nil {
				f.logger.Warn("websocket ping error", zap.Error(err))
				return
			}
		}
	}
}
