package exchange

import (
	"sync/atomic"
	"time"
)

// NonceSource hands out millisecond timestamps. Values are strictly
// increasing within one source even when the clock stalls or steps back, so
// two orders signed in the same millisecond never share a nonce.
type NonceSource struct {
	now  func() time.Time
	last atomic.Uint64
}

func NewNonceSource(now func() time.Time) *NonceSource {
	if now == nil {
		now = time.Now
	}
	return &NonceSource{now: now}
}

func (n *NonceSource) Next() uint64 {
	ts := uint64(n.now().UnixMilli())
	for {
		last := n.last.Load()
		next := max(ts, last+1)
		if n.last.CompareAndSwap(last, next) {
			return next
		}
	}
}
