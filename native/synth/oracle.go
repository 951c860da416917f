package synth

import (
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
)

// PriceFeed is the raw price capability, one per registered asset.
type PriceFeed interface {
	LatestRoundData() (RoundData, error)
}

// OracleAdapter wraps the per-asset feeds and enforces the staleness window.
// Quotes are fetched fresh on every call; a single stale read is never
// amortized across multiple logical operations.
type OracleAdapter struct {
	feeds  map[string]PriceFeed
	maxAge time.Duration
	nowFn  func() time.Time
}

// NewOracleAdapter constructs an adapter with the given staleness window.
// Non-positive windows fall back to the default.
func NewOracleAdapter(maxAge time.Duration) *OracleAdapter {
	if maxAge <= 0 {
		maxAge = DefaultMaxQuoteAge
	}
	return &OracleAdapter{
		feeds:  make(map[string]PriceFeed),
		maxAge: maxAge,
		nowFn:  time.Now,
	}
}

// Register binds a feed to an asset symbol. The registry is assembled once at
// construction time and immutable afterward; Register is not safe for use
// after the engine starts serving operations.
func (o *OracleAdapter) Register(asset string, feed PriceFeed) {
	if o == nil || feed == nil {
		return
	}
	symbol := normalizeSymbol(asset)
	if symbol == "" {
		return
	}
	o.feeds[symbol] = feed
}

// SetNowFunc overrides the time source. Intended for tests.
func (o *OracleAdapter) SetNowFunc(now func() time.Time) {
	if o == nil {
		return
	}
	if now == nil {
		now = time.Now
	}
	o.nowFn = now
}

// MaxAge reports the configured staleness window.
func (o *OracleAdapter) MaxAge() time.Duration {
	if o == nil {
		return 0
	}
	return o.maxAge
}

// Quote fetches the latest round for the asset and enforces freshness. A
// quote aged exactly at the window boundary is accepted; one second older is
// rejected with ErrStalePrice. Feed failures propagate unchanged.
func (o *OracleAdapter) Quote(asset string) (RoundData, error) {
	if o == nil {
		return RoundData{}, fmt.Errorf("oracle adapter not configured")
	}
	symbol := normalizeSymbol(asset)
	feed, ok := o.feeds[symbol]
	if !ok {
		return RoundData{}, ErrAssetNotRegistered
	}
	data, err := feed.LatestRoundData()
	if err != nil {
		return RoundData{}, err
	}
	if data.Answer == nil || data.Answer.Sign() <= 0 {
		return RoundData{}, fmt.Errorf("%w: %s", ErrInvalidQuote, symbol)
	}
	if age := o.nowFn().Sub(data.UpdatedAt); age > o.maxAge {
		return RoundData{}, fmt.Errorf("%w: %s quote is %s old", ErrStalePrice, symbol, age)
	}
	return data.Clone(), nil
}

// ManualFeed is an in-memory feed for tests and manual overrides during
// incident response.
type ManualFeed struct {
	mu   sync.RWMutex
	data RoundData
}

// NewManualFeed seeds a feed with an initial price and update time.
func NewManualFeed(price *big.Int, updatedAt time.Time) *ManualFeed {
	feed := &ManualFeed{}
	feed.Update(price, updatedAt)
	return feed
}

// Update records a new round with the supplied price and timestamp.
func (f *ManualFeed) Update(price *big.Int, updatedAt time.Time) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data.RoundID++
	f.data.AnsweredInRound = f.data.RoundID
	f.data.StartedAt = updatedAt
	f.data.UpdatedAt = updatedAt
	if price != nil {
		f.data.Answer = new(big.Int).Set(price)
	} else {
		f.data.Answer = nil
	}
}

// LatestRoundData implements PriceFeed.
func (f *ManualFeed) LatestRoundData() (RoundData, error) {
	if f == nil {
		return RoundData{}, fmt.Errorf("manual feed not configured")
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.data.Clone(), nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
