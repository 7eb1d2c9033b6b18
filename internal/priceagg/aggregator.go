// Package priceagg implements the tiered price lookup: Binance, then OKX,
// then CoinGecko, each asked only for the symbols the previous tier missed,
// served from a short-TTL cache owned by this package alone.
package priceagg

import (
	"context"
	"sync"
	"time"
)

// CacheTTL is the lifetime of a cached price entry, per spec.md §3.
const CacheTTL = 15 * time.Second

// binanceBlacklist lists symbols Binance's US endpoint does not list;
// spec.md §4.7 requires these skip straight to OKX/CoinGecko.
var binanceBlacklist = map[string]bool{"TRX": true, "XRP": true}

// Entry is one cached price observation.
type Entry struct {
	Price     float64
	Timestamp time.Time
}

// TickerTier fetches a batch of uppercase symbols from one upstream
// exchange, returning whatever subset it could price.
type TickerTier interface {
	Name() string
	FetchBatch(ctx context.Context, symbols []string) (map[string]float64, error)
}

// Result is PriceAggregator.Fetch's return shape.
type Result struct {
	Data   map[string]float64
	Failed []string
}

// Aggregator owns the price cache and the ordered tier list.
type Aggregator struct {
	tiers []TickerTier

	mu    sync.RWMutex
	cache map[string]Entry
}

// New builds an Aggregator over the tiers in fallback order (conventionally
// Binance, OKX, CoinGecko).
func New(tiers ...TickerTier) *Aggregator {
	return &Aggregator{tiers: tiers, cache: make(map[string]Entry)}
}

// Fetch resolves prices for the given uppercase symbols, consulting the
// cache first and falling through tiers for the remainder.
func (a *Aggregator) Fetch(ctx context.Context, symbols []string) Result {
	result := Result{Data: make(map[string]float64, len(symbols))}

	missing := make([]string, 0, len(symbols))
	now := time.Now()

	a.mu.RLock()
	for _, sym := range symbols {
		if entry, ok := a.cache[sym]; ok && now.Sub(entry.Timestamp) < CacheTTL {
			result.Data[sym] = entry.Price
		} else {
			missing = append(missing, sym)
		}
	}
	a.mu.RUnlock()

	for _, tier := range a.tiers {
		if len(missing) == 0 {
			break
		}
		candidates := missing
		if tier.Name() == "binance" {
			candidates = filterOut(missing, binanceBlacklist)
		}
		if len(candidates) == 0 {
			continue
		}

		found, err := tier.FetchBatch(ctx, candidates)
		if err != nil || len(found) == 0 {
			continue
		}

		a.mu.Lock()
		for sym, price := range found {
			a.cache[sym] = Entry{Price: price, Timestamp: time.Now()}
			result.Data[sym] = price
		}
		a.mu.Unlock()

		missing = subtractFound(missing, found)
	}

	result.Failed = missing
	return result
}

func filterOut(symbols []string, blacklist map[string]bool) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if !blacklist[s] {
			out = append(out, s)
		}
	}
	return out
}

func subtractFound(symbols []string, found map[string]float64) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := found[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
