package tickers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/watchwallet/gateway/internal/rpc"
)

// coinGeckoIDs maps a canonical uppercase symbol to CoinGecko's own coin id,
// since CoinGecko's simple-price endpoint is keyed by id, not ticker symbol.
// Only symbols this gateway's registry actually lists need an entry.
var coinGeckoIDs = map[string]string{
	"BTC":   "bitcoin",
	"LTC":   "litecoin",
	"DOGE":  "dogecoin",
	"BCH":   "bitcoin-cash",
	"DASH":  "dash",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"MATIC": "matic-network",
	"AVAX":  "avalanche-2",
	"ETC":   "ethereum-classic",
	"SOL":   "solana",
	"TON":   "the-open-network",
	"XRP":   "ripple",
	"TRX":   "tron",
	"SUI":   "sui",
	"USDT":  "tether",
	"USDC":  "usd-coin",
}

// CoinGecko implements priceagg.TickerTier over CoinGecko's simple-price
// endpoint, the last tier in the fallback order — it covers symbols neither
// Binance nor OKX list (notably TRX and XRP, per spec.md §4.7).
type CoinGecko struct {
	transport *rpc.Client
}

// NewCoinGecko builds a CoinGecko ticker tier.
func NewCoinGecko(transport *rpc.Client) *CoinGecko {
	return &CoinGecko{transport: transport}
}

func (c *CoinGecko) Name() string { return "coingecko" }

func (c *CoinGecko) FetchBatch(ctx context.Context, symbols []string) (map[string]float64, error) {
	idToSymbol := make(map[string]string, len(symbols))
	ids := make([]string, 0, len(symbols))
	for _, s := range symbols {
		id, ok := coinGeckoIDs[s]
		if !ok {
			continue
		}
		idToSymbol[id] = s
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	rawURL := fmt.Sprintf("https://api.coingecko.com/api/v3/simple/price?ids=%s&vs_currencies=usd",
		url.QueryEscape(strings.Join(ids, ",")))
	resp, err := c.transport.Do(ctx, "GET", rawURL, nil, nil, 0)
	if err != nil || resp.Classification != rpc.Ok {
		return nil, fmt.Errorf("coingecko: fetch failed: %w", err)
	}

	var parsed map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, fmt.Errorf("coingecko: decode failed: %w", err)
	}

	out := make(map[string]float64, len(parsed))
	for id, v := range parsed {
		sym, ok := idToSymbol[id]
		if !ok {
			continue
		}
		out[sym] = v.USD
	}
	return out, nil
}
