// Package tickers implements priceagg.TickerTier over Binance, OKX, and
// CoinGecko, the fallback order spec.md §4.7 names.
package tickers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/watchwallet/gateway/internal/rpc"
)

// Binance implements priceagg.TickerTier over Binance's public ticker API.
type Binance struct {
	transport *rpc.Client
}

// NewBinance builds a Binance ticker tier.
func NewBinance(transport *rpc.Client) *Binance {
	return &Binance{transport: transport}
}

func (b *Binance) Name() string { return "binance" }

// FetchBatch requests the full ticker table once and filters client-side —
// Binance has no batch-by-symbol endpoint, and one full-table GET is cheaper
// than N single-symbol calls for anything but a tiny symbol set.
func (b *Binance) FetchBatch(ctx context.Context, symbols []string) (map[string]float64, error) {
	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}

	resp, err := b.transport.Do(ctx, "GET", "https://api.binance.com/api/v3/ticker/price", nil, nil, 0)
	if err != nil || resp.Classification != rpc.Ok {
		return nil, fmt.Errorf("binance: fetch failed: %w", err)
	}

	var rows []struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(resp.Body, &rows); err != nil {
		return nil, fmt.Errorf("binance: decode failed: %w", err)
	}

	out := make(map[string]float64, len(symbols))
	for _, row := range rows {
		const quote = "USDT"
		if len(row.Symbol) <= len(quote) || row.Symbol[len(row.Symbol)-len(quote):] != quote {
			continue
		}
		base := row.Symbol[:len(row.Symbol)-len(quote)]
		if !wanted[base] {
			continue
		}
		price, err := strconv.ParseFloat(row.Price, 64)
		if err != nil {
			continue
		}
		out[base] = price
	}
	return out, nil
}
