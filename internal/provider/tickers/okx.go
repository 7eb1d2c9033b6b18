package tickers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/watchwallet/gateway/internal/rpc"
)

// OKX implements priceagg.TickerTier over OKX's public market-tickers API.
type OKX struct {
	transport *rpc.Client
}

// NewOKX builds an OKX ticker tier.
func NewOKX(transport *rpc.Client) *OKX {
	return &OKX{transport: transport}
}

func (o *OKX) Name() string { return "okx" }

func (o *OKX) FetchBatch(ctx context.Context, symbols []string) (map[string]float64, error) {
	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}

	resp, err := o.transport.Do(ctx, "GET", "https://www.okx.com/api/v5/market/tickers?instType=SPOT", nil, nil, 0)
	if err != nil || resp.Classification != rpc.Ok {
		return nil, fmt.Errorf("okx: fetch failed: %w", err)
	}

	var envelope struct {
		Data []struct {
			InstID string `json:"instId"`
			Last   string `json:"last"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("okx: decode failed: %w", err)
	}

	out := make(map[string]float64, len(symbols))
	for _, row := range envelope.Data {
		const suffix = "-USDT"
		if len(row.InstID) <= len(suffix) || row.InstID[len(row.InstID)-len(suffix):] != suffix {
			continue
		}
		base := row.InstID[:len(row.InstID)-len(suffix)]
		if !wanted[base] {
			continue
		}
		price, err := strconv.ParseFloat(row.Last, 64)
		if err != nil {
			continue
		}
		out[base] = price
	}
	return out, nil
}
