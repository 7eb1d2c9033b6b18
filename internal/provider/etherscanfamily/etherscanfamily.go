// Package etherscanfamily implements the Etherscan-style explorer API
// shared by ETH, Polygon, Arbitrum, and Arbitrum-Nova: balance, history,
// nonce, gas estimate, and raw-transaction broadcast via the `module=`
// query-param convention those explorers all expose.
package etherscanfamily

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/watchwallet/gateway/internal/amount"
	"github.com/watchwallet/gateway/internal/chainerr"
	"github.com/watchwallet/gateway/internal/metrics"
	"github.com/watchwallet/gateway/internal/provider"
	"github.com/watchwallet/gateway/internal/registry"
	"github.com/watchwallet/gateway/internal/rpc"
)

// explorerBase maps a ChainKey to its Etherscan-family explorer's API
// base URL; every one of these explorers uses the same v2-style
// module/action query shape.
var explorerBase = map[registry.ChainKey]string{
	"ethereum":      "https://api.etherscan.io/api",
	"polygon":       "https://api.polygonscan.com/api",
	"arbitrum":      "https://api.arbiscan.io/api",
	"arbitrum-nova": "https://api-nova.arbiscan.io/api",
}

// gasFloorWei is the per-chain minimum gas price floor applied on top of
// whatever the live gasPrice endpoint reports, per spec.md §4.5's EVM gas
// estimate rule. Every Etherscan-family chain here defaults to no floor.
var gasFloorWei = map[registry.ChainKey]int64{}

const nativeGasLimit = 21000
const tokenGasLimit = 100000

// Adapter implements Balance/History/Nonce/Gas/Broadcast for one chain in
// the family; one Adapter instance is constructed per chain.
type Adapter struct {
	transport *rpc.Client
	chain     registry.ChainKey
	apiKey    string
	metrics   metrics.GatewayMetrics
}

// New builds an etherscanfamily adapter scoped to chain.
func New(transport *rpc.Client, chain registry.ChainKey, apiKey string, m metrics.GatewayMetrics) *Adapter {
	return &Adapter{transport: transport, chain: chain, apiKey: apiKey, metrics: m}
}

func (a *Adapter) Name() string { return "etherscan-family" }

func (a *Adapter) call(ctx context.Context, params url.Values, out interface{}) error {
	base, ok := explorerBase[a.chain]
	if !ok {
		return chainerr.New(chainerr.BadRequest, a.Name(), "unsupported chain "+string(a.chain), nil)
	}
	params.Set("apikey", a.apiKey)
	rawURL := base + "?" + params.Encode()

	start := time.Now()
	resp, err := a.transport.Do(ctx, "GET", rawURL, nil, nil, 0)
	success := err == nil && resp.Classification == rpc.Ok
	if a.metrics != nil {
		a.metrics.RecordProviderCall(params.Get("action"), time.Since(start), success)
	}
	if err != nil {
		return chainerr.New(chainerr.UpstreamUnavailable, a.Name(), params.Get("action"), err)
	}
	if resp.Classification != rpc.Ok {
		return chainerr.New(chainerr.UpstreamUnavailable, a.Name(), params.Get("action"), fmt.Errorf("status %d", resp.Status))
	}

	var envelope struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return chainerr.New(chainerr.UpstreamLogical, a.Name(), params.Get("action"), err)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(envelope.Result, out)
}

func (a *Adapter) GetBalance(ctx context.Context, chain registry.ChainKey, address, contract string) (provider.BalanceResult, error) {
	var params url.Values
	decimals := 18
	if contract != "" {
		params = url.Values{"module": {"account"}, "action": {"tokenbalance"}, "contractaddress": {contract}, "address": {address}, "tag": {"latest"}}
	} else {
		params = url.Values{"module": {"account"}, "action": {"balance"}, "address": {address}, "tag": {"latest"}}
	}

	var raw string
	if err := a.call(ctx, params, &raw); err != nil {
		return provider.BalanceResult{Balance: "-0.000000"}, nil
	}
	return provider.BalanceResult{Balance: amount.ToCanonical(raw, decimals, true, true), Raw: raw}, nil
}

func (a *Adapter) GetHistory(ctx context.Context, chain registry.ChainKey, address, contract string, limit int) ([]provider.Transfer, error) {
	decimals := 18
	var params url.Values
	if contract != "" {
		params = url.Values{"module": {"account"}, "action": {"tokentx"}, "contractaddress": {contract}, "address": {address}, "sort": {"desc"}, "offset": {strconv.Itoa(limit)}, "page": {"1"}}
	} else {
		params = url.Values{"module": {"account"}, "action": {"txlist"}, "address": {address}, "sort": {"desc"}, "offset": {strconv.Itoa(limit)}, "page": {"1"}}
	}

	var raw []struct {
		Hash      string `json:"hash"`
		From      string `json:"from"`
		To        string `json:"to"`
		Value     string `json:"value"`
		TimeStamp string `json:"timeStamp"`
		IsError   string `json:"isError"`
	}
	if err := a.call(ctx, params, &raw); err != nil {
		return nil, err
	}

	out := make([]provider.Transfer, 0, len(raw))
	for _, tx := range raw {
		if tx.IsError == "1" {
			continue
		}
		ts, _ := strconv.ParseInt(tx.TimeStamp, 10, 64)
		out = append(out, provider.Transfer{
			TxID:      tx.Hash,
			From:      tx.From,
			To:        tx.To,
			Value:     amount.ToCanonical(tx.Value, decimals, true, true),
			Timestamp: ts * 1000,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (a *Adapter) GetNonce(ctx context.Context, chain registry.ChainKey, address string) (uint64, error) {
	params := url.Values{"module": {"proxy"}, "action": {"eth_getTransactionCount"}, "address": {address}, "tag": {"pending"}}
	var raw string
	if err := a.call(ctx, params, &raw); err != nil {
		return 0, err
	}
	return strconv.ParseUint(amount.StripHexPrefix(raw), 16, 64)
}

func (a *Adapter) EstimateGas(ctx context.Context, chain registry.ChainKey, address, contract string) (provider.GasEstimate, error) {
	params := url.Values{"module": {"proxy"}, "action": {"eth_gasPrice"}}
	var raw string
	if err := a.call(ctx, params, &raw); err != nil {
		return provider.GasEstimate{}, err
	}
	gasPrice, err := strconv.ParseInt(amount.StripHexPrefix(raw), 16, 64)
	if err != nil {
		return provider.GasEstimate{}, chainerr.New(chainerr.UpstreamLogical, a.Name(), "eth_gasPrice", err)
	}
	if floor, ok := gasFloorWei[a.chain]; ok && gasPrice < floor {
		gasPrice = floor
	}

	limit := nativeGasLimit
	if contract != "" {
		limit = tokenGasLimit
	}
	return provider.GasEstimate{GasPrice: strconv.FormatInt(gasPrice, 10), GasLimit: strconv.Itoa(limit)}, nil
}

func (a *Adapter) Broadcast(ctx context.Context, chain registry.ChainKey, txHex string) (string, error) {
	params := url.Values{"module": {"proxy"}, "action": {"eth_sendRawTransaction"}, "hex": {"0x" + amount.StripHexPrefix(txHex)}}
	var raw string
	if err := a.call(ctx, params, &raw); err != nil {
		return "", err
	}
	if raw == "" {
		return "", chainerr.New(chainerr.UpstreamLogical, a.Name(), "broadcast", fmt.Errorf("empty transaction hash"))
	}
	return raw, nil
}
