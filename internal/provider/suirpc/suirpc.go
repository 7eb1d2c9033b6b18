// Package suirpc implements Sui's balance, history, UTXO-as-coins, fee,
// and broadcast capabilities over Sui's JSON-RPC surface, using
// rpc.JSONRPCHTTPClient for round-robin failover across fullnode mirrors
// and rpc.MetricsJSONRPCClient (when metrics are configured) to record
// per-call latency/success the same way the teacher's own RPC client does.
package suirpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/watchwallet/gateway/internal/amount"
	"github.com/watchwallet/gateway/internal/chainerr"
	"github.com/watchwallet/gateway/internal/metrics"
	"github.com/watchwallet/gateway/internal/provider"
	"github.com/watchwallet/gateway/internal/registry"
	"github.com/watchwallet/gateway/internal/rpc"
)

const suiCoinType = "0x2::sui::SUI"

// Adapter implements the Sui capabilities over a JSON-RPC transport.
type Adapter struct {
	client rpc.JSONRPCClient
	logger *zap.Logger
}

// New builds a suirpc adapter over the given fullnode endpoints, with
// endpoint health tracking and failover handled by JSONRPCHTTPClient.
func New(endpoints []string, logger *zap.Logger, m metrics.GatewayMetrics, timeout time.Duration) *Adapter {
	var client rpc.JSONRPCClient
	if c, err := rpc.NewJSONRPCHTTPClient(endpoints, timeout, rpc.NewSimpleHealthTracker()); err == nil {
		client = c
		if m != nil {
			client = rpc.NewMetricsJSONRPCClient(client, m)
		}
	} else if logger != nil {
		logger.Warn("suirpc: no endpoints configured", zap.Error(err))
	}
	return &Adapter{client: client, logger: logger}
}

func (a *Adapter) Name() string { return "sui-rpc" }

func (a *Adapter) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	if a.client == nil {
		return chainerr.New(chainerr.UpstreamUnavailable, a.Name(), method, fmt.Errorf("no rpc endpoints configured"))
	}
	raw, err := a.client.Call(ctx, method, params)
	if err != nil {
		return chainerr.New(chainerr.UpstreamUnavailable, a.Name(), method, err)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (a *Adapter) GetBalance(ctx context.Context, chain registry.ChainKey, address, contract string) (provider.BalanceResult, error) {
	coinType := suiCoinType
	if contract != "" {
		coinType = contract
	}
	var res struct {
		TotalBalance string `json:"totalBalance"`
	}
	if err := a.call(ctx, "suix_getBalance", []interface{}{address, coinType}, &res); err != nil {
		return provider.BalanceResult{Balance: "-0.000000"}, nil
	}
	return provider.BalanceResult{Balance: amount.ToCanonical(res.TotalBalance, 9, true, true), Raw: res.TotalBalance}, nil
}

// GetUTXOs returns Sui's SUI coin objects, each carrying the object
// identity a signer needs to build a PTB later.
func (a *Adapter) GetUTXOs(ctx context.Context, chain registry.ChainKey, address, totalValue string) ([]provider.UTXO, error) {
	var res struct {
		Data []struct {
			CoinObjectID string `json:"coinObjectId"`
			Version      string `json:"version"`
			Digest       string `json:"digest"`
			Balance      string `json:"balance"`
		} `json:"data"`
	}
	if err := a.call(ctx, "suix_getCoins", []interface{}{address, suiCoinType}, &res); err != nil {
		return nil, err
	}
	out := make([]provider.UTXO, 0, len(res.Data))
	for _, c := range res.Data {
		out = append(out, provider.UTXO{
			TxHash: c.CoinObjectID,
			Value:  amount.ToCanonical(c.Balance, 9, true, true),
			Extra: map[string]interface{}{
				"objectId":     c.CoinObjectID,
				"version":      c.Version,
				"objectDigest": c.Digest,
			},
		})
	}
	return out, nil
}

type suiTxBlock struct {
	Digest        string `json:"digest"`
	TimestampMs   string `json:"timestampMs"`
	BalanceChanges []struct {
		Owner struct {
			AddressOwner string `json:"AddressOwner"`
		} `json:"owner"`
		CoinType string `json:"coinType"`
		Amount   string `json:"amount"`
	} `json:"balanceChanges"`
}

// GetHistory merges the FromAddress and ToAddress transaction-block
// queries by digest, sorts by timestamp descending, and derives each
// entry's direction from the caller's signed SUI balance change.
func (a *Adapter) GetHistory(ctx context.Context, chain registry.ChainKey, address, contract string, limit int) ([]provider.Transfer, error) {
	from, err := a.queryTxBlocks(ctx, "FromAddress", address, limit)
	if err != nil {
		return nil, err
	}
	to, err := a.queryTxBlocks(ctx, "ToAddress", address, limit)
	if err != nil {
		return nil, err
	}

	byDigest := make(map[string]suiTxBlock, len(from)+len(to))
	for _, tx := range from {
		byDigest[tx.Digest] = tx
	}
	for _, tx := range to {
		byDigest[tx.Digest] = tx
	}

	merged := make([]suiTxBlock, 0, len(byDigest))
	for _, tx := range byDigest {
		merged = append(merged, tx)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].TimestampMs > merged[j].TimestampMs })
	if len(merged) > limit {
		merged = merged[:limit]
	}

	out := make([]provider.Transfer, 0, len(merged))
	for _, tx := range merged {
		t := provider.Transfer{TxID: tx.Digest, Symbol: "SUI"}
		var ts int64
		fmt.Sscanf(tx.TimestampMs, "%d", &ts)
		t.Timestamp = ts

		for _, change := range tx.BalanceChanges {
			if change.CoinType != suiCoinType || change.Owner.AddressOwner != address {
				continue
			}
			var signedAmount int64
			fmt.Sscanf(change.Amount, "%d", &signedAmount)
			if signedAmount > 0 {
				t.To = address
				t.Value = amount.ToCanonical(change.Amount, 9, true, true)
			} else if signedAmount < 0 {
				t.From = address
				for _, other := range tx.BalanceChanges {
					if other.CoinType == suiCoinType && other.Owner.AddressOwner != address {
						var otherAmount int64
						fmt.Sscanf(other.Amount, "%d", &otherAmount)
						if otherAmount > 0 {
							t.To = other.Owner.AddressOwner
							break
						}
					}
				}
				abs := -signedAmount
				t.Value = amount.ToCanonical(fmt.Sprintf("%d", abs), 9, true, true)
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func (a *Adapter) queryTxBlocks(ctx context.Context, filterKey, address string, limit int) ([]suiTxBlock, error) {
	var res struct {
		Data []struct {
			Digest    string `json:"digest"`
			Timestamp string `json:"timestampMs"`
		} `json:"data"`
	}
	query := map[string]interface{}{
		"filter":  map[string]string{filterKey: address},
		"options": map[string]bool{"showBalanceChanges": true},
	}
	if err := a.call(ctx, "suix_queryTransactionBlocks", []interface{}{query, nil, limit, true}, &res); err != nil {
		return nil, err
	}

	out := make([]suiTxBlock, 0, len(res.Data))
	for _, entry := range res.Data {
		var block struct {
			BalanceChanges []struct {
				Owner struct {
					AddressOwner string `json:"AddressOwner"`
				} `json:"owner"`
				CoinType string `json:"coinType"`
				Amount   string `json:"amount"`
			} `json:"balanceChanges"`
		}
		_ = a.call(ctx, "sui_getTransactionBlock", []interface{}{entry.Digest, map[string]bool{"showBalanceChanges": true}}, &block)
		out = append(out, suiTxBlock{Digest: entry.Digest, TimestampMs: entry.Timestamp, BalanceChanges: block.BalanceChanges})
	}
	return out, nil
}

func (a *Adapter) GetFee(ctx context.Context, chain registry.ChainKey) (provider.FeeQuote, error) {
	var price string
	if err := a.call(ctx, "suix_getReferenceGasPrice", nil, &price); err != nil {
		return provider.FeeQuote{}, err
	}
	return provider.FeeQuote{Slow: price, Medium: price, Fast: price}, nil
}

func (a *Adapter) GetLatestBlock(ctx context.Context, chain registry.ChainKey) (map[string]interface{}, error) {
	var seq string
	if err := a.call(ctx, "sui_getLatestCheckpointSequenceNumber", nil, &seq); err != nil {
		return nil, err
	}
	return map[string]interface{}{"checkpoint": seq}, nil
}

// Broadcast submits Sui's hybrid {txBytes,signature} payload via
// sui_executeTransactionBlock; the caller packs both fields into the
// hex-decoded JSON object passed as txHex.
func (a *Adapter) Broadcast(ctx context.Context, chain registry.ChainKey, txHex string) (string, error) {
	var payload struct {
		TxBytes   string `json:"txBytes"`
		Signature string `json:"signature"`
	}
	if err := json.Unmarshal([]byte(txHex), &payload); err != nil {
		return "", chainerr.New(chainerr.BadRequest, a.Name(), "broadcast", err)
	}

	var res struct {
		Digest string `json:"digest"`
	}
	params := []interface{}{payload.TxBytes, []string{payload.Signature}, map[string]bool{"showEffects": true}, "WaitForLocalExecution"}
	if err := a.call(ctx, "sui_executeTransactionBlock", params, &res); err != nil {
		return "", err
	}
	return res.Digest, nil
}
