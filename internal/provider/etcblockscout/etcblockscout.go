// Package etcblockscout implements Ethereum Classic balance/history/
// broadcast via Blockscout's Etherscan-compatible REST API, since ETC has
// no canonical Etherscan-family explorer of its own.
package etcblockscout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/watchwallet/gateway/internal/amount"
	"github.com/watchwallet/gateway/internal/chainerr"
	"github.com/watchwallet/gateway/internal/provider"
	"github.com/watchwallet/gateway/internal/registry"
	"github.com/watchwallet/gateway/internal/rpc"
)

const baseURL = "https://blockscout.com/etc/mainnet/api"

// Adapter implements Balance/History/Broadcast for Ethereum Classic.
type Adapter struct {
	transport *rpc.Client
}

// New builds an etcblockscout adapter.
func New(transport *rpc.Client) *Adapter {
	return &Adapter{transport: transport}
}

func (a *Adapter) Name() string { return "etc-blockscout" }

func (a *Adapter) call(ctx context.Context, params url.Values, out interface{}) error {
	rawURL := baseURL + "?" + params.Encode()
	resp, err := a.transport.Do(ctx, "GET", rawURL, nil, nil, 0)
	if err != nil {
		return chainerr.New(chainerr.UpstreamUnavailable, a.Name(), params.Get("action"), err)
	}
	if resp.Classification != rpc.Ok {
		return chainerr.New(chainerr.UpstreamUnavailable, a.Name(), params.Get("action"), fmt.Errorf("status %d", resp.Status))
	}
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return chainerr.New(chainerr.UpstreamLogical, a.Name(), params.Get("action"), err)
	}
	return json.Unmarshal(envelope.Result, out)
}

func (a *Adapter) GetBalance(ctx context.Context, chain registry.ChainKey, address, contract string) (provider.BalanceResult, error) {
	var params url.Values
	if contract != "" {
		params = url.Values{"module": {"account"}, "action": {"tokenbalance"}, "contractaddress": {contract}, "address": {address}}
	} else {
		params = url.Values{"module": {"account"}, "action": {"balance"}, "address": {address}}
	}
	var raw string
	if err := a.call(ctx, params, &raw); err != nil {
		return provider.BalanceResult{Balance: "-0.000000"}, nil
	}
	return provider.BalanceResult{Balance: amount.ToCanonical(raw, 18, true, true), Raw: raw}, nil
}

func (a *Adapter) GetHistory(ctx context.Context, chain registry.ChainKey, address, contract string, limit int) ([]provider.Transfer, error) {
	params := url.Values{"module": {"account"}, "action": {"txlist"}, "address": {address}, "sort": {"desc"}, "offset": {strconv.Itoa(limit)}, "page": {"1"}}
	var raw []struct {
		Hash      string `json:"hash"`
		From      string `json:"from"`
		To        string `json:"to"`
		Value     string `json:"value"`
		TimeStamp string `json:"timeStamp"`
	}
	if err := a.call(ctx, params, &raw); err != nil {
		return nil, err
	}
	out := make([]provider.Transfer, 0, len(raw))
	for _, tx := range raw {
		ts, _ := strconv.ParseInt(tx.TimeStamp, 10, 64)
		out = append(out, provider.Transfer{
			TxID: tx.Hash, From: tx.From, To: tx.To,
			Value:     amount.ToCanonical(tx.Value, 18, true, true),
			Timestamp: ts * 1000,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
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
