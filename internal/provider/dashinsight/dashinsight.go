// Package dashinsight implements Dash balance/history/UTXO/broadcast over
// a public Insight API instance, the block-explorer REST convention Dash
// and several Bitcoin forks share.
package dashinsight

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/watchwallet/gateway/internal/amount"
	"github.com/watchwallet/gateway/internal/chainerr"
	"github.com/watchwallet/gateway/internal/provider"
	"github.com/watchwallet/gateway/internal/registry"
	"github.com/watchwallet/gateway/internal/rpc"
)

const baseURL = "https://insight.dash.org/insight-api"

// Adapter implements Dash's Insight-backed capabilities.
type Adapter struct {
	transport *rpc.Client
}

// New builds a dashinsight adapter.
func New(transport *rpc.Client) *Adapter {
	return &Adapter{transport: transport}
}

func (a *Adapter) Name() string { return "dash-insight" }

func (a *Adapter) get(ctx context.Context, op, rawURL string, out interface{}) error {
	resp, err := a.transport.Do(ctx, "GET", rawURL, nil, nil, 0)
	if err != nil {
		return chainerr.New(chainerr.UpstreamUnavailable, a.Name(), op, err)
	}
	if resp.Classification != rpc.Ok {
		return chainerr.New(chainerr.UpstreamUnavailable, a.Name(), op, fmt.Errorf("status %d", resp.Status))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Body, out)
}

func (a *Adapter) GetBalance(ctx context.Context, chain registry.ChainKey, address, contract string) (provider.BalanceResult, error) {
	var satoshis int64
	rawURL := fmt.Sprintf("%s/addr/%s/balance", baseURL, address)
	if err := a.get(ctx, "balance", rawURL, &satoshis); err != nil {
		return provider.BalanceResult{Balance: "-0.000000"}, nil
	}
	return provider.BalanceResult{
		Balance: amount.ToCanonical(strconv.FormatInt(satoshis, 10), 8, true, true),
		Raw:     strconv.FormatInt(satoshis, 10),
	}, nil
}

// GetUTXOs preserves scriptPubKey per entry, since a Dash signer needs it
// to build the spending transaction.
func (a *Adapter) GetUTXOs(ctx context.Context, chain registry.ChainKey, address, totalValue string) ([]provider.UTXO, error) {
	var raw []struct {
		TxID         string `json:"txid"`
		Vout         int    `json:"vout"`
		Amount       float64 `json:"amount"`
		ScriptPubKey string `json:"scriptPubKey"`
		Confirmations int   `json:"confirmations"`
	}
	rawURL := fmt.Sprintf("%s/addr/%s/utxo", baseURL, address)
	if err := a.get(ctx, "utxo", rawURL, &raw); err != nil {
		return nil, err
	}
	out := make([]provider.UTXO, 0, len(raw))
	for _, u := range raw {
		out = append(out, provider.UTXO{
			TxHash: u.TxID, Index: u.Vout,
			Value:  strconv.FormatFloat(u.Amount, 'f', 8, 64),
			Script: u.ScriptPubKey,
			Extra:  map[string]interface{}{"confirmations": u.Confirmations},
		})
	}
	return out, nil
}

func (a *Adapter) GetHistory(ctx context.Context, chain registry.ChainKey, address, contract string, limit int) ([]provider.Transfer, error) {
	var res struct {
		Txs []struct {
			TxID string `json:"txid"`
			Time int64  `json:"time"`
			Vin  []struct {
				Addr  string  `json:"addr"`
				Value float64 `json:"value"`
			} `json:"vin"`
			Vout []struct {
				Value           string `json:"value"`
				ScriptPubKey    struct {
					Addresses []string `json:"addresses"`
				} `json:"scriptPubKey"`
			} `json:"vout"`
		} `json:"txs"`
	}
	rawURL := fmt.Sprintf("%s/txs/?address=%s", baseURL, address)
	if err := a.get(ctx, "history", rawURL, &res); err != nil {
		return nil, err
	}

	out := make([]provider.Transfer, 0, len(res.Txs))
	for _, tx := range res.Txs {
		sent, received := 0.0, 0.0
		for _, in := range tx.Vin {
			if in.Addr == address {
				sent += in.Value
			}
		}
		for _, o := range tx.Vout {
			for _, a2 := range o.ScriptPubKey.Addresses {
				if a2 == address {
					v, _ := strconv.ParseFloat(o.Value, 64)
					received += v
				}
			}
		}
		net := received - sent
		t := provider.Transfer{TxID: tx.TxID, Timestamp: tx.Time * 1000, Symbol: "DASH"}
		if net >= 0 {
			t.From, t.To = "", address
		} else {
			t.From, t.To = address, ""
			net = -net
		}
		t.Value = strconv.FormatFloat(net, 'f', 8, 64)
		out = append(out, t)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (a *Adapter) Broadcast(ctx context.Context, chain registry.ChainKey, txHex string) (string, error) {
	body := fmt.Sprintf(`{"rawtx":"%s"}`, amount.StripHexPrefix(txHex))
	resp, err := a.transport.Do(ctx, "POST", baseURL+"/tx/send", map[string]string{"Content-Type": "application/json"}, strings.NewReader(body), 0)
	if err != nil || resp.Classification != rpc.Ok {
		return "", chainerr.New(chainerr.UpstreamUnavailable, a.Name(), "broadcast", err)
	}
	var parsed struct {
		TxID string `json:"txid"`
	}
	if err := json.Unmarshal(resp.Body, &parsed); err != nil || parsed.TxID == "" {
		return "", chainerr.New(chainerr.UpstreamLogical, a.Name(), "broadcast", fmt.Errorf("no txid in response"))
	}
	return parsed.TxID, nil
}
