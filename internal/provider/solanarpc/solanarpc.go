// Package solanarpc implements Solana's balance/history/broadcast
// capabilities over raw JSON-RPC. The "json"-encoding getTransaction
// response spec.md describes mixes legacy (plain base58 string) and
// versioned (account-key object) account-key shapes in the same field,
// which gagliardetto/solana-go's typed transaction structs assume one
// canonical shape for — so the transaction envelope is walked by hand
// here rather than through the SDK's typed decode path; solana-go's
// PublicKeyFromBase58 still validates every address before it is used.
package solanarpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/watchwallet/gateway/internal/amount"
	"github.com/watchwallet/gateway/internal/chainerr"
	"github.com/watchwallet/gateway/internal/provider"
	"github.com/watchwallet/gateway/internal/registry"
	"github.com/watchwallet/gateway/internal/rpc"
)

func bodyReader(b []byte) io.Reader { return bytes.NewReader(b) }

// Adapter implements Solana's BalanceProvider/HistoryProvider/
// BroadcastProvider capabilities.
type Adapter struct {
	transport *rpc.Client
	endpoint  string
}

// New builds a solanarpc adapter against a single JSON-RPC endpoint.
func New(transport *rpc.Client, endpoint string) *Adapter {
	return &Adapter{transport: transport, endpoint: endpoint}
}

func (a *Adapter) Name() string { return "solana-rpc" }

func (a *Adapter) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	payload, _ := json.Marshal(map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	resp, err := a.transport.Do(ctx, "POST", a.endpoint, map[string]string{"Content-Type": "application/json"}, bodyReader(payload), 0)
	if err != nil {
		return chainerr.New(chainerr.UpstreamUnavailable, a.Name(), method, err)
	}
	if resp.Classification != rpc.Ok {
		return chainerr.New(chainerr.UpstreamUnavailable, a.Name(), method, fmt.Errorf("status %d", resp.Status))
	}
	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return chainerr.New(chainerr.UpstreamLogical, a.Name(), method, err)
	}
	if envelope.Error != nil {
		return chainerr.New(chainerr.UpstreamLogical, a.Name(), method, fmt.Errorf("%s", envelope.Error.Message))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(envelope.Result, out)
}

func (a *Adapter) GetBalance(ctx context.Context, chain registry.ChainKey, address, contract string) (provider.BalanceResult, error) {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return provider.BalanceResult{}, chainerr.New(chainerr.BadRequest, a.Name(), "balance", fmt.Errorf("invalid address: %w", err))
	}

	var parsed struct {
		Value uint64 `json:"value"`
	}
	if err := a.call(ctx, "getBalance", []interface{}{address}, &parsed); err != nil {
		return provider.BalanceResult{}, err
	}
	return provider.BalanceResult{
		Balance: lamportsToSol(parsed.Value),
		Raw:     strconv.FormatUint(parsed.Value, 10),
	}, nil
}

// GetHistory fans out one getTransaction call per signature concurrently,
// reassembling results positionally so the output preserves
// getSignaturesForAddress's own newest-first order regardless of which
// fetch finishes first.
func (a *Adapter) GetHistory(ctx context.Context, chain registry.ChainKey, address, contract string, limit int) ([]provider.Transfer, error) {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return nil, chainerr.New(chainerr.BadRequest, a.Name(), "history", fmt.Errorf("invalid address: %w", err))
	}

	var sigs []struct {
		Signature string `json:"signature"`
		BlockTime *int64 `json:"blockTime"`
	}
	opts := map[string]interface{}{"limit": limit}
	if err := a.call(ctx, "getSignaturesForAddress", []interface{}{address, opts}, &sigs); err != nil {
		return nil, err
	}

	results := make([]provider.Transfer, len(sigs))
	found := make([]bool, len(sigs))
	var wg sync.WaitGroup
	for i, s := range sigs {
		wg.Add(1)
		go func(i int, signature string, blockTime *int64) {
			defer wg.Done()
			t, ok := a.fetchTransfer(ctx, address, signature, blockTime)
			if ok {
				results[i] = t
				found[i] = true
			}
		}(i, s.Signature, s.BlockTime)
	}
	wg.Wait()

	out := make([]provider.Transfer, 0, len(results))
	for i, ok := range found {
		if ok {
			out = append(out, results[i])
		}
	}
	return out, nil
}

func (a *Adapter) fetchTransfer(ctx context.Context, address, signature string, blockTime *int64) (provider.Transfer, bool) {
	var tx struct {
		Meta struct {
			PreBalances  []uint64 `json:"preBalances"`
			PostBalances []uint64 `json:"postBalances"`
		} `json:"meta"`
		Transaction struct {
			Message struct {
				AccountKeys []json.RawMessage `json:"accountKeys"`
			} `json:"message"`
		} `json:"transaction"`
	}
	opts := map[string]interface{}{"encoding": "json", "maxSupportedTransactionVersion": 0}
	if err := a.call(ctx, "getTransaction", []interface{}{signature, opts}, &tx); err != nil {
		return provider.Transfer{}, false
	}

	idx := -1
	for i, raw := range tx.Transaction.Message.AccountKeys {
		if accountKeyMatches(raw, address) {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(tx.Meta.PreBalances) || idx >= len(tx.Meta.PostBalances) {
		return provider.Transfer{}, false
	}

	diff := int64(tx.Meta.PostBalances[idx]) - int64(tx.Meta.PreBalances[idx])
	if diff == 0 {
		return provider.Transfer{}, false
	}

	t := provider.Transfer{TxID: signature, Symbol: "SOL"}
	if blockTime != nil {
		t.Timestamp = *blockTime * 1000
	}
	if diff > 0 {
		t.From, t.To = "", address
		t.Value = lamportsToSol(uint64(diff))
	} else {
		t.From = address
		t.To = firstOtherIncreasedAccount(tx.Transaction.Message.AccountKeys, tx.Meta.PreBalances, tx.Meta.PostBalances, idx)
		t.Value = lamportsToSol(uint64(-diff))
	}
	return t, true
}

// Broadcast forwards the base58 signed transaction payload as-is — Solana's
// sendTransaction RPC defaults to base58 encoding for the raw tx param, the
// same form spec.md requires callers to submit for this chain.
func (a *Adapter) Broadcast(ctx context.Context, chain registry.ChainKey, txHex string) (string, error) {
	var signature string
	opts := map[string]interface{}{"encoding": "base58"}
	if err := a.call(ctx, "sendTransaction", []interface{}{txHex, opts}, &signature); err != nil {
		return "", err
	}
	if signature == "" {
		return "", chainerr.New(chainerr.UpstreamLogical, a.Name(), "broadcast", fmt.Errorf("no signature in response"))
	}
	return signature, nil
}

// accountKeyMatches handles both of the shapes spec.md says the "json"
// encoding can return: a bare base58 string, or an object carrying the
// key under "pubkey".
func accountKeyMatches(raw json.RawMessage, address string) bool {
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain == address
	}
	var obj struct {
		Pubkey string `json:"pubkey"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Pubkey == address
	}
	return false
}

func accountKeyString(raw json.RawMessage) string {
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	var obj struct {
		Pubkey string `json:"pubkey"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Pubkey
	}
	return ""
}

func firstOtherIncreasedAccount(keys []json.RawMessage, pre, post []uint64, selfIdx int) string {
	for i, raw := range keys {
		if i == selfIdx || i >= len(pre) || i >= len(post) {
			continue
		}
		if post[i] > pre[i] {
			return accountKeyString(raw)
		}
	}
	return ""
}

func lamportsToSol(lamports uint64) string {
	return amount.ToCanonical(strconv.FormatUint(lamports, 10), 9, true, true)
}
