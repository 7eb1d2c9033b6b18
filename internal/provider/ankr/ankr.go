// Package ankr implements the Ripple and TON capabilities backed by
// Ankr's public JSON-RPC endpoints, grounded on the original provider's
// ankr_provider.py: rippled-style account_info/server_info/account_tx for
// XRP, and a getTransactions-style call for TON history.
package ankr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/watchwallet/gateway/internal/amount"
	"github.com/watchwallet/gateway/internal/chainerr"
	"github.com/watchwallet/gateway/internal/metrics"
	"github.com/watchwallet/gateway/internal/provider"
	"github.com/watchwallet/gateway/internal/registry"
	"github.com/watchwallet/gateway/internal/rpc"
)

// rippleEpochOffset converts Ripple's epoch (2000-01-01) to Unix seconds.
const rippleEpochOffset = 946684800

const missingAccountBalance = "-0.000000"

// Adapter implements BalanceProvider, HistoryProvider, and FeeProvider for
// Ripple, and BalanceProvider/HistoryProvider for TON.
type Adapter struct {
	transport *rpc.Client
	apiKey    string
	metrics   metrics.GatewayMetrics

	reserveMu        sync.Mutex
	reserveCache     reserveSettings
	reserveFetchedAt time.Time
}

type reserveSettings struct {
	BaseReserve  float64
	OwnerReserve float64
}

var defaultReserve = reserveSettings{BaseReserve: 10.0, OwnerReserve: 2.0}

// resolveReserveSettings fills in the well-known XRP reserve defaults
// whenever server_info reports a zero reserve, which happens when the
// validated_ledger fields are absent from the response.
func resolveReserveSettings(baseReserve, ownerReserve float64) reserveSettings {
	settings := reserveSettings{BaseReserve: baseReserve, OwnerReserve: ownerReserve}
	if settings.BaseReserve == 0 {
		settings.BaseReserve = defaultReserve.BaseReserve
	}
	if settings.OwnerReserve == 0 {
		settings.OwnerReserve = defaultReserve.OwnerReserve
	}
	return settings
}

// New builds an Ankr adapter over the XRP JSON-RPC endpoint keyed by apiKey.
func New(transport *rpc.Client, apiKey string, m metrics.GatewayMetrics) *Adapter {
	return &Adapter{transport: transport, apiKey: apiKey, metrics: m}
}

func (a *Adapter) Name() string { return "ankr" }

func (a *Adapter) xrpURL() string {
	return fmt.Sprintf("https://rpc.ankr.com/xrp_mainnet/%s", a.apiKey)
}

type rippleRPCResponse struct {
	Result json.RawMessage `json:"result"`
}

func (a *Adapter) callRipple(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	body, _ := json.Marshal(map[string]interface{}{"method": method, "params": params})
	start := time.Now()
	resp, err := a.transport.Do(ctx, "POST", a.xrpURL(), map[string]string{"Content-Type": "application/json"}, jsonReader(body), 0)
	success := err == nil && resp.Classification == rpc.Ok
	if a.metrics != nil {
		a.metrics.RecordProviderCall("ripple."+method, time.Since(start), success)
	}
	if err != nil {
		return nil, chainerr.New(chainerr.UpstreamUnavailable, a.Name(), method, err)
	}
	if resp.Classification != rpc.Ok {
		return nil, chainerr.New(chainerr.UpstreamUnavailable, a.Name(), method, fmt.Errorf("status %d", resp.Status))
	}
	var parsed rippleRPCResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, chainerr.New(chainerr.UpstreamLogical, a.Name(), method, err)
	}
	return parsed.Result, nil
}

func (a *Adapter) GetBalance(ctx context.Context, chain registry.ChainKey, address, contract string) (provider.BalanceResult, error) {
	if chain == "ton" {
		return a.getTonBalance(ctx, address)
	}
	return a.getRippleBalance(ctx, address)
}

type rippleAccountInfoResult struct {
	Status      string `json:"status"`
	Error       string `json:"error"`
	LedgerIndex int64  `json:"ledger_index"`
	AccountData struct {
		Balance  string `json:"Balance"`
		Sequence uint64 `json:"Sequence"`
	} `json:"account_data"`
}

// resolveRippleBalance turns a parsed account_info response into a
// BalanceResult. actNotFound (and any other non-success status) means the
// account has never received the base reserve, which is a valid query
// outcome, not a failure, so it gets the missing-account placeholder
// rather than an error.
func resolveRippleBalance(result rippleAccountInfoResult, reserve reserveSettings) provider.BalanceResult {
	if result.Status != "success" {
		return provider.BalanceResult{
			Balance: missingAccountBalance,
			Extra:   map[string]interface{}{"sequence": 0},
		}
	}
	return provider.BalanceResult{
		Balance: amount.ToCanonical(result.AccountData.Balance, 6, true, true),
		Raw:     result.AccountData.Balance,
		Extra: map[string]interface{}{
			"sequence":      result.AccountData.Sequence,
			"ledgerIndex":   result.LedgerIndex,
			"base_reserve":  reserve.BaseReserve,
			"owner_reserve": reserve.OwnerReserve,
		},
	}
}

func (a *Adapter) getRippleBalance(ctx context.Context, address string) (provider.BalanceResult, error) {
	raw, err := a.callRipple(ctx, "account_info", []interface{}{map[string]interface{}{
		"account": address, "strict": true, "ledger_index": "validated",
	}})
	if err != nil {
		return provider.BalanceResult{}, err
	}

	var result rippleAccountInfoResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return provider.BalanceResult{}, chainerr.New(chainerr.UpstreamLogical, a.Name(), "account_info", err)
	}

	if result.Status != "success" {
		return resolveRippleBalance(result, reserveSettings{}), nil
	}
	return resolveRippleBalance(result, a.reserveSettings(ctx)), nil
}

// reserveSettings returns the XRP reserve requirements, cached for one
// hour; on fetch failure it falls back to the well-known defaults rather
// than propagating an error, since a stale reserve estimate is acceptable.
func (a *Adapter) reserveSettings(ctx context.Context) reserveSettings {
	a.reserveMu.Lock()
	if a.reserveCache != (reserveSettings{}) && time.Since(a.reserveFetchedAt) < time.Hour {
		cached := a.reserveCache
		a.reserveMu.Unlock()
		return cached
	}
	a.reserveMu.Unlock()

	raw, err := a.callRipple(ctx, "server_info", []interface{}{map[string]interface{}{}})
	if err != nil {
		return defaultReserve
	}
	var info struct {
		Info struct {
			ValidatedLedger struct {
				ReserveBaseXRP float64 `json:"reserve_base_xrp"`
				ReserveIncXRP  float64 `json:"reserve_inc_xrp"`
			} `json:"validated_ledger"`
		} `json:"info"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return defaultReserve
	}

	settings := resolveReserveSettings(info.Info.ValidatedLedger.ReserveBaseXRP, info.Info.ValidatedLedger.ReserveIncXRP)

	a.reserveMu.Lock()
	a.reserveCache = settings
	a.reserveFetchedAt = time.Now()
	a.reserveMu.Unlock()
	return settings
}

func (a *Adapter) GetHistory(ctx context.Context, chain registry.ChainKey, address, contract string, limit int) ([]provider.Transfer, error) {
	if chain == "ton" {
		return a.getTonHistory(ctx, address, limit)
	}
	return a.getRippleHistory(ctx, address, limit)
}

type rippleTxEntry struct {
	Meta struct {
		TransactionResult string `json:"TransactionResult"`
	} `json:"meta"`
	Tx struct {
		TransactionType string      `json:"TransactionType"`
		Account         string      `json:"Account"`
		Destination     string      `json:"Destination"`
		Amount          interface{} `json:"Amount"`
		Date            int64       `json:"date"`
		Hash            string      `json:"hash"`
	} `json:"tx"`
}

// convertRippleTransaction applies the tesSUCCESS/Payment filter and
// converts Ripple-epoch seconds to Unix milliseconds. ok is false when the
// entry should be dropped: a failed transaction, a non-Payment type, or an
// issued-token (non-XRP) amount, which isn't modeled yet.
func convertRippleTransaction(entry rippleTxEntry) (t provider.Transfer, ok bool) {
	if entry.Meta.TransactionResult != "tesSUCCESS" || entry.Tx.TransactionType != "Payment" {
		return provider.Transfer{}, false
	}
	drops, isXRP := entry.Tx.Amount.(string)
	if !isXRP {
		return provider.Transfer{}, false
	}
	return provider.Transfer{
		TxID:      entry.Tx.Hash,
		From:      entry.Tx.Account,
		To:        entry.Tx.Destination,
		Value:     amount.ToCanonical(drops, 6, true, true),
		Symbol:    "XRP",
		Timestamp: (entry.Tx.Date + rippleEpochOffset) * 1000,
	}, true
}

func (a *Adapter) getRippleHistory(ctx context.Context, address string, limit int) ([]provider.Transfer, error) {
	raw, err := a.callRipple(ctx, "account_tx", []interface{}{map[string]interface{}{
		"account":          address,
		"ledger_index_min": -1,
		"ledger_index_max": -1,
		"limit":            limit,
		"forward":          false,
	}})
	if err != nil {
		return nil, err
	}

	var result struct {
		Transactions []rippleTxEntry `json:"transactions"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, chainerr.New(chainerr.UpstreamLogical, a.Name(), "account_tx", err)
	}

	out := make([]provider.Transfer, 0, len(result.Transactions))
	for _, entry := range result.Transactions {
		t, ok := convertRippleTransaction(entry)
		if !ok {
			continue
		}
		out = append(out, t)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (a *Adapter) GetFee(ctx context.Context, chain registry.ChainKey) (provider.FeeQuote, error) {
	reserve := a.reserveSettings(ctx)
	medium := strconv.FormatFloat(reserve.OwnerReserve, 'f', 6, 64)
	return provider.FeeQuote{Slow: medium, Medium: medium, Fast: medium}, nil
}

type tonAddressInfo struct {
	Result struct {
		Balance string `json:"balance"`
	} `json:"result"`
}

func (a *Adapter) getTonBalance(ctx context.Context, address string) (provider.BalanceResult, error) {
	payload, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0", "method": "getAddressBalance",
		"params": map[string]string{"address": address},
	})
	start := time.Now()
	resp, err := a.transport.Do(ctx, "POST", "https://toncenter.com/api/v2/jsonRPC", map[string]string{"Content-Type": "application/json"}, jsonReader(payload), 0)
	success := err == nil && resp.Classification == rpc.Ok
	if a.metrics != nil {
		a.metrics.RecordProviderCall("ton.getAddressBalance", time.Since(start), success)
	}
	if err != nil || resp.Classification != rpc.Ok {
		return provider.BalanceResult{Balance: amount.Zero}, nil
	}
	var parsed struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return provider.BalanceResult{Balance: amount.Zero}, nil
	}
	return provider.BalanceResult{Balance: amount.ToCanonical(parsed.Result, 9, true, true), Raw: parsed.Result}, nil
}

func (a *Adapter) getTonHistory(ctx context.Context, address string, limit int) ([]provider.Transfer, error) {
	payload, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0", "method": "getTransactions",
		"params": map[string]interface{}{"address": address, "limit": limit},
	})
	start := time.Now()
	resp, err := a.transport.Do(ctx, "POST", "https://toncenter.com/api/v2/jsonRPC", map[string]string{"Content-Type": "application/json"}, jsonReader(payload), 0)
	success := err == nil && resp.Classification == rpc.Ok
	if a.metrics != nil {
		a.metrics.RecordProviderCall("ton.getTransactions", time.Since(start), success)
	}
	if err != nil {
		return nil, chainerr.New(chainerr.UpstreamUnavailable, a.Name(), "getTransactions", err)
	}
	if resp.Classification != rpc.Ok {
		return nil, chainerr.New(chainerr.UpstreamUnavailable, a.Name(), "getTransactions", fmt.Errorf("status %d", resp.Status))
	}

	var parsed struct {
		Result []tonTxEntry `json:"result"`
	}
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, chainerr.New(chainerr.UpstreamLogical, a.Name(), "getTransactions", err)
	}

	out := make([]provider.Transfer, 0, len(parsed.Result))
	for _, tx := range parsed.Result {
		out = append(out, convertTonTransaction(tx, address))
	}
	return out, nil
}

type tonTxEntry struct {
	Hash  string `json:"transaction_id"`
	Utime int64  `json:"utime"`
	InMsg struct {
		Source      string `json:"source"`
		Destination string `json:"destination"`
		Value       string `json:"value"`
	} `json:"in_msg"`
	OutMsgs []struct {
		Destination string `json:"destination"`
		Value       string `json:"value"`
	} `json:"out_msgs"`
}

// convertTonTransaction derives direction from whether the address has
// outgoing messages (send, value summed across all of them) or a nonzero
// incoming message (receive); an address with neither reports a zero value.
func convertTonTransaction(tx tonTxEntry, address string) provider.Transfer {
	t := provider.Transfer{TxID: tx.Hash, Timestamp: tx.Utime * 1000, Symbol: "TON"}

	switch {
	case len(tx.OutMsgs) > 0:
		total := big0()
		for _, out := range tx.OutMsgs {
			total = addDecimalStrings(total, out.Value)
		}
		t.From = address
		t.To = tx.OutMsgs[0].Destination
		t.Value = amount.ToCanonical(total, 9, true, true)
	case tx.InMsg.Value != "" && tx.InMsg.Value != "0":
		from := tx.InMsg.Source
		if from == "" {
			from = "External"
		}
		t.From = from
		t.To = address
		t.Value = amount.ToCanonical(tx.InMsg.Value, 9, true, true)
	default:
		t.Value = amount.Zero
	}
	return t
}

func big0() string { return "0" }

func jsonReader(b []byte) io.Reader { return bytes.NewReader(b) }

func addDecimalStrings(a, b string) string {
	an, aerr := strconv.ParseUint(a, 10, 64)
	bn, berr := strconv.ParseUint(b, 10, 64)
	if aerr != nil || berr != nil {
		return a
	}
	return strconv.FormatUint(an+bn, 10)
}
