// Package toncenter implements TON's seqno and broadcast capabilities over
// TonCenter's v2 JSON-RPC. Balance and history are deliberately not
// implemented here — Ankr owns both (registerAnkr), grounded on its own
// TON proxy endpoint.
package toncenter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/watchwallet/gateway/internal/chainerr"
	"github.com/watchwallet/gateway/internal/registry"
	"github.com/watchwallet/gateway/internal/rpc"
)

const baseURL = "https://toncenter.com/api/v2/jsonRPC"

// Adapter implements TON's Seqno/Broadcast capabilities.
type Adapter struct {
	transport *rpc.Client
	apiKey    string
}

// New builds a toncenter adapter; apiKey is sent as the X-API-Key header
// when non-empty, per TonCenter's higher-rate-limit tier.
func New(transport *rpc.Client, apiKey string) *Adapter {
	return &Adapter{transport: transport, apiKey: apiKey}
}

func (a *Adapter) Name() string { return "toncenter" }

func (a *Adapter) headers() map[string]string {
	h := map[string]string{"Content-Type": "application/json"}
	if a.apiKey != "" {
		h["X-API-Key"] = a.apiKey
	}
	return h
}

func (a *Adapter) call(ctx context.Context, method string, params map[string]interface{}, out interface{}) error {
	payload, _ := json.Marshal(map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	resp, err := a.transport.Do(ctx, "POST", baseURL, a.headers(), strings.NewReader(string(payload)), 0)
	if err != nil {
		return chainerr.New(chainerr.UpstreamUnavailable, a.Name(), method, err)
	}
	if resp.Classification != rpc.Ok {
		return chainerr.New(chainerr.UpstreamUnavailable, a.Name(), method, fmt.Errorf("status %d", resp.Status))
	}
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return chainerr.New(chainerr.UpstreamLogical, a.Name(), method, err)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(envelope.Result, out)
}

// GetSeqno looks the address's state up; inactive accounts are seqno 0 and
// not deployed. Active accounts must resolve seqno via runGetMethod — a
// failure there is fatal rather than defaulting to 0, since 0 would be
// indistinguishable from a legitimately fresh wallet.
func (a *Adapter) GetSeqno(ctx context.Context, address string) (uint64, bool, error) {
	var info struct {
		State string `json:"state"`
	}
	if err := a.call(ctx, "getAddressInformation", map[string]interface{}{"address": address}, &info); err != nil {
		return 0, false, err
	}
	if info.State != "active" {
		return 0, false, nil
	}

	var runResult struct {
		Stack [][]interface{} `json:"stack"`
	}
	params := map[string]interface{}{"address": address, "method": "seqno", "stack": []interface{}{}}
	if err := a.call(ctx, "runGetMethod", params, &runResult); err != nil {
		return 0, true, chainerr.New(chainerr.UpstreamUnavailable, a.Name(), "runGetMethod", err)
	}
	if len(runResult.Stack) == 0 || len(runResult.Stack[0]) < 2 {
		return 0, true, chainerr.New(chainerr.UpstreamLogical, a.Name(), "runGetMethod", fmt.Errorf("empty stack"))
	}

	raw, ok := runResult.Stack[0][1].(string)
	if !ok {
		return 0, true, chainerr.New(chainerr.UpstreamLogical, a.Name(), "runGetMethod", fmt.Errorf("non-string seqno value"))
	}

	var seqno uint64
	var err error
	if strings.HasPrefix(raw, "0x") {
		seqno, err = strconv.ParseUint(raw[2:], 16, 64)
	} else {
		seqno, err = strconv.ParseUint(raw, 10, 64)
	}
	if err != nil {
		return 0, true, chainerr.New(chainerr.UpstreamLogical, a.Name(), "runGetMethod", err)
	}
	return seqno, true, nil
}

func (a *Adapter) Broadcast(ctx context.Context, chain registry.ChainKey, txHex string) (string, error) {
	var res struct {
		Hash string `json:"hash"`
	}
	params := map[string]interface{}{"boc": txHex}
	if err := a.call(ctx, "sendBocReturnHash", params, &res); err != nil {
		return "", err
	}
	if res.Hash == "" {
		return "", chainerr.New(chainerr.UpstreamLogical, a.Name(), "broadcast", fmt.Errorf("no hash in response"))
	}
	return res.Hash, nil
}
