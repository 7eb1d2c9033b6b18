// Package trongrid implements Tron's account-resource (energy/bandwidth)
// capability over the TronGrid REST API. Balance, history, and broadcast
// for Tron are owned by the tatum adapter; this package exists solely
// for the accountResource endpoint's energy/bandwidth numbers, which
// Tatum's account endpoint does not surface.
package trongrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/watchwallet/gateway/internal/chainerr"
	"github.com/watchwallet/gateway/internal/rpc"
)

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

const baseURL = "https://api.trongrid.io"

// Adapter implements Tron's ResourceProvider capability.
type Adapter struct {
	transport *rpc.Client
	apiKey    string
}

// New builds a trongrid adapter; apiKey is sent as TRON-PRO-API-KEY when set.
func New(transport *rpc.Client, apiKey string) *Adapter {
	return &Adapter{transport: transport, apiKey: apiKey}
}

func (a *Adapter) Name() string { return "trongrid" }

func (a *Adapter) headers() map[string]string {
	h := map[string]string{"Accept": "application/json"}
	if a.apiKey != "" {
		h["TRON-PRO-API-KEY"] = a.apiKey
	}
	return h
}

// GetResource fetches bandwidth and energy figures via getaccountresource,
// flattening the upstream's freeNetLimit/NetLimit/EnergyLimit fields into a
// single map keyed the way the canonical accountResource response names
// them (spec §6).
func (a *Adapter) GetResource(ctx context.Context, address string) (map[string]interface{}, error) {
	rawURL := fmt.Sprintf("%s/wallet/getaccountresource", baseURL)
	body, _ := json.Marshal(map[string]interface{}{"address": address, "visible": true})
	resp, err := a.transport.Do(ctx, "POST", rawURL, a.headers(), bytesReader(body), 0)
	if err != nil {
		return nil, chainerr.New(chainerr.UpstreamUnavailable, a.Name(), "accountresource", err)
	}
	if resp.Classification != rpc.Ok {
		return nil, chainerr.New(chainerr.UpstreamUnavailable, a.Name(), "accountresource", fmt.Errorf("status %d", resp.Status))
	}

	var parsed struct {
		FreeNetLimit  int64 `json:"freeNetLimit"`
		FreeNetUsed   int64 `json:"freeNetUsed"`
		NetLimit      int64 `json:"NetLimit"`
		NetUsed       int64 `json:"NetUsed"`
		EnergyLimit   int64 `json:"EnergyLimit"`
		EnergyUsed    int64 `json:"EnergyUsed"`
		TotalNetLimit int64 `json:"TotalNetLimit"`
	}
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, chainerr.New(chainerr.UpstreamLogical, a.Name(), "accountresource", err)
	}

	bandwidth := (parsed.FreeNetLimit - parsed.FreeNetUsed) + (parsed.NetLimit - parsed.NetUsed)
	energy := parsed.EnergyLimit - parsed.EnergyUsed
	return map[string]interface{}{
		"bandwidth":     bandwidth,
		"energy":        energy,
		"netLimit":      parsed.NetLimit,
		"energyLimit":   parsed.EnergyLimit,
		"totalNetLimit": parsed.TotalNetLimit,
	}, nil
}
