// Package evmrpc implements a generic EVM JSON-RPC adapter over
// ethclient.Client for calls served by a plain node RPC rather than an
// Etherscan-style explorer. The composition root registers it for nonce,
// gas and fee on Ethereum, BSC, Polygon, Avalanche C-Chain, Arbitrum and
// Arbitrum Nova. Balance reads reuse the
// same manual ABI-encoded balanceOf calldata pattern the teacher's own
// BSC scanner uses for token balances.
package evmrpc

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/watchwallet/gateway/internal/amount"
	"github.com/watchwallet/gateway/internal/chainerr"
	"github.com/watchwallet/gateway/internal/provider"
	"github.com/watchwallet/gateway/internal/registry"
)

// gasFloorWei holds the per-chain minimum gas price spec.md §4.5 requires
// on top of whatever eth_gasPrice reports.
var gasFloorWei = map[registry.ChainKey]*big.Int{
	"bsc":       big.NewInt(3_000_000_000),  // 3 Gwei
	"avalanche": big.NewInt(25_000_000_000), // 25 Gwei
	"etc":       big.NewInt(1_000_000_000),  // 1 Gwei
}

var l2GasLimitChains = map[registry.ChainKey]bool{
	"arbitrum": true, "arbitrum-nova": true, "optimism": true,
	"base": true, "scroll": true, "linea": true, "blast": true,
}

const nativeGasLimit = 21000
const tokenGasLimit = 100000
const l2NativeGasLimit = 600000

var balanceOfSelector = crypto.Keccak256([]byte("balanceOf(address)"))[:4]

// Adapter wraps a single chain's ethclient connection.
type Adapter struct {
	chain   registry.ChainKey
	client  *ethclient.Client
	logger  *zap.Logger
}

// New dials the first reachable endpoint in endpoints for chain. The
// teacher's BSC scanner dials eagerly at construction time rather than
// lazily on first call; this adapter does the same.
func New(chain registry.ChainKey, endpoints []string, logger *zap.Logger) *Adapter {
	a := &Adapter{chain: chain, logger: logger}
	for _, endpoint := range endpoints {
		client, err := ethclient.Dial(endpoint)
		if err != nil {
			if logger != nil {
				logger.Warn("evmrpc dial failed", zap.String("chain", string(chain)), zap.String("endpoint", endpoint), zap.Error(err))
			}
			continue
		}
		a.client = client
		break
	}
	return a
}

func (a *Adapter) Name() string { return "evm-rpc" }

func (a *Adapter) GetBalance(ctx context.Context, chain registry.ChainKey, address, contract string) (provider.BalanceResult, error) {
	if a.client == nil {
		return provider.BalanceResult{}, chainerr.New(chainerr.UpstreamUnavailable, a.Name(), "balance", fmt.Errorf("no rpc connection"))
	}
	addr := common.HexToAddress(address)

	if contract == "" {
		wei, err := a.client.BalanceAt(ctx, addr, nil)
		if err != nil {
			return provider.BalanceResult{Balance: "-0.000000"}, nil
		}
		return provider.BalanceResult{Balance: amount.ToCanonical(wei.String(), 18, true, true), Raw: wei.String()}, nil
	}

	data := make([]byte, 0, 36)
	data = append(data, balanceOfSelector...)
	padded := make([]byte, 32)
	copy(padded[12:], addr.Bytes())
	data = append(data, padded...)

	contractAddr := common.HexToAddress(contract)
	output, err := a.client.CallContract(ctx, ethereum.CallMsg{To: &contractAddr, Data: data}, nil)
	if err != nil {
		return provider.BalanceResult{Balance: "-0.000000"}, nil
	}
	value := new(big.Int).SetBytes(output)
	return provider.BalanceResult{Balance: amount.ToCanonical(value.String(), 18, true, true), Raw: value.String()}, nil
}

func (a *Adapter) GetNonce(ctx context.Context, chain registry.ChainKey, address string) (uint64, error) {
	if a.client == nil {
		return 0, chainerr.New(chainerr.UpstreamUnavailable, a.Name(), "nonce", fmt.Errorf("no rpc connection"))
	}
	nonce, err := a.client.PendingNonceAt(ctx, common.HexToAddress(address))
	if err != nil {
		return 0, chainerr.New(chainerr.UpstreamUnavailable, a.Name(), "nonce", err)
	}
	return nonce, nil
}

func (a *Adapter) EstimateGas(ctx context.Context, chain registry.ChainKey, address, contract string) (provider.GasEstimate, error) {
	if a.client == nil {
		return provider.GasEstimate{}, chainerr.New(chainerr.UpstreamUnavailable, a.Name(), "gas", fmt.Errorf("no rpc connection"))
	}
	gasPrice, err := a.client.SuggestGasPrice(ctx)
	if err != nil {
		return provider.GasEstimate{}, chainerr.New(chainerr.UpstreamUnavailable, a.Name(), "gas", err)
	}
	if floor, ok := gasFloorWei[a.chain]; ok && gasPrice.Cmp(floor) < 0 {
		gasPrice = floor
	}

	limit := nativeGasLimit
	switch {
	case contract != "":
		limit = tokenGasLimit
	case l2GasLimitChains[a.chain]:
		limit = l2NativeGasLimit
	}
	return provider.GasEstimate{GasPrice: gasPrice.String(), GasLimit: strconv.Itoa(limit)}, nil
}

func (a *Adapter) GetFee(ctx context.Context, chain registry.ChainKey) (provider.FeeQuote, error) {
	gas, err := a.EstimateGas(ctx, chain, "", "")
	if err != nil {
		return provider.FeeQuote{}, err
	}
	return provider.FeeQuote{Slow: gas.GasPrice, Medium: gas.GasPrice, Fast: gas.GasPrice}, nil
}

func (a *Adapter) Broadcast(ctx context.Context, chain registry.ChainKey, txHex string) (string, error) {
	if a.client == nil {
		return "", chainerr.New(chainerr.UpstreamUnavailable, a.Name(), "broadcast", fmt.Errorf("no rpc connection"))
	}
	raw, err := hex.DecodeString(amount.StripHexPrefix(txHex))
	if err != nil {
		return "", chainerr.New(chainerr.BadRequest, a.Name(), "broadcast", err)
	}
	var tx types.Transaction
	if err := tx.UnmarshalBinary(raw); err != nil {
		return "", chainerr.New(chainerr.BadRequest, a.Name(), "broadcast", err)
	}
	if err := a.client.SendTransaction(ctx, &tx); err != nil {
		return "", chainerr.New(chainerr.UpstreamUnavailable, a.Name(), "broadcast", err)
	}
	return tx.Hash().Hex(), nil
}

