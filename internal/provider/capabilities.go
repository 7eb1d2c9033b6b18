// Package provider defines the capability interfaces adapters implement
// and the Runner that governs admission, spacing, and retry for a single
// upstream provider. Adapters implement only the capability interfaces
// they actually support — the anti-pattern of one monolithic interface
// with most methods as silent no-ops is deliberately not reproduced here.
package provider

import (
	"context"

	"github.com/watchwallet/gateway/internal/registry"
)

// BalanceResult is the canonical shape returned by BalanceProvider. Chains
// with extra state (Ripple sequence/reserves, TON seqno/deployment) set
// Extra with the chain-specific fields; other chains leave it nil.
type BalanceResult struct {
	Balance string
	Raw     string
	Extra   map[string]interface{}
}

// Transfer is the canonical transaction record every HistoryProvider
// returns, newest first.
type Transfer struct {
	TxID      string
	From      string
	To        string
	Value     string
	Symbol    string
	Timestamp int64 // Unix milliseconds
	Status    *int
}

// UTXO is the canonical unspent-output record; Extra carries chain-specific
// fields a signer needs later (BCH scriptPubKey, Sui object id/version/
// digest, Dash scriptPubKey).
type UTXO struct {
	TxHash string
	Index  int
	Value  string
	Script string
	Extra  map[string]interface{}
}

// FeeQuote is a chain's native-unit fee tiers.
type FeeQuote struct {
	Slow, Medium, Fast string
}

// GasEstimate is an EVM-family gas quote.
type GasEstimate struct {
	GasPrice string // wei
	GasLimit string
}

// ResourceResult is Tron's energy/bandwidth account-resource snapshot.
// FeeConstants is populated by the dispatch layer from the chain's
// registered FeeProvider, when one exists, for every chain, not just Tron,
// mirroring the upstream habit of returning
// fee constants alongside whatever resource numbers a chain has.
type ResourceResult struct {
	Resource     map[string]interface{}
	FeeConstants FeeQuote
}

// BalanceProvider resolves an address's balance, optionally scoped to a
// token contract.
type BalanceProvider interface {
	GetBalance(ctx context.Context, chain registry.ChainKey, address, contract string) (BalanceResult, error)
}

// HistoryProvider resolves an address's transaction history, newest first.
type HistoryProvider interface {
	GetHistory(ctx context.Context, chain registry.ChainKey, address, contract string, limit int) ([]Transfer, error)
}

// UTXOProvider resolves an address's unspent outputs.
type UTXOProvider interface {
	GetUTXOs(ctx context.Context, chain registry.ChainKey, address string, totalValue string) ([]UTXO, error)
}

// FeeProvider resolves a chain's current fee tiers.
type FeeProvider interface {
	GetFee(ctx context.Context, chain registry.ChainKey) (FeeQuote, error)
}

// NonceProvider resolves an EVM-family account's pending nonce.
type NonceProvider interface {
	GetNonce(ctx context.Context, chain registry.ChainKey, address string) (uint64, error)
}

// GasProvider resolves an EVM-family gas estimate.
type GasProvider interface {
	EstimateGas(ctx context.Context, chain registry.ChainKey, address, contract string) (GasEstimate, error)
}

// SeqnoProvider resolves a TON wallet contract's sequence number.
type SeqnoProvider interface {
	GetSeqno(ctx context.Context, address string) (seqno uint64, isDeployed bool, err error)
}

// ResourceProvider resolves a Tron account's bandwidth/energy snapshot.
type ResourceProvider interface {
	GetResource(ctx context.Context, address string) (map[string]interface{}, error)
}

// LatestBlockProvider resolves a chain's latest block header.
type LatestBlockProvider interface {
	GetLatestBlock(ctx context.Context, chain registry.ChainKey) (map[string]interface{}, error)
}

// BroadcastProvider submits a signed transaction and returns its chain
// transaction id.
type BroadcastProvider interface {
	Broadcast(ctx context.Context, chain registry.ChainKey, txHex string) (txid string, err error)
}

// TransactionProvider looks a single transaction up by id.
type TransactionProvider interface {
	GetTransaction(ctx context.Context, chain registry.ChainKey, txID string) (Transfer, error)
}

// Adapter is the common handle every capability interface is mixed into;
// adapters embed Name() and implement whichever capability interfaces
// apply. The ChainRouter type-asserts against the capability it needs at
// dispatch time rather than requiring every method up front.
type Adapter interface {
	Name() string
}
