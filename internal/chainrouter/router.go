// Package chainrouter holds the static (chain, operation) → ordered
// adapter list, built once at composition-root time and passed around by
// reference. It replaces the teacher's lazy sync.Once global singleton
// registry: spec.md §9 calls that pattern a module-load-ordering
// workaround with "no place in a rewrite."
package chainrouter

import (
	"context"
	"fmt"

	"github.com/watchwallet/gateway/internal/provider"
	"github.com/watchwallet/gateway/internal/registry"
)

// Operation names the capability being dispatched.
type Operation string

const (
	OpBalance      Operation = "balance"
	OpHistory      Operation = "history"
	OpUTXO         Operation = "utxo"
	OpFee          Operation = "fee"
	OpNonce        Operation = "nonce"
	OpGas          Operation = "gas"
	OpSeqno        Operation = "seqno"
	OpLatestBlock  Operation = "latest_block"
	OpBroadcast    Operation = "broadcast"
	OpTransaction  Operation = "transaction"
	OpResource     Operation = "resource"
)

// multiTierOperations are the only operations allowed to fall back across
// providers on failure, per spec.md §4.6: balance and price lookups. Every
// other operation surfaces the first provider's classified error because
// transaction state depends on one source of truth.
var multiTierOperations = map[Operation]bool{
	OpBalance: true,
}

type routeKey struct {
	chain registry.ChainKey
	op    Operation
}

// Entry pairs an adapter with the Runner registered for its provider. The
// dispatch functions below call the adapter directly and do not use Runner;
// an adapter that applies admission control (tatum) does so inside its own
// calls.
type Entry struct {
	Adapter provider.Adapter
	Runner  *provider.Runner
}

// Router is the eagerly-built routing table. Construct with New and
// populate with Register before serving any traffic; it is read-only
// after that point and therefore safe for concurrent use without a lock.
type Router struct {
	routes map[routeKey][]Entry
}

// New builds an empty Router. Callers populate it via Register calls from
// the composition root before starting the HTTP server.
func New() *Router {
	return &Router{routes: make(map[routeKey][]Entry)}
}

// Register appends an adapter to the ordered list for (chain, op). Order
// of registration is fallback order.
func (r *Router) Register(chain registry.ChainKey, op Operation, entry Entry) {
	key := routeKey{chain, op}
	r.routes[key] = append(r.routes[key], entry)
}

// Route returns the ordered adapter list for (chain, op).
func (r *Router) Route(chain registry.ChainKey, op Operation) []Entry {
	return r.routes[routeKey{chain, op}]
}

// AllowsFallback reports whether op is permitted to cascade across
// providers on failure.
func AllowsFallback(op Operation) bool {
	return multiTierOperations[op]
}

// ErrNoRoute is returned when no adapter is registered for (chain, op).
type ErrNoRoute struct {
	Chain registry.ChainKey
	Op    Operation
}

func (e *ErrNoRoute) Error() string {
	return fmt.Sprintf("no provider registered for chain=%s op=%s", e.Chain, e.Op)
}

// DispatchBalance walks the ordered adapter list for (chain, balance),
// calling each adapter's GetBalance directly (Entry.Runner is not applied
// here), honoring the fallback-or-not semantics of the operation.
func (r *Router) DispatchBalance(ctx context.Context, chain registry.ChainKey, address, contract string) (provider.BalanceResult, error) {
	entries := r.Route(chain, OpBalance)
	if len(entries) == 0 {
		return provider.BalanceResult{}, &ErrNoRoute{chain, OpBalance}
	}

	var lastErr error
	for _, e := range entries {
		bp, ok := e.Adapter.(provider.BalanceProvider)
		if !ok {
			continue
		}
		result, err := bp.GetBalance(ctx, chain, address, contract)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !AllowsFallback(OpBalance) {
			return provider.BalanceResult{}, err
		}
	}
	if lastErr == nil {
		lastErr = &ErrNoRoute{chain, OpBalance}
	}
	return provider.BalanceResult{}, lastErr
}

// DispatchHistory routes a history lookup to the first HistoryProvider
// registered for chain. History never falls back across providers: a
// partial merge from two sources would misrepresent transaction order.
func (r *Router) DispatchHistory(ctx context.Context, chain registry.ChainKey, address, contract string, limit int) ([]provider.Transfer, error) {
	entries := r.Route(chain, OpHistory)
	if len(entries) == 0 {
		return nil, &ErrNoRoute{chain, OpHistory}
	}
	hp, ok := entries[0].Adapter.(provider.HistoryProvider)
	if !ok {
		return nil, &ErrNoRoute{chain, OpHistory}
	}
	return hp.GetHistory(ctx, chain, address, contract, limit)
}

// DispatchUTXO routes a UTXO-set lookup to the first UTXOProvider
// registered for chain.
func (r *Router) DispatchUTXO(ctx context.Context, chain registry.ChainKey, address, totalValue string) ([]provider.UTXO, error) {
	entries := r.Route(chain, OpUTXO)
	if len(entries) == 0 {
		return nil, &ErrNoRoute{chain, OpUTXO}
	}
	up, ok := entries[0].Adapter.(provider.UTXOProvider)
	if !ok {
		return nil, &ErrNoRoute{chain, OpUTXO}
	}
	return up.GetUTXOs(ctx, chain, address, totalValue)
}

// DispatchFee routes a fee-tier lookup to the first FeeProvider registered
// for chain.
func (r *Router) DispatchFee(ctx context.Context, chain registry.ChainKey) (provider.FeeQuote, error) {
	entries := r.Route(chain, OpFee)
	if len(entries) == 0 {
		return provider.FeeQuote{}, &ErrNoRoute{chain, OpFee}
	}
	fp, ok := entries[0].Adapter.(provider.FeeProvider)
	if !ok {
		return provider.FeeQuote{}, &ErrNoRoute{chain, OpFee}
	}
	return fp.GetFee(ctx, chain)
}

// DispatchNonce routes a nonce lookup to the first NonceProvider
// registered for chain.
func (r *Router) DispatchNonce(ctx context.Context, chain registry.ChainKey, address string) (uint64, error) {
	entries := r.Route(chain, OpNonce)
	if len(entries) == 0 {
		return 0, &ErrNoRoute{chain, OpNonce}
	}
	np, ok := entries[0].Adapter.(provider.NonceProvider)
	if !ok {
		return 0, &ErrNoRoute{chain, OpNonce}
	}
	return np.GetNonce(ctx, chain, address)
}

// DispatchGas routes a gas estimate to the first GasProvider registered
// for chain.
func (r *Router) DispatchGas(ctx context.Context, chain registry.ChainKey, address, contract string) (provider.GasEstimate, error) {
	entries := r.Route(chain, OpGas)
	if len(entries) == 0 {
		return provider.GasEstimate{}, &ErrNoRoute{chain, OpGas}
	}
	gp, ok := entries[0].Adapter.(provider.GasProvider)
	if !ok {
		return provider.GasEstimate{}, &ErrNoRoute{chain, OpGas}
	}
	return gp.EstimateGas(ctx, chain, address, contract)
}

// DispatchSeqno routes a TON seqno lookup to the first SeqnoProvider
// registered for chain.
func (r *Router) DispatchSeqno(ctx context.Context, chain registry.ChainKey, address string) (uint64, bool, error) {
	entries := r.Route(chain, OpSeqno)
	if len(entries) == 0 {
		return 0, false, &ErrNoRoute{chain, OpSeqno}
	}
	sp, ok := entries[0].Adapter.(provider.SeqnoProvider)
	if !ok {
		return 0, false, &ErrNoRoute{chain, OpSeqno}
	}
	return sp.GetSeqno(ctx, address)
}

// DispatchLatestBlock routes a latest-block lookup to the first
// LatestBlockProvider registered for chain.
func (r *Router) DispatchLatestBlock(ctx context.Context, chain registry.ChainKey) (map[string]interface{}, error) {
	entries := r.Route(chain, OpLatestBlock)
	if len(entries) == 0 {
		return nil, &ErrNoRoute{chain, OpLatestBlock}
	}
	lp, ok := entries[0].Adapter.(provider.LatestBlockProvider)
	if !ok {
		return nil, &ErrNoRoute{chain, OpLatestBlock}
	}
	return lp.GetLatestBlock(ctx, chain)
}

// DispatchBroadcast routes a signed-transaction broadcast to the first
// BroadcastProvider registered for chain.
func (r *Router) DispatchBroadcast(ctx context.Context, chain registry.ChainKey, txHex string) (string, error) {
	entries := r.Route(chain, OpBroadcast)
	if len(entries) == 0 {
		return "", &ErrNoRoute{chain, OpBroadcast}
	}
	bp, ok := entries[0].Adapter.(provider.BroadcastProvider)
	if !ok {
		return "", &ErrNoRoute{chain, OpBroadcast}
	}
	return bp.Broadcast(ctx, chain, txHex)
}

// DispatchTransaction routes a single-transaction lookup to the first
// TransactionProvider registered for chain.
func (r *Router) DispatchTransaction(ctx context.Context, chain registry.ChainKey, txID string) (provider.Transfer, error) {
	entries := r.Route(chain, OpTransaction)
	if len(entries) == 0 {
		return provider.Transfer{}, &ErrNoRoute{chain, OpTransaction}
	}
	tp, ok := entries[0].Adapter.(provider.TransactionProvider)
	if !ok {
		return provider.Transfer{}, &ErrNoRoute{chain, OpTransaction}
	}
	return tp.GetTransaction(ctx, chain, txID)
}

// DispatchResource routes an account-resource lookup to the first
// ResourceProvider registered for chain, and always merges in the fee
// tiers from that chain's registered FeeProvider (if any) regardless of
// whether a ResourceProvider exists — every chain's accountResource
// response carries fee constants, not just Tron's.
func (r *Router) DispatchResource(ctx context.Context, chain registry.ChainKey, address string) (provider.ResourceResult, error) {
	result := provider.ResourceResult{Resource: map[string]interface{}{}}

	if fee, err := r.DispatchFee(ctx, chain); err == nil {
		result.FeeConstants = fee
	}

	entries := r.Route(chain, OpResource)
	if len(entries) == 0 {
		return result, nil
	}
	rp, ok := entries[0].Adapter.(provider.ResourceProvider)
	if !ok {
		return result, nil
	}
	res, err := rp.GetResource(ctx, address)
	if err != nil {
		return result, err
	}
	result.Resource = res
	return result, nil
}
