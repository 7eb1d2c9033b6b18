// Command gateway boots the blockchain aggregation gateway: it wires
// config, logging, the chain registry, per-provider runners, adapters, the
// chain router, price aggregator, and rate limiter eagerly, then serves
// HTTP until an interrupt signal arrives.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/watchwallet/gateway/internal/api"
	"github.com/watchwallet/gateway/internal/chainrouter"
	"github.com/watchwallet/gateway/internal/config"
	"github.com/watchwallet/gateway/internal/logging"
	"github.com/watchwallet/gateway/internal/metrics"
	"github.com/watchwallet/gateway/internal/priceagg"
	"github.com/watchwallet/gateway/internal/provider/ankr"
	"github.com/watchwallet/gateway/internal/provider/dashinsight"
	"github.com/watchwallet/gateway/internal/provider/etcblockscout"
	"github.com/watchwallet/gateway/internal/provider/etherscanfamily"
	"github.com/watchwallet/gateway/internal/provider/evmrpc"
	"github.com/watchwallet/gateway/internal/provider/solanarpc"
	"github.com/watchwallet/gateway/internal/provider/suirpc"
	"github.com/watchwallet/gateway/internal/provider/tatum"
	"github.com/watchwallet/gateway/internal/provider/tickers"
	"github.com/watchwallet/gateway/internal/provider/toncenter"
	"github.com/watchwallet/gateway/internal/provider/trongrid"
	"github.com/watchwallet/gateway/internal/ratelimiter"
	"github.com/watchwallet/gateway/internal/registry"
	"github.com/watchwallet/gateway/internal/rpc"

	gwprovider "github.com/watchwallet/gateway/internal/provider"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.Environment)
	defer logger.Sync()

	logger.Info("starting gateway", zap.String("environment", cfg.Environment))

	reg := registry.Load()
	gatewayMetrics := metrics.NewPrometheusMetrics()

	httpTransport := rpc.NewClient(cfg.ProviderTimeout)

	runners := newRunners(logger)
	router := chainrouter.New()

	registerTatum(router, runners, reg, httpTransport, cfg, gatewayMetrics)
	registerAnkr(router, runners, httpTransport, cfg, gatewayMetrics)
	registerEtherscanFamily(router, runners, httpTransport, cfg, gatewayMetrics)
	registerEVMRPC(router, runners, logger)
	registerETCBlockscout(router, runners, httpTransport)
	registerSui(router, runners, logger, gatewayMetrics, cfg.ProviderTimeout)
	registerDashInsight(router, runners, httpTransport)
	registerSolana(router, runners, httpTransport)
	registerTonCenter(router, runners, httpTransport, cfg)
	registerTronGrid(router, runners, httpTransport, cfg)

	priceAggregator := priceagg.New(
		tickers.NewBinance(httpTransport),
		tickers.NewOKX(httpTransport),
		tickers.NewCoinGecko(httpTransport),
	)

	limiter := newRateLimiter(cfg)

	server := &api.Server{
		Router:   router,
		Registry: reg,
		Prices:   priceAggregator,
		Limiter:  limiter,
		Logger:   logger,
		Version:  api.Version{Name: "gateway", Version: version},
		Docs:     map[string]map[string]string{},
	}

	httpServer := server.NewHTTPServer(cfg.HTTPAddr)

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// runnerSet holds the eagerly-constructed Runner for each upstream
// provider, keyed by the provider's own name.
type runnerSet struct {
	byName map[string]*gwprovider.Runner
}

func newRunners(logger *zap.Logger) *runnerSet {
	specs := []struct {
		name    string
		cfg     gwprovider.RunnerConfig
	}{
		{"tatum", gwprovider.RunnerConfig{MaxConcurrent: 5, MinSpacing: time.Second, MaxRetries: 3}},
		{"ankr", gwprovider.RunnerConfig{MaxConcurrent: 5, MinSpacing: 500 * time.Millisecond, MaxRetries: 3}},
		{"etherscan-family", gwprovider.RunnerConfig{MaxConcurrent: 5, MinSpacing: 200 * time.Millisecond, MaxRetries: 3}},
		{"evm-rpc", gwprovider.RunnerConfig{MaxConcurrent: 10, MaxRetries: 3}},
		{"etc-blockscout", gwprovider.RunnerConfig{MaxConcurrent: 5, MaxRetries: 3}},
		{"sui-rpc", gwprovider.RunnerConfig{MaxConcurrent: 10, MaxRetries: 3}},
		{"dash-insight", gwprovider.RunnerConfig{MaxConcurrent: 5, MaxRetries: 3}},
		{"solana-rpc", gwprovider.RunnerConfig{MaxConcurrent: 10, MaxRetries: 3}},
		{"toncenter", gwprovider.RunnerConfig{MaxConcurrent: 5, MinSpacing: time.Second, MaxRetries: 3}},
		{"trongrid", gwprovider.RunnerConfig{MaxConcurrent: 5, MinSpacing: 300 * time.Millisecond, MaxRetries: 3}},
	}

	set := &runnerSet{byName: make(map[string]*gwprovider.Runner, len(specs))}
	for _, s := range specs {
		set.byName[s.name] = gwprovider.NewRunner(s.name, s.cfg, logger)
	}
	return set
}

func newRateLimiter(cfg config.Config) ratelimiter.Limiter {
	if cfg.RedisURL == "" {
		return ratelimiter.NewInMemoryLimiter(cfg.RateLimitPerMinute, time.Minute)
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return ratelimiter.NewInMemoryLimiter(cfg.RateLimitPerMinute, time.Minute)
	}
	rdb := redis.NewClient(opts)
	return ratelimiter.NewRedisLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, cfg.RateLimitBlockFor, "gateway")
}

func registerTatum(router *chainrouter.Router, runners *runnerSet, reg *registry.Registry, transport *rpc.Client, cfg config.Config, m metrics.GatewayMetrics) {
	adapter := tatum.New(transport, cfg.TatumAPIKeyMainnet, runners.byName["tatum"], m, cfg.ProviderTimeout)
	runner := runners.byName["tatum"]

	utxoChains := []registry.ChainKey{"bitcoin", "litecoin", "dogecoin"}
	for _, chain := range utxoChains {
		router.Register(chain, chainrouter.OpBalance, chainrouter.Entry{Adapter: adapter, Runner: runner})
		router.Register(chain, chainrouter.OpHistory, chainrouter.Entry{Adapter: adapter, Runner: runner})
		router.Register(chain, chainrouter.OpUTXO, chainrouter.Entry{Adapter: adapter, Runner: runner})
		router.Register(chain, chainrouter.OpLatestBlock, chainrouter.Entry{Adapter: adapter, Runner: runner})
		router.Register(chain, chainrouter.OpBroadcast, chainrouter.Entry{Adapter: adapter, Runner: runner})
	}
	router.Register("bitcoin", chainrouter.OpFee, chainrouter.Entry{Adapter: adapter, Runner: runner})
	router.Register("bitcoincash", chainrouter.OpFee, chainrouter.Entry{Adapter: adapter, Runner: runner})

	// bitcoincash gets balance/UTXO/history/broadcast from Tatum directly,
	// but history runs its own Rostrum-based path (getBCHHistory) rather
	// than the BTC/LTC/DOGE net-flow helper above.
	router.Register("bitcoincash", chainrouter.OpBalance, chainrouter.Entry{Adapter: adapter, Runner: runner})
	router.Register("bitcoincash", chainrouter.OpUTXO, chainrouter.Entry{Adapter: adapter, Runner: runner})
	router.Register("bitcoincash", chainrouter.OpHistory, chainrouter.Entry{Adapter: adapter, Runner: runner})
	router.Register("bitcoincash", chainrouter.OpBroadcast, chainrouter.Entry{Adapter: adapter, Runner: runner})

	// Tron's balance/history/broadcast are owned by Tatum's tron account
	// endpoints; TronGrid is reserved for the accountResource extras only.
	router.Register("tron", chainrouter.OpBalance, chainrouter.Entry{Adapter: adapter, Runner: runner})
	router.Register("tron", chainrouter.OpHistory, chainrouter.Entry{Adapter: adapter, Runner: runner})
	router.Register("tron", chainrouter.OpBroadcast, chainrouter.Entry{Adapter: adapter, Runner: runner})
}

func registerAnkr(router *chainrouter.Router, runners *runnerSet, transport *rpc.Client, cfg config.Config, m metrics.GatewayMetrics) {
	adapter := ankr.New(transport, cfg.AnkrAPIKeyMainnet, m)
	runner := runners.byName["ankr"]

	for _, op := range []chainrouter.Operation{chainrouter.OpBalance, chainrouter.OpHistory} {
		router.Register("ton", op, chainrouter.Entry{Adapter: adapter, Runner: runner})
		router.Register("ripple", op, chainrouter.Entry{Adapter: adapter, Runner: runner})
	}
	router.Register("ripple", chainrouter.OpFee, chainrouter.Entry{Adapter: adapter, Runner: runner})
}

func registerEtherscanFamily(router *chainrouter.Router, runners *runnerSet, transport *rpc.Client, cfg config.Config, m metrics.GatewayMetrics) {
	// BSC and Avalanche are not in this family: registerEVMRPC gives them
	// nonce, gas and fee only, and no balance or history route is
	// registered for them.
	chains := []registry.ChainKey{"ethereum", "polygon", "arbitrum", "arbitrum-nova"}
	for _, chain := range chains {
		adapter := etherscanfamily.New(transport, chain, cfg.EtherscanAPIKeyMainnet, m)
		runner := runners.byName["etherscan-family"]
		for _, op := range []chainrouter.Operation{chainrouter.OpBalance, chainrouter.OpHistory, chainrouter.OpBroadcast} {
			router.Register(chain, op, chainrouter.Entry{Adapter: adapter, Runner: runner})
		}
	}
}

func registerEVMRPC(router *chainrouter.Router, runners *runnerSet, logger *zap.Logger) {
	chains := map[registry.ChainKey]string{
		"ethereum":      "https://eth.llamarpc.com",
		"bsc":           "https://bsc-dataseed.binance.org",
		"polygon":       "https://polygon-rpc.com",
		"avalanche":     "https://api.avax.network/ext/bc/C/rpc",
		"arbitrum":      "https://arb1.arbitrum.io/rpc",
		"arbitrum-nova": "https://nova.arbitrum.io/rpc",
	}
	runner := runners.byName["evm-rpc"]
	for chain, endpoint := range chains {
		adapter := evmrpc.New(chain, []string{endpoint}, logger)
		for _, op := range []chainrouter.Operation{chainrouter.OpNonce, chainrouter.OpGas, chainrouter.OpFee} {
			router.Register(chain, op, chainrouter.Entry{Adapter: adapter, Runner: runner})
		}
	}
}

func registerETCBlockscout(router *chainrouter.Router, runners *runnerSet, transport *rpc.Client) {
	adapter := etcblockscout.New(transport)
	runner := runners.byName["etc-blockscout"]
	for _, op := range []chainrouter.Operation{chainrouter.OpBalance, chainrouter.OpHistory, chainrouter.OpBroadcast} {
		router.Register("etc", op, chainrouter.Entry{Adapter: adapter, Runner: runner})
	}
}

// registerSui gives the Sui adapter two independent fullnode mirrors so
// JSONRPCHTTPClient has somewhere to fail over to when one goes unhealthy.
func registerSui(router *chainrouter.Router, runners *runnerSet, logger *zap.Logger, m metrics.GatewayMetrics, timeout time.Duration) {
	endpoints := []string{
		"https://fullnode.mainnet.sui.io:443",
		"https://sui-mainnet-endpoint.blockvision.org",
	}
	adapter := suirpc.New(endpoints, logger, m, timeout)
	runner := runners.byName["sui-rpc"]
	ops := []chainrouter.Operation{
		chainrouter.OpBalance, chainrouter.OpHistory, chainrouter.OpBroadcast,
		chainrouter.OpLatestBlock, chainrouter.OpUTXO, chainrouter.OpFee,
	}
	for _, op := range ops {
		router.Register("sui", op, chainrouter.Entry{Adapter: adapter, Runner: runner})
	}
}

func registerDashInsight(router *chainrouter.Router, runners *runnerSet, transport *rpc.Client) {
	adapter := dashinsight.New(transport)
	runner := runners.byName["dash-insight"]
	ops := []chainrouter.Operation{chainrouter.OpBalance, chainrouter.OpHistory, chainrouter.OpUTXO, chainrouter.OpBroadcast}
	for _, op := range ops {
		router.Register("dash", op, chainrouter.Entry{Adapter: adapter, Runner: runner})
	}
}

func registerSolana(router *chainrouter.Router, runners *runnerSet, transport *rpc.Client) {
	adapter := solanarpc.New(transport, "https://api.mainnet-beta.solana.com")
	runner := runners.byName["solana-rpc"]
	ops := []chainrouter.Operation{chainrouter.OpBalance, chainrouter.OpHistory, chainrouter.OpBroadcast}
	for _, op := range ops {
		router.Register("solana", op, chainrouter.Entry{Adapter: adapter, Runner: runner})
	}
}

// registerTonCenter wires seqno and broadcast only — Ankr owns TON balance
// and history (registerAnkr), so those operations are deliberately not
// registered here to avoid a second, never-reached entry sitting behind
// Ankr's in the route table.
func registerTonCenter(router *chainrouter.Router, runners *runnerSet, transport *rpc.Client, cfg config.Config) {
	adapter := toncenter.New(transport, cfg.TonAPIKeyMainnet)
	runner := runners.byName["toncenter"]
	for _, op := range []chainrouter.Operation{chainrouter.OpSeqno, chainrouter.OpBroadcast} {
		router.Register("ton", op, chainrouter.Entry{Adapter: adapter, Runner: runner})
	}
}

// registerTronGrid wires only the accountResource capability — Tron's
// balance/history/broadcast are owned by the tatum adapter (registerTatum).
func registerTronGrid(router *chainrouter.Router, runners *runnerSet, transport *rpc.Client, cfg config.Config) {
	adapter := trongrid.New(transport, cfg.TronGridAPIKeyMainnet)
	runner := runners.byName["trongrid"]
	router.Register("tron", chainrouter.OpResource, chainrouter.Entry{Adapter: adapter, Runner: runner})
}
