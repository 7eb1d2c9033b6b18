package evmrpc

import (
	"testing"

	"github.com/watchwallet/gateway/internal/registry"
)

func TestGasFloorsMatchSpecTable(t *testing.T) {
	cases := map[registry.ChainKey]int64{
		"bsc":       3_000_000_000,
		"avalanche": 25_000_000_000,
		"etc":       1_000_000_000,
	}
	for chain, want := range cases {
		floor, ok := gasFloorWei[chain]
		if !ok {
			t.Fatalf("missing gas floor for %s", chain)
		}
		if floor.Int64() != want {
			t.Errorf("%s floor = %d, want %d", chain, floor.Int64(), want)
		}
	}
}

func TestL2GasLimitChains(t *testing.T) {
	if !l2GasLimitChains[registry.ChainKey("arbitrum")] {
		t.Fatalf("expected arbitrum to use L2 gas limit")
	}
	if l2GasLimitChains[registry.ChainKey("ethereum")] {
		t.Fatalf("ethereum should not use L2 gas limit")
	}
}
