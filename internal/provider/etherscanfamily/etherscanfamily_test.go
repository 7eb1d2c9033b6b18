package etherscanfamily

import (
	"testing"

	"github.com/watchwallet/gateway/internal/registry"
)

func TestExplorerBaseCoversFamily(t *testing.T) {
	for _, chain := range []registry.ChainKey{"ethereum", "polygon", "arbitrum", "arbitrum-nova"} {
		if _, ok := explorerBase[chain]; !ok {
			t.Errorf("missing explorer base for %s", chain)
		}
	}
}

func TestGasLimitHeuristic(t *testing.T) {
	if nativeGasLimit != 21000 {
		t.Fatalf("expected native gas limit 21000, got %d", nativeGasLimit)
	}
	if tokenGasLimit != 100000 {
		t.Fatalf("expected token gas limit 100000, got %d", tokenGasLimit)
	}
}
