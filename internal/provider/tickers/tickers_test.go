package tickers

import "testing"

func TestNames(t *testing.T) {
	if (&Binance{}).Name() != "binance" {
		t.Fatalf("unexpected binance name")
	}
	if (&OKX{}).Name() != "okx" {
		t.Fatalf("unexpected okx name")
	}
	if (&CoinGecko{}).Name() != "coingecko" {
		t.Fatalf("unexpected coingecko name")
	}
}

func TestCoinGeckoIDsCoversBlacklistedSymbols(t *testing.T) {
	for _, sym := range []string{"TRX", "XRP"} {
		if _, ok := coinGeckoIDs[sym]; !ok {
			t.Fatalf("expected coingecko id for %s, the symbol binance never lists", sym)
		}
	}
}

func TestCoinGeckoFetchBatchSkipsUnknownSymbols(t *testing.T) {
	cg := NewCoinGecko(nil)
	out, err := cg.FetchBatch(nil, []string{"NOT_A_REAL_SYMBOL"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil result when no symbol maps to a coingecko id")
	}
}
