package ankr

import (
	"testing"
	"time"
)

func TestName(t *testing.T) {
	a := New(nil, "", nil)
	if a.Name() != "ankr" {
		t.Fatalf("unexpected name %q", a.Name())
	}
}

func TestResolveRippleBalanceActNotFound(t *testing.T) {
	result := rippleAccountInfoResult{Status: "error", Error: "actNotFound"}
	got := resolveRippleBalance(result, reserveSettings{BaseReserve: 10, OwnerReserve: 2})
	if got.Balance != missingAccountBalance {
		t.Fatalf("expected missing-account placeholder, got %q", got.Balance)
	}
	if got.Extra["sequence"] != 0 {
		t.Fatalf("expected sequence 0 for an unfunded account, got %v", got.Extra["sequence"])
	}
}

func TestResolveRippleBalanceSuccess(t *testing.T) {
	result := rippleAccountInfoResult{Status: "success", LedgerIndex: 42}
	result.AccountData.Balance = "1000000"
	result.AccountData.Sequence = 7
	got := resolveRippleBalance(result, reserveSettings{BaseReserve: 10, OwnerReserve: 2})
	if got.Balance != "1.000000" {
		t.Fatalf("expected 1.000000 XRP, got %q", got.Balance)
	}
	if got.Extra["base_reserve"] != 10.0 || got.Extra["owner_reserve"] != 2.0 {
		t.Fatalf("expected reserve settings to be carried through, got %v", got.Extra)
	}
}

func TestResolveReserveSettingsFallsBackOnZero(t *testing.T) {
	got := resolveReserveSettings(0, 0)
	if got != defaultReserve {
		t.Fatalf("expected the default reserve {10.0, 2.0}, got %+v", got)
	}
}

func TestResolveReserveSettingsKeepsNonZero(t *testing.T) {
	got := resolveReserveSettings(20, 5)
	if got.BaseReserve != 20 || got.OwnerReserve != 5 {
		t.Fatalf("expected server-reported reserves to be kept, got %+v", got)
	}
}

func TestReserveSettingsReturnsCachedWithinOneHour(t *testing.T) {
	a := New(nil, "", nil)
	a.reserveCache = reserveSettings{BaseReserve: 99, OwnerReserve: 3}
	a.reserveFetchedAt = time.Now().Add(-30 * time.Minute)

	// transport is nil: any network fetch would panic, so a cache hit is
	// the only way this returns without a crash.
	got := a.reserveSettings(nil)
	if got != a.reserveCache {
		t.Fatalf("expected the cached reserve settings, got %+v", got)
	}
}

func TestConvertRippleTransactionFiltersNonSuccess(t *testing.T) {
	entry := rippleTxEntry{}
	entry.Meta.TransactionResult = "tecUNFUNDED_PAYMENT"
	entry.Tx.TransactionType = "Payment"
	entry.Tx.Amount = "100"
	if _, ok := convertRippleTransaction(entry); ok {
		t.Fatalf("expected a non-tesSUCCESS transaction to be dropped")
	}
}

func TestConvertRippleTransactionFiltersNonPayment(t *testing.T) {
	entry := rippleTxEntry{}
	entry.Meta.TransactionResult = "tesSUCCESS"
	entry.Tx.TransactionType = "TrustSet"
	entry.Tx.Amount = "100"
	if _, ok := convertRippleTransaction(entry); ok {
		t.Fatalf("expected a non-Payment transaction to be dropped")
	}
}

func TestConvertRippleTransactionSkipsIssuedToken(t *testing.T) {
	entry := rippleTxEntry{}
	entry.Meta.TransactionResult = "tesSUCCESS"
	entry.Tx.TransactionType = "Payment"
	entry.Tx.Amount = map[string]interface{}{"currency": "USD", "value": "5"}
	if _, ok := convertRippleTransaction(entry); ok {
		t.Fatalf("expected an issued-token payment to be dropped")
	}
}

func TestConvertRippleTransactionEpochAndValue(t *testing.T) {
	entry := rippleTxEntry{}
	entry.Meta.TransactionResult = "tesSUCCESS"
	entry.Tx.TransactionType = "Payment"
	entry.Tx.Amount = "1000000"
	entry.Tx.Account = "rSender"
	entry.Tx.Destination = "rReceiver"
	entry.Tx.Hash = "ABC123"
	entry.Tx.Date = 0

	got, ok := convertRippleTransaction(entry)
	if !ok {
		t.Fatalf("expected the transaction to convert")
	}
	if got.Timestamp != rippleEpochOffset*1000 {
		t.Fatalf("expected Ripple epoch 0 to convert to %d ms, got %d", rippleEpochOffset*1000, got.Timestamp)
	}
	if got.Value != "1.000000" {
		t.Fatalf("expected 1 XRP, got %q", got.Value)
	}
	if got.From != "rSender" || got.To != "rReceiver" {
		t.Fatalf("unexpected from/to: %+v", got)
	}
}

func TestConvertTonTransactionOutgoingSumsMultipleMessages(t *testing.T) {
	tx := tonTxEntry{Hash: "h1", Utime: 100}
	tx.OutMsgs = []struct {
		Destination string `json:"destination"`
		Value       string `json:"value"`
	}{
		{Destination: "addrA", Value: "1000000000"},
		{Destination: "addrB", Value: "2000000000"},
	}
	got := convertTonTransaction(tx, "self")
	if got.From != "self" || got.To != "addrA" {
		t.Fatalf("unexpected from/to: %+v", got)
	}
	if got.Value != "3.00000000" {
		t.Fatalf("expected summed outgoing value, got %q", got.Value)
	}
	if got.Timestamp != 100000 {
		t.Fatalf("expected utime*1000, got %d", got.Timestamp)
	}
}

func TestConvertTonTransactionIncoming(t *testing.T) {
	tx := tonTxEntry{Hash: "h2", Utime: 50}
	tx.InMsg.Source = "external-sender"
	tx.InMsg.Value = "500000000"

	got := convertTonTransaction(tx, "self")
	if got.From != "external-sender" || got.To != "self" {
		t.Fatalf("unexpected from/to: %+v", got)
	}
	if got.Value != "0.50000000" {
		t.Fatalf("expected 0.5 TON, got %q", got.Value)
	}
}

func TestConvertTonTransactionIncomingWithoutSourceUsesExternal(t *testing.T) {
	tx := tonTxEntry{Hash: "h3", Utime: 10}
	tx.InMsg.Value = "1"

	got := convertTonTransaction(tx, "self")
	if got.From != "External" {
		t.Fatalf("expected External for a blank source, got %q", got.From)
	}
}

func TestConvertTonTransactionNoActivityReportsZero(t *testing.T) {
	tx := tonTxEntry{Hash: "h4", Utime: 10}
	got := convertTonTransaction(tx, "self")
	if got.Value != "0.000000" {
		t.Fatalf("expected the zero sentinel, got %q", got.Value)
	}
	if got.From != "" || got.To != "" {
		t.Fatalf("expected no direction for an inactive entry, got %+v", got)
	}
}
