package testsupport

import (
	"context"
	"testing"

	"sttbatch/internal/config"
	"sttbatch/internal/ledger"
)

// MustOpenLedger opens a ledger.Store for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// StartRank registers rank of a run for tests using the provided store.
func StartRank(t testing.TB, store *ledger.Store, spec ledger.RunSpec, rank int) {
	t.Helper()

	if err := store.StartRank(context.Background(), spec, rank); err != nil {
		t.Fatalf("store.StartRank: %v", err)
	}
}
