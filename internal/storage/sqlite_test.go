package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := NewSQLiteStore(dbPath, logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return store
}

func sampleDeployment(address string) *Deployment {
	return &Deployment{
		Network:         "sepolia",
		ChainID:         11155111,
		Address:         address,
		DeployerAddress: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		TxHash:          "0xabc",
		BlockNumber:     123456,
		TokenName:       "My Token",
		TokenSymbol:     "MYT",
		TokenDecimals:   18,
		TotalSupply:     "1000000000",
		ContractName:    "MyToken",
		CompilerVersion: "v0.8.20+commit.a1b2c3d4",
		ArtifactHash:    "deadbeef",
	}
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("RecordAndGetDeployment", func(t *testing.T) {
		d := sampleDeployment("0x1111111111111111111111111111111111111111")
		if err := store.RecordDeployment(ctx, d); err != nil {
			t.Fatalf("RecordDeployment() error = %v", err)
		}
		if d.ID == "" {
			t.Error("RecordDeployment() did not assign an ID")
		}

		got, err := store.GetDeployment(ctx, 11155111, "0x1111111111111111111111111111111111111111")
		if err != nil {
			t.Fatalf("GetDeployment() error = %v", err)
		}
		if got.TokenSymbol != "MYT" {
			t.Errorf("GetDeployment().TokenSymbol = %v, want MYT", got.TokenSymbol)
		}
		if got.TotalSupply != "1000000000" {
			t.Errorf("GetDeployment().TotalSupply = %v, want 1000000000", got.TotalSupply)
		}
		if got.Verified {
			t.Error("GetDeployment().Verified = true, want false")
		}
		if got.CreatedAt == "" {
			t.Error("GetDeployment().CreatedAt is empty")
		}
	})

	t.Run("GetDeploymentCaseInsensitiveAddress", func(t *testing.T) {
		got, err := store.GetDeployment(ctx, 11155111, "0x1111111111111111111111111111111111111111")
		if err != nil {
			t.Fatalf("GetDeployment() error = %v", err)
		}
		byID, err := store.GetDeploymentByID(ctx, got.ID)
		if err != nil {
			t.Fatalf("GetDeploymentByID() error = %v", err)
		}
		if byID.Address != got.Address {
			t.Errorf("GetDeploymentByID().Address = %v, want %v", byID.Address, got.Address)
		}
	})

	t.Run("DuplicateDeployment", func(t *testing.T) {
		d := sampleDeployment("0x1111111111111111111111111111111111111111")
		err := store.RecordDeployment(ctx, d)
		if !errors.Is(err, ErrDuplicate) {
			t.Errorf("RecordDeployment() error = %v, want ErrDuplicate", err)
		}
	})

	t.Run("GetDeploymentNotFound", func(t *testing.T) {
		_, err := store.GetDeployment(ctx, 1, "0x9999999999999999999999999999999999999999")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("GetDeployment() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("UpdateVerification", func(t *testing.T) {
		got, err := store.GetDeployment(ctx, 11155111, "0x1111111111111111111111111111111111111111")
		if err != nil {
			t.Fatalf("GetDeployment() error = %v", err)
		}

		if err := store.UpdateVerification(ctx, got.ID, "verified", "abc123", true); err != nil {
			t.Fatalf("UpdateVerification() error = %v", err)
		}

		updated, err := store.GetDeploymentByID(ctx, got.ID)
		if err != nil {
			t.Fatalf("GetDeploymentByID() error = %v", err)
		}
		if !updated.Verified {
			t.Error("Verified = false after update")
		}
		if updated.VerifyStatus != "verified" {
			t.Errorf("VerifyStatus = %v, want verified", updated.VerifyStatus)
		}
		if updated.VerifyGUID != "abc123" {
			t.Errorf("VerifyGUID = %v, want abc123", updated.VerifyGUID)
		}
		if updated.VerifiedAt == "" {
			t.Error("VerifiedAt is empty after update")
		}
	})

	t.Run("UpdateVerificationUnknownID", func(t *testing.T) {
		err := store.UpdateVerification(ctx, "no-such-id", "verified", "", true)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateVerification() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListDeployments", func(t *testing.T) {
		d2 := sampleDeployment("0x2222222222222222222222222222222222222222")
		d2.Network = "mainnet"
		d2.ChainID = 1
		if err := store.RecordDeployment(ctx, d2); err != nil {
			t.Fatalf("RecordDeployment() error = %v", err)
		}

		all, err := store.ListDeployments(ctx, DeploymentFilter{}, PaginationParams{Limit: 10})
		if err != nil {
			t.Fatalf("ListDeployments() error = %v", err)
		}
		if len(all.Data) != 2 {
			t.Fatalf("ListDeployments() returned %d rows, want 2", len(all.Data))
		}
		if all.HasMore {
			t.Error("HasMore = true, want false")
		}

		mainnetOnly, err := store.ListDeployments(ctx, DeploymentFilter{Network: "mainnet"}, PaginationParams{Limit: 10})
		if err != nil {
			t.Fatalf("ListDeployments(network) error = %v", err)
		}
		if len(mainnetOnly.Data) != 1 || mainnetOnly.Data[0].ChainID != 1 {
			t.Errorf("ListDeployments(network=mainnet) = %+v, want one mainnet row", mainnetOnly.Data)
		}

		verified := true
		verifiedOnly, err := store.ListDeployments(ctx, DeploymentFilter{Verified: &verified}, PaginationParams{Limit: 10})
		if err != nil {
			t.Fatalf("ListDeployments(verified) error = %v", err)
		}
		if len(verifiedOnly.Data) != 1 {
			t.Errorf("ListDeployments(verified) returned %d rows, want 1", len(verifiedOnly.Data))
		}
	})

	t.Run("ListDeploymentsPagination", func(t *testing.T) {
		page, err := store.ListDeployments(ctx, DeploymentFilter{}, PaginationParams{Limit: 1})
		if err != nil {
			t.Fatalf("ListDeployments() error = %v", err)
		}
		if len(page.Data) != 1 || !page.HasMore || page.NextCursor == "" {
			t.Fatalf("first page = %d rows, hasMore=%v, cursor=%q", len(page.Data), page.HasMore, page.NextCursor)
		}

		next, err := store.ListDeployments(ctx, DeploymentFilter{}, PaginationParams{Limit: 1, Cursor: page.NextCursor})
		if err != nil {
			t.Fatalf("ListDeployments(cursor) error = %v", err)
		}
		if len(next.Data) != 1 {
			t.Fatalf("second page returned %d rows, want 1", len(next.Data))
		}
		if next.Data[0].ID == page.Data[0].ID {
			t.Error("second page repeated the first page row")
		}
	})
}
