//go:build integration

package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Requires Docker. Run with: go test -tags integration ./internal/storage
func TestPostgresStore(t *testing.T) {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("deployments"),
		postgres.WithUsername("deploy"),
		postgres.WithPassword("deploy"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := NewPostgresStore(connStr, logger)
	if err != nil {
		t.Fatalf("NewPostgresStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	t.Run("RecordAndGetDeployment", func(t *testing.T) {
		d := sampleDeployment("0x1111111111111111111111111111111111111111")
		if err := store.RecordDeployment(ctx, d); err != nil {
			t.Fatalf("RecordDeployment() error = %v", err)
		}

		got, err := store.GetDeployment(ctx, 11155111, "0x1111111111111111111111111111111111111111")
		if err != nil {
			t.Fatalf("GetDeployment() error = %v", err)
		}
		if got.TokenSymbol != "MYT" {
			t.Errorf("GetDeployment().TokenSymbol = %v, want MYT", got.TokenSymbol)
		}
	})

	t.Run("DuplicateDeployment", func(t *testing.T) {
		d := sampleDeployment("0x1111111111111111111111111111111111111111")
		err := store.RecordDeployment(ctx, d)
		if !errors.Is(err, ErrDuplicate) {
			t.Errorf("RecordDeployment() error = %v, want ErrDuplicate", err)
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
		if !updated.Verified || updated.VerifyGUID != "abc123" {
			t.Errorf("after update: verified=%v guid=%q", updated.Verified, updated.VerifyGUID)
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
	})
}
