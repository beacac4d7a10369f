// Package storage persists the local deployment history.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/libersoft-org/smart-contracts/internal/config"
)

// Deployment is one recorded contract deployment.
type Deployment struct {
	ID              string
	Network         string
	ChainID         int
	Address         string
	DeployerAddress string
	TxHash          string
	BlockNumber     int64
	TokenName       string
	TokenSymbol     string
	TokenDecimals   int
	TotalSupply     string // human units, decimal string
	ContractName    string
	CompilerVersion string
	ArtifactHash    string
	Verified        bool
	VerifyStatus    string
	VerifyGUID      string
	CreatedAt       string
	VerifiedAt      string
}

// DeploymentFilter contains filter options for listing deployments
type DeploymentFilter struct {
	Network  string
	ChainID  int
	Verified *bool
}

// PaginationParams contains pagination options
type PaginationParams struct {
	Limit  int
	Cursor string
}

// PaginatedResult contains paginated results
type PaginatedResult[T any] struct {
	Data       []T
	HasMore    bool
	NextCursor string
}

// Store is the deployment history persistence interface.
type Store interface {
	RecordDeployment(ctx context.Context, d *Deployment) error
	GetDeployment(ctx context.Context, chainID int, address string) (*Deployment, error)
	GetDeploymentByID(ctx context.Context, id string) (*Deployment, error)
	ListDeployments(ctx context.Context, filter DeploymentFilter, pagination PaginationParams) (*PaginatedResult[Deployment], error)
	UpdateVerification(ctx context.Context, id string, status string, guid string, verified bool) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}

// New creates a new store based on configuration
func New(cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "sqlite":
		return NewSQLiteStore(cfg.SQLite.Path, logger)
	case "postgres":
		return NewPostgresStore(cfg.Postgres.URL, logger)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
