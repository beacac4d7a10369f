package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres store
func NewPostgresStore(url string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS deployments (
		id UUID PRIMARY KEY,
		network TEXT NOT NULL,
		chain_id BIGINT NOT NULL,
		address TEXT NOT NULL,
		deployer_address TEXT,
		tx_hash TEXT,
		block_number BIGINT,
		token_name TEXT NOT NULL,
		token_symbol TEXT NOT NULL,
		token_decimals INTEGER NOT NULL,
		total_supply TEXT NOT NULL,
		contract_name TEXT,
		compiler_version TEXT,
		artifact_hash TEXT,
		verified BOOLEAN DEFAULT FALSE,
		verify_status TEXT DEFAULT '',
		verify_guid TEXT DEFAULT '',
		created_at TIMESTAMPTZ DEFAULT NOW(),
		verified_at TIMESTAMPTZ,
		UNIQUE(chain_id, address)
	);

	CREATE INDEX IF NOT EXISTS idx_deployments_lookup ON deployments(chain_id, address);
	CREATE INDEX IF NOT EXISTS idx_deployments_network ON deployments(network);
	`

	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.logger.Info("database migrations complete")
	return nil
}

// RecordDeployment records a deployment
func (s *PostgresStore) RecordDeployment(ctx context.Context, d *Deployment) error {
	if d.ID == "" {
		d.ID = generateID()
	}
	query := `
		INSERT INTO deployments (id, network, chain_id, address, deployer_address, tx_hash, block_number,
			token_name, token_symbol, token_decimals, total_supply, contract_name, compiler_version,
			artifact_hash, verified, verify_status, verify_guid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := s.db.ExecContext(ctx, query, d.ID, d.Network, d.ChainID, d.Address, d.DeployerAddress,
		d.TxHash, d.BlockNumber, d.TokenName, d.TokenSymbol, d.TokenDecimals, d.TotalSupply,
		d.ContractName, d.CompilerVersion, d.ArtifactHash, d.Verified, d.VerifyStatus, d.VerifyGUID)
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return ErrDuplicate
	}
	return err
}

const pgDeploymentColumns = `id, network, chain_id, address, deployer_address, tx_hash, block_number,
	token_name, token_symbol, token_decimals, total_supply, contract_name, compiler_version,
	artifact_hash, verified, verify_status, verify_guid, created_at::TEXT, COALESCE(verified_at::TEXT, '')`

func (s *PostgresStore) scanRow(row interface{ Scan(...any) error }) (*Deployment, error) {
	var d Deployment
	err := row.Scan(&d.ID, &d.Network, &d.ChainID, &d.Address, &d.DeployerAddress, &d.TxHash,
		&d.BlockNumber, &d.TokenName, &d.TokenSymbol, &d.TokenDecimals, &d.TotalSupply,
		&d.ContractName, &d.CompilerVersion, &d.ArtifactHash, &d.Verified, &d.VerifyStatus,
		&d.VerifyGUID, &d.CreatedAt, &d.VerifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDeployment retrieves a deployment by chain ID and address
func (s *PostgresStore) GetDeployment(ctx context.Context, chainID int, address string) (*Deployment, error) {
	query := `SELECT ` + pgDeploymentColumns + ` FROM deployments WHERE chain_id = $1 AND LOWER(address) = LOWER($2)`
	return s.scanRow(s.db.QueryRowContext(ctx, query, chainID, address))
}

// GetDeploymentByID retrieves a deployment by ID
func (s *PostgresStore) GetDeploymentByID(ctx context.Context, id string) (*Deployment, error) {
	query := `SELECT ` + pgDeploymentColumns + ` FROM deployments WHERE id = $1`
	return s.scanRow(s.db.QueryRowContext(ctx, query, id))
}

// ListDeployments lists deployments, newest first, with cursor pagination
func (s *PostgresStore) ListDeployments(ctx context.Context, filter DeploymentFilter, pagination PaginationParams) (*PaginatedResult[Deployment], error) {
	if pagination.Limit <= 0 {
		pagination.Limit = 50
	}

	query := `SELECT ` + pgDeploymentColumns + ` FROM deployments`
	var conditions []string
	var args []any

	addArg := func(cond string, v any) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Network != "" {
		addArg("network = $%d", filter.Network)
	}
	if filter.ChainID != 0 {
		addArg("chain_id = $%d", filter.ChainID)
	}
	if filter.Verified != nil {
		addArg("verified = $%d", *filter.Verified)
	}
	if pagination.Cursor != "" {
		addArg("(created_at, id) < (SELECT created_at, id FROM deployments WHERE id = $%d)", pagination.Cursor)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, pagination.Limit+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deployments []Deployment
	for rows.Next() {
		d, err := s.scanRow(rows)
		if err != nil {
			return nil, err
		}
		deployments = append(deployments, *d)
	}

	hasMore := len(deployments) > pagination.Limit
	var nextCursor string
	if hasMore {
		deployments = deployments[:pagination.Limit]
	}
	if hasMore && len(deployments) > 0 {
		nextCursor = deployments[len(deployments)-1].ID
	}

	return &PaginatedResult[Deployment]{Data: deployments, HasMore: hasMore, NextCursor: nextCursor}, rows.Err()
}

// UpdateVerification updates a deployment's verification outcome
func (s *PostgresStore) UpdateVerification(ctx context.Context, id string, status string, guid string, verified bool) error {
	query := `UPDATE deployments SET verify_status = $1, verify_guid = $2, verified = $3, verified_at = NOW() WHERE id = $4`
	res, err := s.db.ExecContext(ctx, query, status, guid, verified, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
