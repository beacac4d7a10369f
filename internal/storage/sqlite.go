package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS deployments (
		id TEXT PRIMARY KEY,
		network TEXT NOT NULL,
		chain_id INTEGER NOT NULL,
		address TEXT NOT NULL,
		deployer_address TEXT,
		tx_hash TEXT,
		block_number INTEGER,
		token_name TEXT NOT NULL,
		token_symbol TEXT NOT NULL,
		token_decimals INTEGER NOT NULL,
		total_supply TEXT NOT NULL,
		contract_name TEXT,
		compiler_version TEXT,
		artifact_hash TEXT,
		verified INTEGER DEFAULT 0,
		verify_status TEXT DEFAULT '',
		verify_guid TEXT DEFAULT '',
		created_at TEXT DEFAULT (datetime('now')),
		verified_at TEXT,
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
func (s *SQLiteStore) RecordDeployment(ctx context.Context, d *Deployment) error {
	if d.ID == "" {
		d.ID = generateID()
	}
	query := `
		INSERT INTO deployments (id, network, chain_id, address, deployer_address, tx_hash, block_number,
			token_name, token_symbol, token_decimals, total_supply, contract_name, compiler_version,
			artifact_hash, verified, verify_status, verify_guid, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
	`
	_, err := s.db.ExecContext(ctx, query, d.ID, d.Network, d.ChainID, d.Address, d.DeployerAddress,
		d.TxHash, d.BlockNumber, d.TokenName, d.TokenSymbol, d.TokenDecimals, d.TotalSupply,
		d.ContractName, d.CompilerVersion, d.ArtifactHash, d.Verified, d.VerifyStatus, d.VerifyGUID)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return ErrDuplicate
	}
	return err
}

const deploymentColumns = `id, network, chain_id, address, deployer_address, tx_hash, block_number,
	token_name, token_symbol, token_decimals, total_supply, contract_name, compiler_version,
	artifact_hash, verified, verify_status, verify_guid, created_at, COALESCE(verified_at, '')`

func scanDeployment(row interface{ Scan(...any) error }) (*Deployment, error) {
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
func (s *SQLiteStore) GetDeployment(ctx context.Context, chainID int, address string) (*Deployment, error) {
	query := `SELECT ` + deploymentColumns + ` FROM deployments WHERE chain_id = ? AND address = ? COLLATE NOCASE`
	return scanDeployment(s.db.QueryRowContext(ctx, query, chainID, address))
}

// GetDeploymentByID retrieves a deployment by ID
func (s *SQLiteStore) GetDeploymentByID(ctx context.Context, id string) (*Deployment, error) {
	query := `SELECT ` + deploymentColumns + ` FROM deployments WHERE id = ?`
	return scanDeployment(s.db.QueryRowContext(ctx, query, id))
}

// ListDeployments lists deployments, newest first, with cursor pagination
func (s *SQLiteStore) ListDeployments(ctx context.Context, filter DeploymentFilter, pagination PaginationParams) (*PaginatedResult[Deployment], error) {
	if pagination.Limit <= 0 {
		pagination.Limit = 50
	}

	query := `SELECT ` + deploymentColumns + ` FROM deployments`
	var conditions []string
	var args []any

	if filter.Network != "" {
		conditions = append(conditions, "network = ?")
		args = append(args, filter.Network)
	}
	if filter.ChainID != 0 {
		conditions = append(conditions, "chain_id = ?")
		args = append(args, filter.ChainID)
	}
	if filter.Verified != nil {
		conditions = append(conditions, "verified = ?")
		args = append(args, *filter.Verified)
	}
	if pagination.Cursor != "" {
		conditions = append(conditions, "(created_at, id) < (SELECT created_at, id FROM deployments WHERE id = ?)")
		args = append(args, pagination.Cursor)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, pagination.Limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deployments []Deployment
	for rows.Next() {
		d, err := scanDeployment(rows)
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
func (s *SQLiteStore) UpdateVerification(ctx context.Context, id string, status string, guid string, verified bool) error {
	query := `UPDATE deployments SET verify_status = ?, verify_guid = ?, verified = ?, verified_at = datetime('now') WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query, status, guid, verified, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
