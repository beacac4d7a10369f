// Package deploy builds, signs, and broadcasts ERC-20 deployment
// transactions and records the outcome in the deployment history.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/libersoft-org/smart-contracts/internal/artifact"
	"github.com/libersoft-org/smart-contracts/internal/evm"
	"github.com/libersoft-org/smart-contracts/internal/observability/metrics"
	"github.com/libersoft-org/smart-contracts/internal/storage"
	"github.com/libersoft-org/smart-contracts/internal/wallet"
)

// TxBackend is the chain capability the deployer needs. *chain.Client
// satisfies it.
type TxBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, address common.Address) (*big.Int, error)
	PendingNonceAt(ctx context.Context, address common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	WaitMined(ctx context.Context, txHash common.Hash, pollInterval time.Duration) (*types.Receipt, error)
}

// Request describes one token deployment.
type Request struct {
	Network  string
	ChainID  int
	Token    evm.TokenConfig
	Artifact *artifact.Artifact
	Account  *wallet.Account
	// GasLimit overrides estimation when non-zero.
	GasLimit uint64
	// DryRun stops after gas estimation without broadcasting.
	DryRun bool
}

// Result is the outcome of a broadcast deployment.
type Result struct {
	DeploymentID    string
	ContractAddress common.Address
	TxHash          common.Hash
	BlockNumber     int64
	GasUsed         uint64
	GasEstimate     uint64
}

// Deployer signs and broadcasts contract creation transactions.
type Deployer struct {
	backend TxBackend
	store   storage.Store
	logger  *slog.Logger
	out     io.Writer
	// PollInterval is the receipt polling cadence.
	PollInterval time.Duration
}

// NewDeployer wires a deployer. The store may be nil, in which case the
// deployment is not recorded locally.
func NewDeployer(backend TxBackend, store storage.Store, logger *slog.Logger, out io.Writer) *Deployer {
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = io.Discard
	}
	return &Deployer{backend: backend, store: store, logger: logger, out: out, PollInterval: 2 * time.Second}
}

// Deploy runs the full deployment flow: constructor encoding, gas
// estimation, signing, broadcast, and receipt wait.
func (d *Deployer) Deploy(ctx context.Context, req Request) (*Result, error) {
	if req.Artifact == nil {
		return nil, errors.New("deployment requires a compiled artifact")
	}
	if req.Account == nil {
		return nil, errors.New("deployment requires a deployer account")
	}

	data, err := d.buildCreationData(req)
	if err != nil {
		return nil, err
	}

	chainID, err := d.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching chain ID: %w", err)
	}
	if req.ChainID != 0 && chainID.Int64() != int64(req.ChainID) {
		return nil, fmt.Errorf("RPC endpoint reports chain ID %d, expected %d for %s", chainID, req.ChainID, req.Network)
	}

	from := req.Account.Address
	balance, err := d.backend.BalanceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("fetching deployer balance: %w", err)
	}
	if balance.Sign() == 0 {
		return nil, fmt.Errorf("deployer %s has zero balance on %s", from.Hex(), req.Network)
	}

	nonce, err := d.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("fetching nonce: %w", err)
	}
	gasPrice, err := d.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching gas price: %w", err)
	}

	gasLimit := req.GasLimit
	estimate, err := d.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, Data: data})
	if err != nil {
		if gasLimit == 0 {
			return nil, fmt.Errorf("estimating gas (constructor revert?): %w", err)
		}
		d.logger.Warn("gas estimation failed, using override", "err", err, "gasLimit", gasLimit)
	}
	if gasLimit == 0 {
		// Headroom over the estimate; creation cost can drift between
		// estimation and inclusion.
		gasLimit = estimate + estimate/5
	}

	d.printf("⛽ Gas: limit %d at %s wei\n", gasLimit, gasPrice)
	if req.DryRun {
		d.printf("🧪 Dry run, not broadcasting\n")
		return &Result{GasEstimate: estimate}, nil
	}

	tx := types.NewContractCreation(nonce, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), req.Account.PrivateKey())
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	if err := d.backend.SendTransaction(ctx, signed); err != nil {
		metrics.Deployment(req.Network, "broadcast_failed")
		return nil, fmt.Errorf("broadcasting transaction: %w", err)
	}
	d.printf("📤 Transaction sent: %s\n", signed.Hash().Hex())
	d.printf("⏳ Waiting for confirmation...\n")

	receipt, err := d.backend.WaitMined(ctx, signed.Hash(), d.PollInterval)
	if err != nil {
		metrics.Deployment(req.Network, "timeout")
		return nil, fmt.Errorf("waiting for receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		metrics.Deployment(req.Network, "reverted")
		return nil, fmt.Errorf("deployment transaction %s reverted", signed.Hash().Hex())
	}

	address := receipt.ContractAddress
	if address == (common.Address{}) {
		address = crypto.CreateAddress(from, nonce)
	}

	result := &Result{
		ContractAddress: address,
		TxHash:          signed.Hash(),
		BlockNumber:     receipt.BlockNumber.Int64(),
		GasUsed:         receipt.GasUsed,
		GasEstimate:     estimate,
	}
	d.printf("✅ Contract deployed at %s (block %d, gas %d)\n", address.Hex(), result.BlockNumber, result.GasUsed)

	metrics.Deployment(req.Network, "success")
	if err := d.record(ctx, req, result); err != nil {
		// The contract is live; a bookkeeping failure must not fail the run.
		d.logger.Warn("recording deployment failed", "err", err)
	}
	return result, nil
}

// buildCreationData concatenates the creation bytecode with the ABI-encoded
// constructor arguments.
func (d *Deployer) buildCreationData(req Request) ([]byte, error) {
	bytecode, err := req.Artifact.BytecodeBytes()
	if err != nil {
		return nil, err
	}

	parsedABI, err := req.Artifact.ParsedABI()
	if err != nil {
		return nil, fmt.Errorf("parsing artifact ABI: %w", err)
	}
	if len(parsedABI.Constructor.Inputs) == 0 {
		return bytecode, nil
	}

	args, err := parsedABI.Pack("", evm.TokenConstructorValues(req.Token)...)
	if err != nil {
		return nil, fmt.Errorf("encoding constructor arguments: %w", err)
	}
	return append(bytecode, args...), nil
}

func (d *Deployer) record(ctx context.Context, req Request, result *Result) error {
	if d.store == nil {
		return nil
	}

	record := &storage.Deployment{
		Network:         req.Network,
		ChainID:         req.ChainID,
		Address:         result.ContractAddress.Hex(),
		DeployerAddress: req.Account.Address.Hex(),
		TxHash:          result.TxHash.Hex(),
		BlockNumber:     result.BlockNumber,
		TokenName:       req.Token.Name,
		TokenSymbol:     req.Token.Symbol,
		TokenDecimals:   int(req.Token.Decimals),
		TotalSupply:     req.Token.TotalSupply.String(),
		ContractName:    req.Artifact.ContractName,
		CompilerVersion: req.Artifact.Compiler.Version,
		ArtifactHash:    storage.ComputeHash([]byte(req.Artifact.Bytecode)),
	}
	if err := d.store.RecordDeployment(ctx, record); err != nil {
		return err
	}
	result.DeploymentID = record.ID
	return nil
}

func (d *Deployer) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format, args...)
}
