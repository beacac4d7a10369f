package deploy

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libersoft-org/smart-contracts/internal/artifact"
	"github.com/libersoft-org/smart-contracts/internal/evm"
	"github.com/libersoft-org/smart-contracts/internal/storage"
	"github.com/libersoft-org/smart-contracts/internal/wallet"
)

const devMnemonic = "test test test test test test test test test test test junk"

const tokenABI = `[
	{"inputs":[
		{"name":"name_","type":"string"},
		{"name":"symbol_","type":"string"},
		{"name":"decimals_","type":"uint8"},
		{"name":"totalSupply_","type":"uint256"}
	],"stateMutability":"nonpayable","type":"constructor"}
]`

// fakeBackend simulates a node for the signing and broadcast flow.
type fakeBackend struct {
	chainID     *big.Int
	balance     *big.Int
	nonce       uint64
	estimateErr error
	sendErr     error
	reverted    bool

	sentTx *types.Transaction
}

func (f *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return f.chainID, nil
}

func (f *fakeBackend) BalanceAt(ctx context.Context, address common.Address) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeBackend) PendingNonceAt(ctx context.Context, address common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return 1_000_000, nil
}

func (f *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sentTx = tx
	return nil
}

func (f *fakeBackend) WaitMined(ctx context.Context, txHash common.Hash, pollInterval time.Duration) (*types.Receipt, error) {
	status := types.ReceiptStatusSuccessful
	if f.reverted {
		status = types.ReceiptStatusFailed
	}

	signer := types.LatestSignerForChainID(f.chainID)
	from, err := types.Sender(signer, f.sentTx)
	if err != nil {
		return nil, err
	}
	return &types.Receipt{
		Status:          status,
		TxHash:          txHash,
		ContractAddress: crypto.CreateAddress(from, f.sentTx.Nonce()),
		BlockNumber:     big.NewInt(777),
		GasUsed:         900_000,
	}, nil
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chainID: big.NewInt(11155111),
		balance: big.NewInt(1_000_000_000_000_000_000),
		nonce:   7,
	}
}

func testRequest(t *testing.T) Request {
	t.Helper()
	account, err := wallet.FromMnemonic(devMnemonic, "", 0)
	require.NoError(t, err)

	return Request{
		Network: "sepolia",
		ChainID: 11155111,
		Token: evm.TokenConfig{
			Name:        "My Token",
			Symbol:      "MYT",
			Decimals:    18,
			TotalSupply: big.NewInt(1000000000),
		},
		Artifact: &artifact.Artifact{
			ContractName: "MyToken",
			SourcePath:   "MyToken.sol",
			ABI:          json.RawMessage(tokenABI),
			Bytecode:     "0x60806040",
			Compiler:     artifact.Compiler{Version: "v0.8.20+commit.a1b2c3d4"},
		},
		Account: account,
	}
}

func testStore(t *testing.T) storage.Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDeploySuccess(t *testing.T) {
	backend := newFakeBackend()
	store := testStore(t)
	d := NewDeployer(backend, store, nil, nil)

	req := testRequest(t)
	result, err := d.Deploy(context.Background(), req)
	require.NoError(t, err)

	expectedAddr := crypto.CreateAddress(req.Account.Address, 7)
	assert.Equal(t, expectedAddr, result.ContractAddress)
	assert.Equal(t, int64(777), result.BlockNumber)
	assert.Equal(t, uint64(900_000), result.GasUsed)
	assert.NotEmpty(t, result.DeploymentID)

	// Creation data is bytecode plus encoded constructor args
	require.NotNil(t, backend.sentTx)
	data := backend.sentTx.Data()
	assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x40}, data[:4])
	assert.Greater(t, len(data), 4)

	// The run is recorded in the history
	record, err := store.GetDeployment(context.Background(), 11155111, expectedAddr.Hex())
	require.NoError(t, err)
	assert.Equal(t, "MYT", record.TokenSymbol)
	assert.Equal(t, "1000000000", record.TotalSupply)
	assert.Equal(t, req.Account.Address.Hex(), record.DeployerAddress)
}

func TestDeployChainIDMismatch(t *testing.T) {
	backend := newFakeBackend()
	backend.chainID = big.NewInt(1)

	d := NewDeployer(backend, nil, nil, nil)
	_, err := d.Deploy(context.Background(), testRequest(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain ID")
}

func TestDeployZeroBalance(t *testing.T) {
	backend := newFakeBackend()
	backend.balance = big.NewInt(0)

	d := NewDeployer(backend, nil, nil, nil)
	_, err := d.Deploy(context.Background(), testRequest(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero balance")
}

func TestDeployEstimateFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.estimateErr = context.DeadlineExceeded

	d := NewDeployer(backend, nil, nil, nil)
	_, err := d.Deploy(context.Background(), testRequest(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "estimating gas")
}

func TestDeployReverted(t *testing.T) {
	backend := newFakeBackend()
	backend.reverted = true

	d := NewDeployer(backend, nil, nil, nil)
	_, err := d.Deploy(context.Background(), testRequest(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reverted")
}

func TestDeployDryRun(t *testing.T) {
	backend := newFakeBackend()
	d := NewDeployer(backend, nil, nil, nil)

	req := testRequest(t)
	req.DryRun = true
	result, err := d.Deploy(context.Background(), req)
	require.NoError(t, err)

	assert.Nil(t, backend.sentTx)
	assert.Equal(t, uint64(1_000_000), result.GasEstimate)
	assert.Equal(t, common.Address{}, result.ContractAddress)
}

func TestDeployNoConstructorArgs(t *testing.T) {
	backend := newFakeBackend()
	d := NewDeployer(backend, nil, nil, nil)

	req := testRequest(t)
	req.Artifact.ABI = json.RawMessage(`[]`)
	_, err := d.Deploy(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x40}, backend.sentTx.Data())
}
