package networks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBuiltins(t *testing.T) {
	reg, err := Load("")
	require.NoError(t, err)

	sepolia, err := reg.Get("sepolia")
	require.NoError(t, err)
	assert.Equal(t, 11155111, sepolia.ChainID)
	assert.True(t, sepolia.Testnet)
	assert.NotEmpty(t, sepolia.RPCURL)

	mainnet, err := reg.Get("mainnet")
	require.NoError(t, err)
	assert.Equal(t, 1, mainnet.ChainID)
	assert.False(t, mainnet.Testnet)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	reg, err := Load(filepath.Join(t.TempDir(), "networks.toml"))
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Names())
}

func TestLoadOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.toml")
	content := `
[networks.devnet]
chain_id = 1337
rpc_url = "http://10.0.0.5:8545"
testnet = true

[networks.sepolia]
rpc_url = "https://my-private-sepolia.example.com"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	reg, err := Load(path)
	require.NoError(t, err)

	devnet, err := reg.Get("devnet")
	require.NoError(t, err)
	assert.Equal(t, 1337, devnet.ChainID)
	assert.Equal(t, "http://10.0.0.5:8545", devnet.RPCURL)

	// Partial override keeps the built-in chain ID
	sepolia, err := reg.Get("sepolia")
	require.NoError(t, err)
	assert.Equal(t, 11155111, sepolia.ChainID)
	assert.Equal(t, "https://my-private-sepolia.example.com", sepolia.RPCURL)
}

func TestLoadNewNetworkRequiresFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.toml")
	content := `
[networks.broken]
rpc_url = "http://10.0.0.5:8545"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain_id")
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestAPIKeyResolution(t *testing.T) {
	t.Setenv("ETHERSCAN_API_KEY", "shared")
	t.Setenv("SEPOLIA_API_KEY", "specific")

	reg, err := Load("")
	require.NoError(t, err)

	sepolia, err := reg.Get("sepolia")
	require.NoError(t, err)
	assert.Equal(t, "specific", sepolia.APIKey)
	assert.True(t, sepolia.CanVerify())

	mainnet, err := reg.Get("mainnet")
	require.NoError(t, err)
	assert.Equal(t, "shared", mainnet.APIKey)
}

func TestCanVerify(t *testing.T) {
	reg, err := Load("")
	require.NoError(t, err)

	// localhost has no explorer API at all
	local, err := reg.Get("localhost")
	require.NoError(t, err)
	assert.False(t, local.CanVerify())
}

func TestGetUnknown(t *testing.T) {
	reg, err := Load("")
	require.NoError(t, err)

	_, err = reg.Get("nosuchnet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nosuchnet")
}

func TestByChainID(t *testing.T) {
	reg, err := Load("")
	require.NoError(t, err)

	net, ok := reg.ByChainID(11155111)
	require.True(t, ok)
	assert.Equal(t, "sepolia", net.Name)

	_, ok = reg.ByChainID(424242)
	assert.False(t, ok)
}
