// Package networks holds the registry of EVM networks the tool can deploy
// to: built-in defaults plus user overrides from a TOML file.
package networks

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Network describes one EVM chain endpoint.
type Network struct {
	Name        string `toml:"-"`
	ChainID     int    `toml:"chain_id"`
	RPCURL      string `toml:"rpc_url"`
	ExplorerAPI string `toml:"explorer_api,omitempty"`
	ExplorerURL string `toml:"explorer_url,omitempty"`
	Currency    string `toml:"currency,omitempty"`
	Testnet     bool   `toml:"testnet,omitempty"`
	// APIKey is never read from the TOML file; it comes from the
	// environment so keys stay out of committed config.
	APIKey string `toml:"-"`
}

// etherscanV2API is the unified endpoint; the chain is selected by the
// chainid request parameter.
const etherscanV2API = "https://api.etherscan.io/v2/api"

// builtin is the default network table. The TOML file can override any
// entry by name.
func builtin() map[string]Network {
	return map[string]Network{
		"mainnet": {
			Name:        "mainnet",
			ChainID:     1,
			RPCURL:      "https://eth.llamarpc.com",
			ExplorerAPI: etherscanV2API,
			ExplorerURL: "https://etherscan.io",
			Currency:    "ETH",
		},
		"sepolia": {
			Name:        "sepolia",
			ChainID:     11155111,
			RPCURL:      "https://ethereum-sepolia-rpc.publicnode.com",
			ExplorerAPI: etherscanV2API,
			ExplorerURL: "https://sepolia.etherscan.io",
			Currency:    "ETH",
			Testnet:     true,
		},
		"polygon": {
			Name:        "polygon",
			ChainID:     137,
			RPCURL:      "https://polygon-rpc.com",
			ExplorerAPI: etherscanV2API,
			ExplorerURL: "https://polygonscan.com",
			Currency:    "POL",
		},
		"bsc": {
			Name:        "bsc",
			ChainID:     56,
			RPCURL:      "https://bsc-dataseed.binance.org",
			ExplorerAPI: etherscanV2API,
			ExplorerURL: "https://bscscan.com",
			Currency:    "BNB",
		},
		"base": {
			Name:        "base",
			ChainID:     8453,
			RPCURL:      "https://mainnet.base.org",
			ExplorerAPI: etherscanV2API,
			ExplorerURL: "https://basescan.org",
			Currency:    "ETH",
		},
		"arbitrum": {
			Name:        "arbitrum",
			ChainID:     42161,
			RPCURL:      "https://arb1.arbitrum.io/rpc",
			ExplorerAPI: etherscanV2API,
			ExplorerURL: "https://arbiscan.io",
			Currency:    "ETH",
		},
		"localhost": {
			Name:     "localhost",
			ChainID:  31337,
			RPCURL:   "http://127.0.0.1:8545",
			Currency: "ETH",
			Testnet:  true,
		},
	}
}

// networksFile is the user override file layout:
//
//	[networks.mynet]
//	chain_id = 1337
//	rpc_url = "http://10.0.0.5:8545"
type networksFile struct {
	Networks map[string]Network `toml:"networks"`
}

// Registry resolves network names to endpoints.
type Registry struct {
	networks map[string]Network
}

// Load builds the registry from the built-in table, an optional TOML
// override file, and API keys from the environment. A missing file is not
// an error; a malformed one is.
func Load(path string) (*Registry, error) {
	nets := builtin()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading networks file: %w", err)
		}
		if err == nil {
			var file networksFile
			if _, err := toml.Decode(string(data), &file); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
			for name, net := range file.Networks {
				net.Name = name
				if net.ChainID == 0 {
					if existing, ok := nets[name]; ok {
						net.ChainID = existing.ChainID
					} else {
						return nil, fmt.Errorf("network %q: chain_id is required", name)
					}
				}
				if net.RPCURL == "" {
					if existing, ok := nets[name]; ok {
						net.RPCURL = existing.RPCURL
					} else {
						return nil, fmt.Errorf("network %q: rpc_url is required", name)
					}
				}
				nets[name] = net
			}
		}
	}

	for name, net := range nets {
		net.APIKey = apiKeyFor(name)
		nets[name] = net
	}

	return &Registry{networks: nets}, nil
}

// apiKeyFor resolves the explorer API key: a network-specific variable
// (SEPOLIA_API_KEY) wins over the shared ETHERSCAN_API_KEY.
func apiKeyFor(name string) string {
	specific := strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_API_KEY"
	if key := os.Getenv(specific); key != "" {
		return key
	}
	return os.Getenv("ETHERSCAN_API_KEY")
}

// Get resolves a network by name.
func (r *Registry) Get(name string) (Network, error) {
	net, ok := r.networks[name]
	if !ok {
		return Network{}, fmt.Errorf("unknown network %q (known: %s)", name, strings.Join(r.Names(), ", "))
	}
	return net, nil
}

// ByChainID resolves a network by chain ID.
func (r *Registry) ByChainID(chainID int) (Network, bool) {
	for _, net := range r.networks {
		if net.ChainID == chainID {
			return net, true
		}
	}
	return Network{}, false
}

// Names returns all network names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.networks))
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all networks sorted by name.
func (r *Registry) List() []Network {
	nets := make([]Network, 0, len(r.networks))
	for _, name := range r.Names() {
		nets = append(nets, r.networks[name])
	}
	return nets
}

// CanVerify reports whether the network has both an explorer API endpoint
// and an API key, the two prerequisites for source verification.
func (n Network) CanVerify() bool {
	return n.ExplorerAPI != "" && n.APIKey != ""
}
