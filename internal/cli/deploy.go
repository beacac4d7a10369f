package cli

import (
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/libersoft-org/smart-contracts/internal/artifact"
	"github.com/libersoft-org/smart-contracts/internal/chain"
	"github.com/libersoft-org/smart-contracts/internal/config"
	"github.com/libersoft-org/smart-contracts/internal/deploy"
	"github.com/libersoft-org/smart-contracts/internal/evm"
	"github.com/libersoft-org/smart-contracts/internal/networks"
	"github.com/libersoft-org/smart-contracts/internal/storage"
	"github.com/libersoft-org/smart-contracts/internal/validation"
	"github.com/libersoft-org/smart-contracts/internal/wallet"
)

func createDeployCmd() *cobra.Command {
	var tokenName string
	var tokenSymbol string
	var decimals int
	var supply string
	var artifactPath string
	var contractsDir string
	var accountName string
	var accountIndex int
	var gasLimit uint64
	var dryRun bool
	var noVerify bool
	var yes bool
	var reportPath string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy an ERC-20 token",
		Long: `Deploy an ERC-20 token contract to the selected network.

Token parameters not given as flags are asked for interactively. After a
successful deployment the contract is checked on-chain and, when an
explorer API key is configured, submitted for source verification.

The deployer key comes from, in order: --account (a stored keystore
account), the MNEMONIC environment variable, or the PRIVATE_KEY
environment variable.

EXAMPLES:
  # Interactive deployment to sepolia
  smart-contracts deploy --artifact build/MyToken.json

  # Fully scripted
  smart-contracts deploy --network sepolia --artifact build/MyToken.json \
    --name "My Token" --symbol MYT --decimals 18 --supply 1000000000 --yes

  # Estimate gas without broadcasting
  smart-contracts deploy --artifact build/MyToken.json --dry-run
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, deployOptions{
				tokenName:    tokenName,
				tokenSymbol:  tokenSymbol,
				decimals:     decimals,
				supply:       supply,
				artifactPath: artifactPath,
				contractsDir: contractsDir,
				accountName:  accountName,
				accountIndex: accountIndex,
				gasLimit:     gasLimit,
				dryRun:       dryRun,
				noVerify:     noVerify,
				yes:          yes,
				reportPath:   reportPath,
			})
		},
	}

	cmd.Flags().StringVar(&tokenName, "name", "", "token name")
	cmd.Flags().StringVar(&tokenSymbol, "symbol", "", "token symbol")
	cmd.Flags().IntVar(&decimals, "decimals", -1, "token decimals (0-18)")
	cmd.Flags().StringVar(&supply, "supply", "", "total supply in whole tokens")
	cmd.Flags().StringVar(&artifactPath, "artifact", "", "compiled contract artifact JSON (required)")
	cmd.Flags().StringVar(&contractsDir, "contracts-dir", "", "directory the artifact's source paths resolve against (default: artifact directory)")
	cmd.Flags().StringVar(&accountName, "account", "", "stored keystore account to deploy from")
	cmd.Flags().IntVar(&accountIndex, "account-index", 0, "HD derivation index when using MNEMONIC")
	cmd.Flags().Uint64Var(&gasLimit, "gas-limit", 0, "gas limit override (0 = estimate)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "estimate gas and stop without broadcasting")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip post-deployment verification")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().StringVar(&reportPath, "report", "", "write the verification report as YAML to this file")
	_ = cmd.MarkFlagRequired("artifact")

	return cmd
}

type deployOptions struct {
	tokenName    string
	tokenSymbol  string
	decimals     int
	supply       string
	artifactPath string
	contractsDir string
	accountName  string
	accountIndex int
	gasLimit     uint64
	dryRun       bool
	noVerify     bool
	yes          bool
	reportPath   string
}

func runDeploy(cmd *cobra.Command, opts deployOptions) error {
	ctx := cmd.Context()

	cfg, logger, registry, err := loadEnvironment()
	if err != nil {
		return err
	}

	network, err := registry.Get(networkName)
	if err != nil {
		return err
	}

	art, err := artifact.Load(opts.artifactPath)
	if err != nil {
		return err
	}
	contractsDir := opts.contractsDir
	if contractsDir == "" {
		contractsDir = filepath.Dir(opts.artifactPath)
	}

	token, err := resolveTokenConfig(opts)
	if err != nil {
		return err
	}

	account, err := resolveAccount(cfg.DataDir, opts.accountName, opts.accountIndex)
	if err != nil {
		return err
	}

	fmt.Fprintf(out(), "\nDeployment plan:\n")
	fmt.Fprintf(out(), "  Network:  %s (chain %d)\n", network.Name, network.ChainID)
	fmt.Fprintf(out(), "  Contract: %s\n", art.ContractName)
	fmt.Fprintf(out(), "  Token:    %s (%s), %d decimals, supply %s\n", token.Name, token.Symbol, token.Decimals, token.TotalSupply)
	fmt.Fprintf(out(), "  Deployer: %s\n\n", account.Address.Hex())

	if !opts.yes && !opts.dryRun {
		ok, err := captureYesNo(fmt.Sprintf("Deploy to %s", network.Name))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out(), "Aborted")
			return nil
		}
	}

	client, err := chain.NewClient(ctx, network.RPCURL)
	if err != nil {
		return err
	}
	defer client.Close()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	deployer := deploy.NewDeployer(client, store, logger, out())
	result, err := deployer.Deploy(ctx, deploy.Request{
		Network:  network.Name,
		ChainID:  network.ChainID,
		Token:    token,
		Artifact: art,
		Account:  account,
		GasLimit: opts.gasLimit,
		DryRun:   opts.dryRun,
	})
	if err != nil {
		return err
	}
	if opts.dryRun {
		fmt.Fprintf(out(), "Estimated gas: %d\n", result.GasEstimate)
		return nil
	}

	if network.ExplorerURL != "" {
		fmt.Fprintf(out(), "🔗 %s/address/%s\n", network.ExplorerURL, result.ContractAddress.Hex())
	}

	if opts.noVerify {
		return nil
	}

	return runVerification(ctx, verificationInput{
		cfg:          cfg,
		logger:       logger,
		network:      network,
		client:       client,
		store:        store,
		deploymentID: result.DeploymentID,
		address:      result.ContractAddress,
		token:        token,
		artifact:     art,
		contractsDir: contractsDir,
		reportPath:   opts.reportPath,
	})
}

// resolveTokenConfig merges flags with interactive prompts.
func resolveTokenConfig(opts deployOptions) (evm.TokenConfig, error) {
	var token evm.TokenConfig
	var err error

	token.Name = opts.tokenName
	if token.Name == "" {
		if token.Name, err = captureTokenName(); err != nil {
			return token, err
		}
	} else if err = validation.ValidateTokenName(token.Name); err != nil {
		return token, err
	}

	token.Symbol = opts.tokenSymbol
	if token.Symbol == "" {
		if token.Symbol, err = captureTokenSymbol(); err != nil {
			return token, err
		}
	} else if err = validation.ValidateTokenSymbol(token.Symbol); err != nil {
		return token, err
	}

	decimals := opts.decimals
	if decimals < 0 {
		if decimals, err = captureDecimals(); err != nil {
			return token, err
		}
	} else if err = validation.ValidateDecimals(decimals); err != nil {
		return token, err
	}
	token.Decimals = uint8(decimals)

	if opts.supply != "" {
		supply, ok := new(big.Int).SetString(opts.supply, 10)
		if !ok {
			return token, fmt.Errorf("total supply is not a decimal number: %s", opts.supply)
		}
		if err = validation.ValidateTotalSupply(supply); err != nil {
			return token, err
		}
		token.TotalSupply = supply
	} else {
		if token.TotalSupply, err = captureTotalSupply(); err != nil {
			return token, err
		}
	}

	return token, nil
}

// resolveAccount finds the deployer key: stored keystore account,
// MNEMONIC env, or PRIVATE_KEY env.
func resolveAccount(dataDir, accountName string, index int) (*wallet.Account, error) {
	if accountName != "" {
		ks, err := wallet.NewKeystore(filepath.Join(dataDir, "keys"))
		if err != nil {
			return nil, err
		}
		password, err := capturePassword(fmt.Sprintf("Password for account %q", accountName))
		if err != nil {
			return nil, err
		}
		return ks.Load(accountName, password)
	}

	if mnemonic := os.Getenv("MNEMONIC"); mnemonic != "" {
		if err := validation.ValidateDerivationIndex(index); err != nil {
			return nil, err
		}
		return wallet.FromMnemonic(mnemonic, os.Getenv("MNEMONIC_PASSPHRASE"), index)
	}

	if key := os.Getenv("PRIVATE_KEY"); key != "" {
		return wallet.FromPrivateKey(key)
	}

	return nil, fmt.Errorf("no deployer key: use --account, or set MNEMONIC or PRIVATE_KEY")
}

type verificationInput struct {
	cfg          *config.Config
	logger       *slog.Logger
	network      networks.Network
	client       *chain.Client
	store        storage.Store
	deploymentID string
	address      common.Address
	token        evm.TokenConfig
	artifact     *artifact.Artifact
	contractsDir string
	reportPath   string
}
