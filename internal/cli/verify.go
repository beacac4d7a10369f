package cli

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/libersoft-org/smart-contracts/internal/artifact"
	"github.com/libersoft-org/smart-contracts/internal/chain"
	"github.com/libersoft-org/smart-contracts/internal/evm"
	"github.com/libersoft-org/smart-contracts/internal/storage"
	"github.com/libersoft-org/smart-contracts/internal/validation"
	"github.com/libersoft-org/smart-contracts/internal/verify"
)

func createVerifyCmd() *cobra.Command {
	var artifactPath string
	var contractsDir string
	var tokenName string
	var tokenSymbol string
	var decimals int
	var supply string
	var reportPath string

	cmd := &cobra.Command{
		Use:   "verify <address>",
		Short: "Verify a deployed token contract",
		Long: `Verify a previously deployed token contract.

Checks that code exists at the address, decodes the compiler metadata from
the deployed bytecode, reads the token's name, symbol, decimals and total
supply, and submits the source for explorer verification when an API key
is configured.

Token parameters default to the recorded deployment when the address is
found in the local history; flags override them.

EXAMPLES:
  # Verify a recorded deployment
  smart-contracts verify 0x1234... --artifact build/MyToken.json

  # Verify with explicit token parameters
  smart-contracts verify 0x1234... --artifact build/MyToken.json \
    --name "My Token" --symbol MYT --decimals 18 --supply 1000000000

  # Save the report
  smart-contracts verify 0x1234... --artifact build/MyToken.json --report verify.yaml
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerifyCmd(cmd, args[0], artifactPath, contractsDir,
				tokenName, tokenSymbol, decimals, supply, reportPath)
		},
	}

	cmd.Flags().StringVar(&artifactPath, "artifact", "", "compiled contract artifact JSON (required)")
	cmd.Flags().StringVar(&contractsDir, "contracts-dir", "", "directory the artifact's source paths resolve against (default: artifact directory)")
	cmd.Flags().StringVar(&tokenName, "name", "", "expected token name")
	cmd.Flags().StringVar(&tokenSymbol, "symbol", "", "expected token symbol")
	cmd.Flags().IntVar(&decimals, "decimals", -1, "expected token decimals")
	cmd.Flags().StringVar(&supply, "supply", "", "expected total supply in whole tokens")
	cmd.Flags().StringVar(&reportPath, "report", "", "write the verification report as YAML to this file")
	_ = cmd.MarkFlagRequired("artifact")

	return cmd
}

func runVerifyCmd(cmd *cobra.Command, address, artifactPath, contractsDir,
	tokenName, tokenSymbol string, decimals int, supply, reportPath string) error {
	ctx := cmd.Context()

	if err := validation.ValidateAddress(address); err != nil {
		return err
	}

	cfg, logger, registry, err := loadEnvironment()
	if err != nil {
		return err
	}
	network, err := registry.Get(networkName)
	if err != nil {
		return err
	}

	art, err := artifact.Load(artifactPath)
	if err != nil {
		return err
	}
	if contractsDir == "" {
		contractsDir = filepath.Dir(artifactPath)
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	token, deploymentID, err := tokenFromHistory(ctx, store, network.ChainID, address,
		tokenName, tokenSymbol, decimals, supply)
	if err != nil {
		return err
	}

	client, err := chain.NewClient(ctx, network.RPCURL)
	if err != nil {
		return err
	}
	defer client.Close()

	return runVerification(ctx, verificationInput{
		cfg:          cfg,
		logger:       logger,
		network:      network,
		client:       client,
		store:        store,
		deploymentID: deploymentID,
		address:      common.HexToAddress(address),
		token:        token,
		artifact:     art,
		contractsDir: contractsDir,
		reportPath:   reportPath,
	})
}

// tokenFromHistory fills token parameters from the recorded deployment,
// letting explicit flags win.
func tokenFromHistory(ctx context.Context, store storage.Store, chainID int, address,
	name, symbol string, decimals int, supply string) (evm.TokenConfig, string, error) {
	var token evm.TokenConfig
	var deploymentID string

	record, err := store.GetDeployment(ctx, chainID, address)
	switch {
	case err == nil:
		deploymentID = record.ID
		token.Name = record.TokenName
		token.Symbol = record.TokenSymbol
		token.Decimals = uint8(record.TokenDecimals)
		token.TotalSupply, _ = new(big.Int).SetString(record.TotalSupply, 10)
	case errors.Is(err, storage.ErrNotFound):
		// Not recorded locally; everything must come from flags.
	default:
		return token, "", err
	}

	if name != "" {
		token.Name = name
	}
	if symbol != "" {
		token.Symbol = symbol
	}
	if decimals >= 0 {
		token.Decimals = uint8(decimals)
	}
	if supply != "" {
		v, ok := new(big.Int).SetString(supply, 10)
		if !ok {
			return token, "", fmt.Errorf("total supply is not a decimal number: %s", supply)
		}
		token.TotalSupply = v
	}

	if token.Name == "" || token.Symbol == "" || token.TotalSupply == nil {
		return token, "", fmt.Errorf("deployment not found in history; provide --name, --symbol, --decimals and --supply")
	}
	return token, deploymentID, nil
}

// runVerification drives the orchestrator and persists the outcome. Shared
// by the deploy and verify commands.
func runVerification(ctx context.Context, in verificationInput) error {
	var explorer verify.Explorer
	if in.network.CanVerify() {
		explorer = verify.NewEtherscanClient(in.network.ExplorerAPI, in.network.APIKey, in.logger)
	}

	timing := verify.Timing{
		GracePeriod:    in.cfg.Verification.GracePeriod,
		RetryInterval:  in.cfg.Verification.RetryInterval,
		PollInterval:   in.cfg.Verification.PollInterval,
		SubmitAttempts: in.cfg.Verification.SubmitAttempts,
		PollAttempts:   in.cfg.Verification.PollAttempts,
	}

	orchestrator := verify.NewOrchestrator(in.client, explorer, timing, in.logger, out())
	result, err := orchestrator.Run(ctx, verify.Request{
		ContractAddress: in.address,
		ChainID:         in.network.ChainID,
		Token:           in.token,
		Artifact:        in.artifact,
		ContractsDir:    in.contractsDir,
		LicenseType:     3, // MIT
	})
	if err != nil {
		return err
	}

	if in.deploymentID != "" {
		verified := result.Job.Status == verify.StatusVerified
		if err := in.store.UpdateVerification(ctx, in.deploymentID,
			string(result.Job.Status), result.Job.GUID, verified); err != nil {
			in.logger.Warn("recording verification outcome failed", "err", err)
		}
	}

	verify.RenderText(result, out())

	if in.reportPath != "" {
		f, err := os.Create(in.reportPath)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer f.Close()
		if err := verify.BuildReport(result).WriteYAML(f); err != nil {
			return err
		}
		fmt.Fprintf(out(), "📄 Report written to %s\n", in.reportPath)
	}

	if !result.Success {
		return fmt.Errorf("verification failed: %d of %d checks failed",
			result.Summary.Failed, result.Summary.Passed+result.Summary.Failed)
	}
	return nil
}
