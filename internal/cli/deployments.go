package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/libersoft-org/smart-contracts/internal/storage"
	"github.com/libersoft-org/smart-contracts/internal/validation"
)

func createDeploymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deployments",
		Short: "Inspect the local deployment history",
	}

	cmd.AddCommand(createDeploymentsListCmd())
	cmd.AddCommand(createDeploymentsShowCmd())

	return cmd
}

func createDeploymentsListCmd() *cobra.Command {
	var limit int
	var allNetworks bool
	var verifiedOnly bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded deployments",
		Long: `List recorded deployments, newest first.

EXAMPLES:
  # Deployments on the selected network
  smart-contracts deployments list

  # Everything, as JSON
  smart-contracts deployments list --all --json

  # Only verified contracts
  smart-contracts deployments list --verified
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, _, err := loadEnvironment()
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			filter := storage.DeploymentFilter{}
			if !allNetworks {
				filter.Network = networkName
			}
			if verifiedOnly {
				verified := true
				filter.Verified = &verified
			}

			page, err := store.ListDeployments(cmd.Context(), filter, storage.PaginationParams{Limit: limit})
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(page.Data)
			}

			if len(page.Data) == 0 {
				fmt.Println("No deployments recorded.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CREATED\tNETWORK\tSYMBOL\tADDRESS\tVERIFIED")
			for _, d := range page.Data {
				verified := ""
				if d.Verified {
					verified = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.CreatedAt, d.Network, d.TokenSymbol, d.Address, verified)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if page.HasMore {
				fmt.Printf("\n(more results, rerun with --limit %d)\n", limit*2)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of rows to show")
	cmd.Flags().BoolVar(&allNetworks, "all", false, "include every network")
	cmd.Flags().BoolVar(&verifiedOnly, "verified", false, "only verified deployments")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func createDeploymentsShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <address>",
		Short: "Show one recorded deployment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateAddress(args[0]); err != nil {
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

			store, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			d, err := store.GetDeployment(cmd.Context(), network.ChainID, args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(os.Stdout).Encode(d)
			}

			fmt.Printf("Contract:  %s\n", d.Address)
			fmt.Printf("Network:   %s (chain %d)\n", d.Network, d.ChainID)
			fmt.Printf("Token:     %s (%s), %d decimals, supply %s\n", d.TokenName, d.TokenSymbol, d.TokenDecimals, d.TotalSupply)
			fmt.Printf("Deployer:  %s\n", d.DeployerAddress)
			fmt.Printf("Tx:        %s (block %d)\n", d.TxHash, d.BlockNumber)
			fmt.Printf("Compiler:  %s\n", d.CompilerVersion)
			fmt.Printf("Deployed:  %s\n", d.CreatedAt)
			if d.Verified {
				fmt.Printf("Verified:  yes (%s)\n", d.VerifiedAt)
			} else if d.VerifyStatus != "" {
				fmt.Printf("Verified:  no (%s)\n", d.VerifyStatus)
			} else {
				fmt.Printf("Verified:  no\n")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
