package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func createNetworksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List known networks",
		Long: `List the networks the tool can deploy to: the built-in table plus any
definitions from the networks TOML file.

A network can only be verified against when its explorer API endpoint and
an API key (ETHERSCAN_API_KEY or <NETWORK>_API_KEY) are configured.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, registry, err := loadEnvironment()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCHAIN ID\tCURRENCY\tTESTNET\tVERIFIABLE\tRPC")
			for _, net := range registry.List() {
				verifiable := "no"
				if net.CanVerify() {
					verifiable = "yes"
				}
				testnet := ""
				if net.Testnet {
					testnet = "yes"
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
					net.Name, net.ChainID, net.Currency, testnet, verifiable, net.RPCURL)
			}
			return w.Flush()
		},
	}
	return cmd
}
