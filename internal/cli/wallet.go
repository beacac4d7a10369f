package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/libersoft-org/smart-contracts/internal/validation"
	"github.com/libersoft-org/smart-contracts/internal/wallet"
)

func createWalletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage deployer accounts",
	}

	cmd.AddCommand(createWalletNewCmd())
	cmd.AddCommand(createWalletImportCmd())
	cmd.AddCommand(createWalletListCmd())
	cmd.AddCommand(createWalletDeleteCmd())

	return cmd
}

func openKeystore() (*wallet.Keystore, error) {
	cfg, _, _, err := loadEnvironment()
	if err != nil {
		return nil, err
	}
	return wallet.NewKeystore(filepath.Join(cfg.DataDir, "keys"))
}

func createWalletNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Generate a new account",
		Long: `Generate a fresh BIP-39 mnemonic, derive the first account, and store
it encrypted under the given name.

The mnemonic is printed ONCE. Write it down; it is not stored.

EXAMPLES:
  smart-contracts wallet new deployer
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := openKeystore()
			if err != nil {
				return err
			}

			mnemonic, err := wallet.NewMnemonic()
			if err != nil {
				return err
			}
			account, err := wallet.FromMnemonic(mnemonic, "", 0)
			if err != nil {
				return err
			}

			password, err := capturePasswordConfirmed("Keystore password")
			if err != nil {
				return err
			}
			if err := ks.Save(account, args[0], password); err != nil {
				return err
			}

			fmt.Printf("✅ Account %q created: %s\n\n", args[0], account.Address.Hex())
			fmt.Println("Recovery mnemonic (write it down, it is shown only once):")
			fmt.Printf("\n  %s\n\n", mnemonic)
			return nil
		},
	}
	return cmd
}

func createWalletImportCmd() *cobra.Command {
	var index int
	var fromKey bool

	cmd := &cobra.Command{
		Use:   "import <name>",
		Short: "Import an account from a mnemonic or private key",
		Long: `Import an account and store it encrypted under the given name.

The secret is read from an interactive prompt, never from arguments, so
it stays out of the shell history.

EXAMPLES:
  # Import from a mnemonic, first account
  smart-contracts wallet import deployer

  # Import a different derivation index
  smart-contracts wallet import treasury --index 3

  # Import a raw private key
  smart-contracts wallet import deployer --private-key
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := openKeystore()
			if err != nil {
				return err
			}

			var account *wallet.Account
			if fromKey {
				key, err := capturePassword("Private key (hex)")
				if err != nil {
					return err
				}
				account, err = wallet.FromPrivateKey(key)
				if err != nil {
					return err
				}
			} else {
				if err := validation.ValidateDerivationIndex(index); err != nil {
					return err
				}
				mnemonic, err := capturePassword("Mnemonic")
				if err != nil {
					return err
				}
				account, err = wallet.FromMnemonic(mnemonic, "", index)
				if err != nil {
					return err
				}
			}

			password, err := capturePasswordConfirmed("Keystore password")
			if err != nil {
				return err
			}
			if err := ks.Save(account, args[0], password); err != nil {
				return err
			}

			fmt.Printf("✅ Account %q imported: %s\n", args[0], account.Address.Hex())
			return nil
		},
	}

	cmd.Flags().IntVar(&index, "index", 0, "HD derivation index")
	cmd.Flags().BoolVar(&fromKey, "private-key", false, "import a raw private key instead of a mnemonic")

	return cmd
}

func createWalletListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := openKeystore()
			if err != nil {
				return err
			}
			accounts, err := ks.List()
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				fmt.Println("No stored accounts. Create one with 'wallet new'.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tADDRESS")
			for name, addr := range accounts {
				fmt.Fprintf(w, "%s\t%s\n", name, addr.Hex())
			}
			return w.Flush()
		},
	}
	return cmd
}

func createWalletDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := openKeystore()
			if err != nil {
				return err
			}

			if !yes {
				ok, err := captureYesNo(fmt.Sprintf("Delete account %q (cannot be undone)", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			if err := ks.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("✅ Account %q deleted\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
