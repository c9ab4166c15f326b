package cmd

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"github.com/vuquang23/go-steam-session/token"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [account]",
	Short: "Show stored accounts, or the token claims of one account",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 0 {
		names, err := store.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	entry, err := store.Get(args[0])
	if err != nil {
		return err
	}

	config := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableMethods: true}

	for _, tok := range []struct {
		name  string
		value string
	}{
		{"access token", entry.AccessToken},
		{"refresh token", entry.RefreshToken},
	} {
		claims, err := token.Parse(tok.value)
		if err != nil {
			return fmt.Errorf("%s: %w", tok.name, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s (expires %s):\n", tok.name, claims.Expiry())
		config.Fdump(cmd.OutOrStdout(), claims)
	}

	return nil
}
