package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vuquang23/go-steam-session/session"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh <account>",
	Short: "Renew the stored access token",
	Args:  cobra.ExactArgs(1),
	RunE:  runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Get(args[0])
	if err != nil {
		return err
	}

	manager := session.New(sessionOptions()...)
	defer manager.Close()

	pair, err := manager.Refresh(cmd.Context(), entry.RefreshToken)
	if err != nil {
		return err
	}

	entry.AccessToken, entry.RefreshToken = pair.AccessToken, pair.RefreshToken

	if err := store.Put(*entry); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Refreshed %s\n", entry.AccountName)

	return nil
}
