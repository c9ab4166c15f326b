package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vuquang23/go-steam-session/community"
)

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Log in by scanning a QR code with the mobile app",
	Long: `Prints the challenge URL to encode as a QR code, and a new one whenever it
rotates, then waits for the login to be approved in the mobile app.`,
	Args: cobra.NoArgs,
	RunE: runQR,
}

func init() {
	rootCmd.AddCommand(qrCmd)
}

func runQR(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := community.NewClient(sessionOptions()...)
	if err != nil {
		return err
	}
	defer client.Logout()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if err := client.LoginWithQR(ctx, func(challengeURL string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Scan: %s\n", challengeURL)
	}); err != nil {
		return err
	}

	// The account is only known once the login was approved.
	return save(cmd, store, client, client.GetAccountName())
}
