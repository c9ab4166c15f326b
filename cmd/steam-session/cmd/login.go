package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/vuquang23/go-steam-session/community"
	"github.com/vuquang23/go-steam-session/tokenstore"
)

var loginDetails community.LoginDetails

var loginCmd = &cobra.Command{
	Use:   "login <account>",
	Short: "Log in with a password",
	Long: `Logs in with the password from the STEAM_PASSWORD environment variable, or
asks for it on stdin. A Steam Guard code is taken from --code or generated from
--shared-secret; codes still missing, or rejected, are asked for on stdin while
the login waits. Device and email approvals are waited for.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginDetails.TwoFactorCode, "code", "", "Steam Guard code")
	loginCmd.Flags().StringVar(&loginDetails.SharedSecret, "shared-secret", "", "Authenticator shared secret to generate codes from")
}

func runLogin(cmd *cobra.Command, args []string) error {
	details := loginDetails
	details.AccountName = args[0]

	prompt := newPrompter(cmd)
	details.Code = prompt.code

	details.Password = os.Getenv("STEAM_PASSWORD")
	if details.Password == "" {
		password, err := prompt.password("Password")
		if err != nil {
			return err
		}
		details.Password = password
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	// A machine token from an earlier login spares the email code.
	switch entry, err := store.Get(details.AccountName); {
	case err == nil:
		details.GuardData = entry.GuardData
	case !errors.Is(err, tokenstore.ErrNotFound):
		return err
	}

	client, err := community.NewClient(sessionOptions()...)
	if err != nil {
		return err
	}
	defer client.Logout()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	fmt.Fprintf(cmd.OutOrStdout(), "Logging in as %s, approve the login if asked to\n", details.AccountName)

	if err := client.Login(ctx, details); err != nil {
		return err
	}

	return save(cmd, store, client, details.AccountName)
}

func save(cmd *cobra.Command, store *tokenstore.Store, client *community.Client, accountName string) error {
	steamID, err := strconv.ParseUint(client.GetSteamID(), 10, 64)
	if err != nil {
		return err
	}

	if err := store.Put(tokenstore.Entry{
		AccountName:  accountName,
		SteamID:      steamID,
		AccessToken:  client.GetAccessToken(),
		RefreshToken: client.GetRefreshToken(),
		GuardData:    client.GetGuardData(),
	}); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%d)\n", accountName, steamID)

	return nil
}
