package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vuquang23/go-steam-session/session"
	"github.com/vuquang23/go-steam-session/tokenstore"
	"go.etcd.io/bbolt"
)

var (
	storePath string
	hostURL   string
	debug     bool
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "steam-session",
	Short: "steam-session logs in to Steam and keeps the issued tokens",
	Long: `Logs in to Steam with a password or a QR code, stores the issued access
and refresh tokens locally and renews them on demand.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "steam-session.db", "Path of the token store")
	rootCmd.PersistentFlags().StringVar(&hostURL, "host", "", "Override the Steam Web API host")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log requests and session transitions")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Give up waiting for confirmations after this long")
}

func sessionOptions() []session.Option {
	opts := []session.Option{session.WithDebug(debug)}
	if hostURL != "" {
		opts = append(opts, session.WithHostURL(hostURL))
	}
	return opts
}

func openStore() (*tokenstore.Store, error) {
	return tokenstore.Open(storePath, &bbolt.Options{Timeout: time.Second})
}
