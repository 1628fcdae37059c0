package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bilancio/internal/cli"
	"bilancio/internal/config"
	applog "bilancio/internal/log"
)

// app carries what PersistentPreRunE prepared for the subcommands.
type app struct {
	envFile string
	cfg     *config.Config
	logger  *applog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "bilancio",
		Short:         "Personal income and expense tracker",
		Long:          "bilancio keeps an in-memory ledger of income and expenses and serves it as a web page with a running balance and charts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			if a.envFile != "" {
				files = append(files, a.envFile)
			}
			cfg, err := cli.LoadConfig(files...)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cli.SetupLogger(cfg)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "dotenv file to load before reading the environment (default .env)")

	root.AddCommand(newServeCmd(a), newEventsCmd(a))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bilancio:", err)
		os.Exit(1)
	}
}
