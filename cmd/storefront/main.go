package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront cart, order and payment verification service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()
			return logging.Init(logging.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}

	conf := func() *config.Config { return cfg }
	root.AddCommand(newServeCmd(conf), newMigrateCmd(conf), newReviewerTokenCmd(conf))
	return root
}
