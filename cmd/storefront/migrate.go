package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

func newMigrateCmd(conf func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back ledger schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := repository.OpenPostgres(cmd.Context(), conf().Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.RunMigrations(db.DB, repository.DialectPostgres); err != nil {
				return err
			}
			logging.New("migrate").Info("Migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations, one step by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return err
				}
				steps = n
			}

			db, err := repository.OpenPostgres(cmd.Context(), conf().Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.RollbackMigrations(db.DB, repository.DialectPostgres, steps); err != nil {
				return err
			}
			logging.New("migrate").Info("Migrations rolled back", logging.Fields{"steps": steps})
			return nil
		},
	})

	return cmd
}
