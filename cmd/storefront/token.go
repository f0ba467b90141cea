package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/auth"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
)

func newReviewerTokenCmd(conf func() *config.Config) *cobra.Command {
	var (
		reviewerID string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "reviewer-token",
		Short: "Mint a bearer token for a payment reviewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := conf()
			token, expires, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).IssueReviewerToken(reviewerID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n# expires %s\n", token, expires.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&reviewerID, "id", "", "reviewer id")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
