package main

import (
	"context"
	"fmt"
	"time"

	"github.com/mestresdocafe/backend/internal/infrastructure/auth"
	"github.com/mestresdocafe/backend/internal/infrastructure/cache"
	"github.com/spf13/cobra"
)

func tokenCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and revoke API tokens",
	}
	cmd.AddCommand(tokenIssueCmd(opts), tokenRevokeCmd(opts))
	return cmd
}

func tokenIssueCmd(opts *options) *cobra.Command {
	var (
		subject string
		scopes  []string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a token for a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			for _, s := range scopes {
				if s != auth.ScopeRead && s != auth.ScopeWrite {
					return fmt.Errorf("unknown scope %q (want %s or %s)", s, auth.ScopeRead, auth.ScopeWrite)
				}
			}
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			issued, err := auth.NewTokenService(cfg.JWT).Issue(auth.IssueInput{
				TenantID: tenantID,
				Subject:  subject,
				Scopes:   scopes,
				TTL:      ttl,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), issued)
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "taxctl", "token subject (the calling system)")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{auth.ScopeRead}, "granted scopes")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "lifetime (default: jwt.token_expiration)")
	return cmd
}

func tokenRevokeCmd(opts *options) *cobra.Command {
	var jti string

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke one token by id, or every token of a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (jti == "") == (opts.tenant == "") {
				return fmt.Errorf("pass exactly one of --jti or --tenant")
			}
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			if !cfg.Redis.Enabled {
				return fmt.Errorf("revocation needs redis.enabled; the in-memory list is per process")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			client, err := cache.NewRedisClient(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()
			revocations := auth.NewRedisRevocationList(client)

			// Kept as long as a token issued with the default lifetime
			ttl := auth.NewTokenService(cfg.JWT).Expiration()
			if jti != "" {
				if err := revocations.RevokeToken(ctx, jti, ttl); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revoked token %s\n", jti)
				return nil
			}

			tenantID, err := opts.tenantID()
			if err != nil {
				return err
			}
			if err := revocations.RevokeTenant(ctx, tenantID.String(), ttl); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked every token of tenant %s issued before now\n", tenantID)
			return nil
		},
	}
	cmd.Flags().StringVar(&jti, "jti", "", "token id to revoke")
	return cmd
}
