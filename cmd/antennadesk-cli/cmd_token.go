package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sliea/antennadesk/internal/auth"
	"github.com/sliea/antennadesk/internal/models"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Work with bearer tokens",
		Args:  cobra.NoArgs,
		RunE:  showGroupHelp,
	}
	cmd.AddCommand(tokenIssueCmd())
	return cmd
}

func tokenIssueCmd() *cobra.Command {
	var subject, role, secret, issuer string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a token for a principal with the server secret",
		Long: `Sign an HS256 token for local use and testing.

The secret defaults to ANTENNADESK_JWT_SECRET, then JWT_SECRET, so the CLI can
share the server's environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := issueToken(subject, role, secret, issuer, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Principal ID (user UUID)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleUser), "Role: user|admin")
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret (env: ANTENNADESK_JWT_SECRET)")
	cmd.Flags().StringVar(&issuer, "issuer", "", "Issuer claim (must match JWT_ISSUER if the server sets it)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime (0 for no expiry)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func issueToken(subject, role, secret, issuer string, ttl time.Duration) (string, error) {
	if secret == "" {
		secret = os.Getenv("ANTENNADESK_JWT_SECRET")
	}
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		return "", fmt.Errorf("no secret: set --secret or ANTENNADESK_JWT_SECRET")
	}

	r := models.Role(role)
	if r != models.RoleAdmin && r != models.RoleUser {
		return "", fmt.Errorf("unknown role %q", role)
	}
	if ttl < 0 {
		return "", fmt.Errorf("--ttl must not be negative")
	}

	return auth.NewIssuer(secret, issuer).Issue(subject, r, ttl)
}
