package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ems/internal/cli"
	"ems/internal/config"
	apphttp "ems/internal/http"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for local development",
		Long: `Sign an HS256 bearer token with JWT_SECRET whose subject is the given
user id. Tokens are normally issued by the identity provider in front of
the API; this command exists for local testing.`,
		Args: cobra.NoArgs,
		RunE: runToken,
	}
	cmd.Flags().String("user", "", "User id (UUID); a random one is generated when empty")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := cli.LoadConfig((*config.Config).ValidateServer)
	if err != nil {
		return err
	}

	raw, _ := cmd.Flags().GetString("user")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	if ttl <= 0 {
		return fmt.Errorf("invalid ttl %v: must be positive", ttl)
	}

	user := uuid.New()
	if raw != "" {
		if user, err = uuid.Parse(raw); err != nil || user == uuid.Nil {
			return fmt.Errorf("invalid user id %q", raw)
		}
	}

	token, err := apphttp.NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer).Sign(user, ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
