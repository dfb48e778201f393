package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/auth"
)

var (
	tokenUser  string
	tokenAdmin bool
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign a JWT for local testing (requires JWT_SECRET)",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User id to embed in the token")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "Grant the admin role")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	role := internal.RoleUser
	if tokenAdmin {
		role = internal.RoleAdmin
	}
	token, err := auth.NewJWTProvider(cfg.Auth.JWTSecret, logger).Issue(tokenUser, role, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
