package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/odoyewu/odoyewu/internal/auth"
	"github.com/odoyewu/odoyewu/internal/config"
)

// runToken prints a bearer token for a user id, for local testing against
// a running server
func runToken(args []string, cfg *config.Config, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(out)
	userID := fs.String("user", "", "user id (UUID) to issue the token for")
	ttl := fs.Duration("ttl", cfg.Auth.TokenTTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := uuid.Parse(*userID); err != nil {
		return fmt.Errorf("-user must be a UUID: %w", err)
	}
	if *ttl <= 0 {
		return fmt.Errorf("-ttl must be positive")
	}

	token, err := auth.GenerateToken(*userID, []byte(cfg.Auth.JWTSecret), *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
