package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/odoyewu/odoyewu/internal/config"
	"github.com/odoyewu/odoyewu/internal/database"
	"github.com/odoyewu/odoyewu/internal/services"
)

// runUserCommand connects to the configured database, applies migrations and
// registers one account
func runUserCommand(ctx context.Context, args []string, cfg *config.Config, out io.Writer) error {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	return runUser(ctx, args, services.NewUserService(database.NewPostgresStore(db)), out)
}

// runUser creates a user and prints its id
func runUser(ctx context.Context, args []string, users *services.UserService, out io.Writer) error {
	fs := flag.NewFlagSet("user", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "account email address")
	handle := fs.String("handle", "", "anonymous handle shown to other users")
	name := fs.String("name", "", "real name revealed to matches (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var realName *string
	if strings.TrimSpace(*name) != "" {
		realName = name
	}

	user, err := users.CreateUser(ctx, *email, *handle, realName)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, user.ID)
	return err
}
