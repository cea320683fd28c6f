// Command staffctl manages staff accounts from the shell.
//
//	staffctl create-user --email dj@radio.cl --password ... --role STAFF
//	staffctl set-password --email dj@radio.cl --password ...
//	staffctl migrate
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/jmoiron/sqlx"

	"radiohits-backend-go/internal/db"
	"radiohits-backend-go/internal/migrations"
	"radiohits-backend-go/internal/models"
	"radiohits-backend-go/internal/services"
)

type globalOptions struct {
	DatabaseURL string `long:"database-url" env:"DATABASE_URL" description:"Postgres connection string" required:"true"`
	Timeout     int    `long:"timeout" env:"STAFFCTL_TIMEOUT_SECONDS" default:"15" description:"Timeout in seconds"`
}

// accountStore is the part of services.UserStore the commands use.
type accountStore interface {
	Create(ctx context.Context, in services.NewUser) (models.User, error)
	SetPassword(ctx context.Context, email, hash string) error
}

type app struct {
	opts   globalOptions
	tokens services.TokenService
	open   func(ctx context.Context, dsn string) (*sqlx.DB, error)
	// store overrides the database-backed store in tests.
	store accountStore
	out   io.Writer
}

func (a *app) context() (context.Context, context.CancelFunc) {
	timeout := time.Duration(a.opts.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (a *app) withStore(fn func(ctx context.Context, store accountStore) error) error {
	ctx, cancel := a.context()
	defer cancel()
	if a.store != nil {
		return fn(ctx, a.store)
	}
	database, err := a.open(ctx, a.opts.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(ctx, services.UserStore{DB: database})
}

type createUserCommand struct {
	app      *app
	Email    string   `long:"email" description:"Login email" required:"true"`
	Password string   `long:"password" description:"Initial password, at least 8 characters" required:"true"`
	Name     string   `long:"name" description:"Display name shown as author"`
	Roles    []string `long:"role" description:"Role to grant (STAFF or ADMIN), repeatable" default:"STAFF"`
}

func (c *createUserCommand) Execute(_ []string) error {
	hash, err := c.app.tokens.HashPassword(c.Password)
	if err != nil {
		return err
	}
	return c.app.withStore(func(ctx context.Context, store accountStore) error {
		user, err := store.Create(ctx, services.NewUser{
			Email:        c.Email,
			DisplayName:  c.Name,
			PasswordHash: hash,
			Roles:        c.Roles,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.app.out, "created %s (%s) roles=%v\n", user.Email, user.ID, c.Roles)
		return nil
	})
}

type setPasswordCommand struct {
	app      *app
	Email    string `long:"email" description:"Login email" required:"true"`
	Password string `long:"password" description:"New password, at least 8 characters" required:"true"`
}

func (c *setPasswordCommand) Execute(_ []string) error {
	hash, err := c.app.tokens.HashPassword(c.Password)
	if err != nil {
		return err
	}
	return c.app.withStore(func(ctx context.Context, store accountStore) error {
		if err := store.SetPassword(ctx, c.Email, hash); err != nil {
			return err
		}
		fmt.Fprintf(c.app.out, "password updated for %s\n", services.NormalizeEmail(c.Email))
		return nil
	})
}

type migrateCommand struct {
	app *app
}

func (c *migrateCommand) Execute(_ []string) error {
	ctx, cancel := c.app.context()
	defer cancel()
	database, err := c.app.open(ctx, c.app.opts.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := migrations.Apply(database); err != nil {
		return err
	}
	fmt.Fprintln(c.app.out, "migrations applied")
	return nil
}

func newParser(a *app) *flags.Parser {
	parser := flags.NewParser(&a.opts, flags.Default)
	mustAdd := func(name, short, long string, data interface{}) {
		if _, err := parser.AddCommand(name, short, long, data); err != nil {
			panic(err)
		}
	}
	mustAdd("create-user", "Create a staff account", "Creates an active account with the given roles.", &createUserCommand{app: a})
	mustAdd("set-password", "Reset a password", "Replaces the password of an existing account.", &setPasswordCommand{app: a})
	mustAdd("migrate", "Apply database migrations", "Applies pending schema migrations.", &migrateCommand{app: a})
	return parser
}

func main() {
	_ = godotenv.Load()
	a := &app{open: db.Open, out: os.Stdout}
	if _, err := newParser(a).Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		log.Printf("staffctl: %v", err)
		os.Exit(1)
	}
}
