package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/engine"
	"github.com/robalyx/warden/internal/setup"
	"github.com/robalyx/warden/internal/store"
	"github.com/urfave/cli/v3"
)

var (
	ErrNameRequired     = errors.New("NAME argument required")
	ErrAccountRequired  = errors.New("ACCOUNT argument required")
	ErrAddressRequired  = errors.New("ADDRESS argument required")
	ErrAppealIDRequired = errors.New("APPEAL_ID argument required")
	ErrPostgresRequired = errors.New("migrations require the postgres storage driver")
	ErrUnknownAccount   = errors.New("unknown account")
)

// CLIDependencies holds the common dependencies needed by CLI commands.
type CLIDependencies struct {
	// Options overrides the defaults derived from the global flags.
	Options *setup.Options
}

// appAction is a command body that runs against an initialized application.
type appAction func(ctx context.Context, c *cli.Command, app *setup.App) error

// withApp initializes the application for a single command and cleans it up afterwards.
func (d *CLIDependencies) withApp(opts setup.Options, action appAction) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if d.Options != nil {
			opts = *d.Options
		} else {
			opts.ConfigPath = c.String("config")
			opts.LogDir = c.String("log-dir")
			opts.Console = c.Bool("console")
		}
		if opts.Component == "" {
			opts.Component = c.Name
		}

		app, err := setup.InitializeApp(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer app.Cleanup(ctx)

		return action(ctx, c, app)
	}
}

// resolveAccount accepts either an account id or a display name.
func resolveAccount(ctx context.Context, s store.Store, arg string) (types.Account, error) {
	if arg == "" {
		return types.Account{}, ErrAccountRequired
	}

	if id, err := uuid.Parse(arg); err == nil {
		name, err := s.GetAccountName(ctx, id)
		if err != nil {
			return types.Account{}, err
		}
		return types.Account{ID: id, Name: name}, nil
	}

	id, err := s.FindAccountByName(ctx, arg)
	if errors.Is(err, store.ErrNotFound) {
		return types.Account{}, fmt.Errorf("%w: %s", ErrUnknownAccount, arg)
	}
	if err != nil {
		return types.Account{}, err
	}

	name, err := s.GetAccountName(ctx, id)
	if err != nil {
		return types.Account{}, err
	}
	return types.Account{ID: id, Name: name}, nil
}

// staffFlags identify the staff member acting through the CLI.
func staffFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "staff",
			Usage: "Name recorded as the issuer (empty records the console)",
		},
		&cli.StringFlag{
			Name:  "staff-id",
			Usage: "Account id of the issuing staff member",
		},
	}
}

// staffFromFlags reads the staff flags.
func staffFromFlags(c *cli.Command) (engine.Staff, error) {
	staff := engine.Staff{Name: c.String("staff")}
	if raw := c.String("staff-id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return engine.Staff{}, fmt.Errorf("invalid staff id: %w", err)
		}
		staff.ID = id
	}
	return staff, nil
}

// parseBypasses reads bypass kind names such as "vpn" or "ip_ban".
func parseBypasses(names []string) (types.BypassSet, error) {
	set := make(types.BypassSet, 0, len(names))
	for _, name := range names {
		kind, err := enum.BypassKindString(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		set = append(set, kind)
	}
	return set, nil
}
