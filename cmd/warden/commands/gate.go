package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/setup"
	"github.com/urfave/cli/v3"
)

// GateCommands returns the connection and chat check commands.
func GateCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:      "check",
			Usage:     "Run the connection checks for an account joining from an address",
			ArgsUsage: "ACCOUNT_ID NAME ADDRESS",
			Description: `Run the join gate exactly as a connecting account would see it.
The address is recorded for the account before the checks run.

Examples:
  warden check 0d6f...c1 Steve 203.0.113.7
  warden check 0d6f...c1 Steve 203.0.113.7 --bypass vpn,alt
  warden check 0d6f...c1 Steve 203.0.113.7 --notify   # also raise staff alerts`,
			Flags: []cli.Flag{
				&cli.StringSliceFlag{
					Name:  "bypass",
					Usage: "Bypasses granted to the account (vpn, alt, ip_ban)",
				},
				&cli.BoolFlag{
					Name:  "notify",
					Usage: "Raise the post connection staff alerts when the account is allowed",
				},
			},
			Action: deps.withApp(setup.Options{}, handleCheck),
		},
		{
			Name:      "chat",
			Usage:     "Check whether an account may chat",
			ArgsUsage: "ACCOUNT",
			Action:    deps.withApp(setup.Options{}, handleChat),
		},
		{
			Name:      "alts",
			Usage:     "List potential alternate accounts",
			ArgsUsage: "ACCOUNT ADDRESS",
			Action:    deps.withApp(setup.Options{}, handleAlts),
		},
		{
			Name:      "join-pair",
			Usage:     "Record two accounts that joined together suspiciously",
			ArgsUsage: "ACCOUNT ACCOUNT",
			Action:    deps.withApp(setup.Options{}, handleJoinPair),
		},
	}
}

// handleCheck handles the 'check' command.
func handleCheck(ctx context.Context, c *cli.Command, app *setup.App) error {
	if c.Args().Len() != 3 {
		return fmt.Errorf("%w: expected ACCOUNT_ID NAME ADDRESS", ErrAccountRequired)
	}

	id, err := uuid.Parse(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("invalid account id: %w", err)
	}

	bypasses, err := parseBypasses(c.StringSlice("bypass"))
	if err != nil {
		return err
	}

	account := types.Account{ID: id, Name: c.Args().Get(1), Capabilities: bypasses}
	address := c.Args().Get(2)

	verdict := app.Engine.CheckConnection(ctx, account, address)

	w := c.Root().Writer
	if !verdict.Allowed {
		fmt.Fprintf(w, "Refused (%s)\n%s\n", verdict.Reason, indent(verdict.Message))
		return nil
	}

	fmt.Fprintln(w, "Allowed")
	if c.Bool("notify") {
		app.Engine.PostConnect(ctx, account, address)
	}
	return nil
}

// handleChat handles the 'chat' command.
func handleChat(ctx context.Context, c *cli.Command, app *setup.App) error {
	account, err := resolveAccount(ctx, app.Store, c.Args().First())
	if err != nil {
		return err
	}

	w := c.Root().Writer
	mute, message := app.Engine.CheckChat(ctx, account)
	if mute == nil {
		fmt.Fprintf(w, "%s may chat\n", account.Name)
		return nil
	}

	fmt.Fprintf(w, "%s is muted\n%s\n", account.Name, indent(message))
	return nil
}

// handleAlts handles the 'alts' command.
func handleAlts(ctx context.Context, c *cli.Command, app *setup.App) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("%w: expected ACCOUNT ADDRESS", ErrAccountRequired)
	}

	account, err := resolveAccount(ctx, app.Store, c.Args().Get(0))
	if err != nil {
		return err
	}

	w := c.Root().Writer
	alts := app.Engine.Alts(ctx, account, c.Args().Get(1))
	if len(alts) == 0 {
		fmt.Fprintf(w, "No potential alts found for %s\n", account.Name)
		return nil
	}

	for _, a := range alts {
		fmt.Fprintf(w, "%-20s %-16s %3d%%  %s\n", a.Name, a.Method, a.Confidence, a.AccountID)
	}
	return nil
}

// handleJoinPair handles the 'join-pair' command.
func handleJoinPair(ctx context.Context, c *cli.Command, app *setup.App) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("%w: expected two accounts", ErrAccountRequired)
	}

	first, err := resolveAccount(ctx, app.Store, c.Args().Get(0))
	if err != nil {
		return err
	}
	second, err := resolveAccount(ctx, app.Store, c.Args().Get(1))
	if err != nil {
		return err
	}

	if err := app.Engine.RecordJoinPair(ctx, first.ID, second.ID); err != nil {
		return err
	}

	fmt.Fprintf(c.Root().Writer, "Recorded join pair %s / %s\n", first.Name, second.Name)
	return nil
}
