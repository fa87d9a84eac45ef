package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/lifecycle"
	"github.com/robalyx/warden/internal/setup"
	"github.com/urfave/cli/v3"
)

// AppealCommands returns the appeal management commands.
func AppealCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "appeal",
			Usage: "Submit and review appeals",
			Commands: []*cli.Command{
				{
					Name:      "submit",
					Usage:     "Appeal the newest active punishment of an account",
					ArgsUsage: "ACCOUNT REASON...",
					Action:    deps.withApp(setup.Options{}, handleAppealSubmit),
				},
				{
					Name:      "accept",
					Usage:     "Accept a pending appeal and lift the punishment",
					ArgsUsage: "APPEAL_ID RESPONSE...",
					Flags:     staffFlags(),
					Action:    deps.withApp(setup.Options{}, handleAppealDecision(true)),
				},
				{
					Name:      "reject",
					Usage:     "Reject a pending appeal",
					ArgsUsage: "APPEAL_ID RESPONSE...",
					Flags:     staffFlags(),
					Action:    deps.withApp(setup.Options{}, handleAppealDecision(false)),
				},
				{
					Name:      "list",
					Usage:     "List pending appeals, or every appeal of one account",
					ArgsUsage: "[ACCOUNT]",
					Action:    deps.withApp(setup.Options{}, handleAppealList),
				},
			},
		},
	}
}

// handleAppealSubmit handles the 'appeal submit' command.
func handleAppealSubmit(ctx context.Context, c *cli.Command, app *setup.App) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("%w: expected ACCOUNT REASON", ErrAccountRequired)
	}

	account, err := resolveAccount(ctx, app.Store, c.Args().First())
	if err != nil {
		return err
	}

	appeal, err := app.Engine.Lifecycle().SubmitAppeal(ctx, account.ID, account.Name, strings.Join(c.Args().Tail(), " "))
	if err != nil {
		return err
	}

	printAppeal(c.Root().Writer, appeal)
	return nil
}

// handleAppealDecision handles the 'appeal accept' and 'appeal reject' commands.
func handleAppealDecision(accept bool) appAction {
	return func(ctx context.Context, c *cli.Command, app *setup.App) error {
		if c.Args().Len() < 2 {
			return fmt.Errorf("%w: expected APPEAL_ID RESPONSE", ErrAppealIDRequired)
		}

		id, err := strconv.ParseInt(c.Args().First(), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid appeal id: %w", err)
		}

		staff, err := staffFromFlags(c)
		if err != nil {
			return err
		}

		decision := lifecycle.Decision{
			ResponderID:   staff.ID,
			ResponderName: issuerName(staff.Name),
			Response:      strings.Join(c.Args().Tail(), " "),
		}

		service := app.Engine.Lifecycle()

		var appeal *types.Appeal
		if accept {
			appeal, err = service.AcceptAppeal(ctx, id, decision)
		} else {
			appeal, err = service.RejectAppeal(ctx, id, decision)
		}
		if err != nil {
			return err
		}

		printAppeal(c.Root().Writer, appeal)
		return nil
	}
}

// handleAppealList handles the 'appeal list' command.
func handleAppealList(ctx context.Context, c *cli.Command, app *setup.App) error {
	service := app.Engine.Lifecycle()

	var (
		appeals []*types.Appeal
		err     error
	)
	if c.Args().Len() > 0 {
		account, err := resolveAccount(ctx, app.Store, c.Args().First())
		if err != nil {
			return err
		}
		appeals, err = service.AccountAppeals(ctx, account.ID)
		if err != nil {
			return err
		}
	} else {
		appeals, err = service.PendingAppeals(ctx)
		if err != nil {
			return err
		}
	}

	w := c.Root().Writer
	if len(appeals) == 0 {
		fmt.Fprintln(w, "No appeals")
		return nil
	}

	for _, appeal := range appeals {
		printAppeal(w, appeal)
	}
	return nil
}
