package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/robalyx/warden/internal/lifecycle"
	"github.com/robalyx/warden/internal/setup"
	"github.com/robalyx/warden/pkg/utils"
	"github.com/urfave/cli/v3"
)

// IPBanCommands returns all address ban commands.
func IPBanCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:      "ipban",
			Usage:     "Ban an address or subnet",
			ArgsUsage: "ADDRESS",
			Description: `Ban a single IPv4 address or a network in network/mask form.

Examples:
  warden ipban 203.0.113.7 --reason "Botting"
  warden ipban 198.51.100.0/24 --duration 7d`,
			Flags: append(staffFlags(),
				&cli.StringFlag{
					Name:    "reason",
					Aliases: []string{"r"},
					Usage:   "Reason recorded on the ban",
				},
				&cli.StringFlag{
					Name:    "duration",
					Aliases: []string{"d"},
					Usage:   "Duration of the ban, permanent when empty",
				},
			),
			Action: deps.withApp(setup.Options{}, handleIPBan),
		},
		{
			Name:      "unipban",
			Usage:     "Lift the bans on an address or subnet",
			ArgsUsage: "ADDRESS",
			Action:    deps.withApp(setup.Options{}, handleUnIPBan),
		},
		{
			Name:   "ipbans",
			Usage:  "List active address bans",
			Action: deps.withApp(setup.Options{}, handleListIPBans),
		},
	}
}

// handleIPBan handles the 'ipban' command.
func handleIPBan(ctx context.Context, c *cli.Command, app *setup.App) error {
	if c.Args().Len() != 1 {
		return ErrAddressRequired
	}

	var duration time.Duration
	if raw := c.String("duration"); raw != "" {
		var err error
		if duration, err = utils.ParseDuration(raw); err != nil {
			return err
		}
	}

	staff, err := staffFromFlags(c)
	if err != nil {
		return err
	}

	ban, err := app.Engine.Lifecycle().IssueIPBan(ctx, lifecycle.IPBanRequest{
		Address:    c.Args().First(),
		IssuerID:   staff.ID,
		IssuerName: staff.Name,
		Reason:     c.String("reason"),
		Duration:   duration,
	})
	if err != nil {
		return err
	}

	printIPBan(c.Root().Writer, ban)
	return nil
}

// handleUnIPBan handles the 'unipban' command.
func handleUnIPBan(ctx context.Context, c *cli.Command, app *setup.App) error {
	if c.Args().Len() != 1 {
		return ErrAddressRequired
	}

	lifted, err := app.Engine.Lifecycle().LiftIPBan(ctx, c.Args().First())
	if err != nil {
		return err
	}

	if !lifted {
		fmt.Fprintf(c.Root().Writer, "%s is not banned\n", c.Args().First())
		return nil
	}
	fmt.Fprintf(c.Root().Writer, "Lifted ban on %s\n", c.Args().First())
	return nil
}

// handleListIPBans handles the 'ipbans' command.
func handleListIPBans(ctx context.Context, c *cli.Command, app *setup.App) error {
	bans, err := app.Engine.Lifecycle().ActiveIPBans(ctx)
	if err != nil {
		return err
	}

	w := c.Root().Writer
	if len(bans) == 0 {
		fmt.Fprintln(w, "No active address bans")
		return nil
	}

	for _, ban := range bans {
		printIPBan(w, ban)
	}
	return nil
}
