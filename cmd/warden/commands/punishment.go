package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robalyx/warden/internal/database/types"
	"github.com/robalyx/warden/internal/database/types/enum"
	"github.com/robalyx/warden/internal/escalation"
	"github.com/robalyx/warden/internal/lifecycle"
	"github.com/robalyx/warden/internal/setup"
	"github.com/robalyx/warden/pkg/utils"
	"github.com/urfave/cli/v3"
)

var (
	ErrTypeRequired     = errors.New("TYPE argument required")
	ErrCategoryRequired = errors.New("CATEGORY argument required")
	ErrTemplateRequired = errors.New("TEMPLATE argument required")
	ErrIDRequired       = errors.New("PUNISHMENT_ID argument required")
)

// PunishmentCommands returns all punishment-related commands.
func PunishmentCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:      "punish",
			Usage:     "Apply the next escalation step of a category",
			ArgsUsage: "ACCOUNT CATEGORY",
			Description: `Count the account's recent offenses in the category and issue the
punishment configured for the next level of the ladder.

Examples:
  warden punish Steve chat --staff Alex`,
			Flags:  staffFlags(),
			Action: deps.withApp(setup.Options{}, handlePunish),
		},
		{
			Name:      "issue",
			Usage:     "Issue a punishment directly",
			ArgsUsage: "ACCOUNT TYPE",
			Description: `Issue a punishment of the given type (ban, temp_ban, mute, temp_mute, kick, warn).
A ban or mute given a duration is issued as its temporary form.

Examples:
  warden issue Steve ban --reason "Cheating"
  warden issue Steve mute --duration "1d 12h" --reason "Spam"`,
			Flags: append(staffFlags(),
				&cli.StringFlag{
					Name:    "reason",
					Aliases: []string{"r"},
					Usage:   "Reason recorded on the punishment",
				},
				&cli.StringFlag{
					Name:    "duration",
					Aliases: []string{"d"},
					Usage:   "Duration such as 30m, 2h, 7d or \"1w 2d\"",
				},
			),
			Action: deps.withApp(setup.Options{}, handleIssue),
		},
		{
			Name:      "template",
			Usage:     "Issue a punishment from a named template",
			ArgsUsage: "ACCOUNT TEMPLATE",
			Flags:     staffFlags(),
			Action:    deps.withApp(setup.Options{}, handleTemplate),
		},
		{
			Name:  "templates",
			Usage: "List the configured punishment templates",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "type",
					Usage: "Only list templates issuing this punishment type",
				},
			},
			Action: deps.withApp(setup.Options{}, handleTemplates),
		},
		{
			Name:   "categories",
			Usage:  "List the configured escalation categories",
			Action: deps.withApp(setup.Options{}, handleCategories),
		},
		{
			Name:      "unban",
			Usage:     "Lift every active ban of an account",
			ArgsUsage: "ACCOUNT",
			Action:    deps.withApp(setup.Options{}, handleLiftKinds(enum.PunishmentTypeBan, enum.PunishmentTypeTempBan)),
		},
		{
			Name:      "unmute",
			Usage:     "Lift every active mute of an account",
			ArgsUsage: "ACCOUNT",
			Action:    deps.withApp(setup.Options{}, handleLiftKinds(enum.PunishmentTypeMute, enum.PunishmentTypeTempMute)),
		},
		{
			Name:      "lift",
			Usage:     "Lift a single punishment by id",
			ArgsUsage: "PUNISHMENT_ID",
			Action:    deps.withApp(setup.Options{}, handleLift),
		},
		{
			Name:      "history",
			Usage:     "Show the punishment history of an account",
			ArgsUsage: "ACCOUNT",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "active",
					Usage: "Only show unexpired active punishments",
				},
			},
			Action: deps.withApp(setup.Options{}, handleHistory),
		},
	}
}

// handlePunish handles the 'punish' command.
func handlePunish(ctx context.Context, c *cli.Command, app *setup.App) error {
	if c.Args().Len() != 2 {
		return ErrCategoryRequired
	}

	account, err := resolveAccount(ctx, app.Store, c.Args().Get(0))
	if err != nil {
		return err
	}

	staff, err := staffFromFlags(c)
	if err != nil {
		return err
	}

	p, err := app.Engine.Punish(ctx, account, staff, c.Args().Get(1))
	if errors.Is(err, escalation.ErrNoEscalation) {
		return fmt.Errorf("%w for category %q (known: %s)",
			err, c.Args().Get(1), strings.Join(app.Engine.Escalation().Categories(), ", "))
	}
	if err != nil {
		return err
	}

	printPunishment(c.Root().Writer, p)
	return nil
}

// handleIssue handles the 'issue' command.
func handleIssue(ctx context.Context, c *cli.Command, app *setup.App) error {
	if c.Args().Len() != 2 {
		return ErrTypeRequired
	}

	account, err := resolveAccount(ctx, app.Store, c.Args().Get(0))
	if err != nil {
		return err
	}

	kind, err := enum.PunishmentTypeString(c.Args().Get(1))
	if err != nil {
		return err
	}

	var duration time.Duration
	if raw := c.String("duration"); raw != "" {
		if duration, err = utils.ParseDuration(raw); err != nil {
			return err
		}
	}

	staff, err := staffFromFlags(c)
	if err != nil {
		return err
	}

	p, err := app.Engine.Lifecycle().Issue(ctx, lifecycle.IssueRequest{
		AccountID:   account.ID,
		AccountName: account.Name,
		IssuerID:    staff.ID,
		IssuerName:  staff.Name,
		Type:        kind,
		Reason:      c.String("reason"),
		Duration:    duration,
	})
	if err != nil {
		return err
	}

	printPunishment(c.Root().Writer, p)
	return nil
}

// handleTemplate handles the 'template' command.
func handleTemplate(ctx context.Context, c *cli.Command, app *setup.App) error {
	if c.Args().Len() != 2 {
		return ErrTemplateRequired
	}

	account, err := resolveAccount(ctx, app.Store, c.Args().Get(0))
	if err != nil {
		return err
	}

	staff, err := staffFromFlags(c)
	if err != nil {
		return err
	}

	p, err := app.Engine.IssueTemplate(ctx, account, staff, c.Args().Get(1))
	if err != nil {
		return err
	}

	printPunishment(c.Root().Writer, p)
	return nil
}

// handleTemplates handles the 'templates' command.
func handleTemplates(_ context.Context, c *cli.Command, app *setup.App) error {
	templates := app.Engine.Escalation().Templates()
	if raw := c.String("type"); raw != "" {
		kind, err := enum.PunishmentTypeString(raw)
		if err != nil {
			return err
		}
		templates = app.Engine.Escalation().TemplatesByType(kind)
	}

	w := c.Root().Writer
	if len(templates) == 0 {
		fmt.Fprintln(w, "No templates configured")
		return nil
	}

	for _, t := range templates {
		duration := t.Duration
		if duration == "" {
			duration = "-"
		}
		fmt.Fprintf(w, "%-16s %-9s %-10s %s\n", t.ID, t.Type, duration, t.DisplayName)
		if t.Description != "" {
			fmt.Fprintf(w, "    %s\n", t.Description)
		}
	}
	return nil
}

// handleCategories handles the 'categories' command.
func handleCategories(_ context.Context, c *cli.Command, app *setup.App) error {
	categories := app.Engine.Escalation().Categories()
	if len(categories) == 0 {
		fmt.Fprintln(c.Root().Writer, "No escalation categories configured")
		return nil
	}

	for _, category := range categories {
		fmt.Fprintln(c.Root().Writer, category)
	}
	return nil
}

// handleLiftKinds lifts the active punishments of the given types.
func handleLiftKinds(kinds ...enum.PunishmentType) appAction {
	return func(ctx context.Context, c *cli.Command, app *setup.App) error {
		account, err := resolveAccount(ctx, app.Store, c.Args().First())
		if err != nil {
			return err
		}

		lifted, err := app.Engine.Lifecycle().Lift(ctx, account.ID, kinds...)
		if err != nil {
			return err
		}

		if !lifted {
			fmt.Fprintf(c.Root().Writer, "%s has nothing to lift\n", account.Name)
			return nil
		}
		fmt.Fprintf(c.Root().Writer, "Lifted punishments of %s\n", account.Name)
		return nil
	}
}

// handleLift handles the 'lift' command.
func handleLift(ctx context.Context, c *cli.Command, app *setup.App) error {
	if c.Args().Len() != 1 {
		return ErrIDRequired
	}

	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid punishment id: %w", err)
	}

	lifted, err := app.Engine.Lifecycle().LiftPunishment(ctx, id)
	if err != nil {
		return err
	}

	if !lifted {
		fmt.Fprintf(c.Root().Writer, "Punishment #%d was not active\n", id)
		return nil
	}
	fmt.Fprintf(c.Root().Writer, "Lifted punishment #%d\n", id)
	return nil
}

// handleHistory handles the 'history' command.
func handleHistory(ctx context.Context, c *cli.Command, app *setup.App) error {
	account, err := resolveAccount(ctx, app.Store, c.Args().First())
	if err != nil {
		return err
	}

	service := app.Engine.Lifecycle()

	var history []*types.Punishment
	if c.Bool("active") {
		history, err = service.ActivePunishments(ctx, account.ID)
	} else {
		history, err = service.History(ctx, account.ID)
	}
	if err != nil {
		return err
	}

	w := c.Root().Writer
	if len(history) == 0 {
		fmt.Fprintf(w, "No punishments for %s\n", account.Name)
		return nil
	}

	for _, p := range history {
		printPunishment(w, p)
	}
	return nil
}
