package main

import (
	"context"
	"log"
	"os"

	"github.com/robalyx/warden/cmd/warden/commands"
	"github.com/urfave/cli/v3"
)

const (
	// DefaultLogDir specifies where session log files are stored.
	DefaultLogDir = "logs"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	deps := &commands.CLIDependencies{}

	var cmds []*cli.Command
	cmds = append(cmds, commands.ServeCommands(deps)...)
	cmds = append(cmds, commands.GateCommands(deps)...)
	cmds = append(cmds, commands.PunishmentCommands(deps)...)
	cmds = append(cmds, commands.IPBanCommands(deps)...)
	cmds = append(cmds, commands.AppealCommands(deps)...)
	cmds = append(cmds, commands.ExportCommands(deps)...)
	cmds = append(cmds, &cli.Command{
		Name:     "migrate",
		Usage:    "Database migration management",
		Commands: commands.MigrationCommands(deps),
	})

	app := &cli.Command{
		Name:   "warden",
		Usage:  "Moderation policy engine",
		Writer: os.Stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the config file (searches the default locations when empty)",
			},
			&cli.StringFlag{
				Name:  "log-dir",
				Usage: "Base directory for session logs",
				Value: DefaultLogDir,
			},
			&cli.BoolFlag{
				Name:  "console",
				Usage: "Mirror warnings and errors to stderr",
			},
		},
		Commands: cmds,
	}

	return app.Run(context.Background(), os.Args)
}
