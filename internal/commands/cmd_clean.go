package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/crit/internal/ide"
)

type CleanCmd struct {
	flags *Flags
}

// NewCleanCmd creates the clean command.
func NewCleanCmd(flags *Flags) *CleanCmd {
	return &CleanCmd{flags: flags}
}

// Register adds the clean command to the application.
func (cmd *CleanCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "clean",
		Usage: "Remove stale IDE discovery files",
		Description: `Clean scans the IDE discovery directory and removes lock files left
behind by crit processes that no longer exist. Live sessions are untouched.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *CleanCmd) run(ctx context.Context, c *cli.Command) error {
	removed, err := ide.CleanStaleDiscoveryFiles()
	if err != nil {
		return fmt.Errorf("clean discovery files: %w", err)
	}

	if len(removed) == 0 {
		fmt.Fprintln(c.Root().Writer, "No stale discovery files.")
		return nil
	}

	for _, path := range removed {
		fmt.Fprintf(c.Root().Writer, "Removed %s\n", path)
	}
	return nil
}
