package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/crit/internal/core/config"
	"github.com/colonyops/crit/internal/core/review"
	"github.com/colonyops/crit/internal/stores"
)

type ExportCmd struct {
	flags   *Flags
	output  string
	session string
	preview bool
}

// NewExportCmd creates the export command.
func NewExportCmd(flags *Flags) *ExportCmd {
	return &ExportCmd{flags: flags}
}

// Register adds the export command to the application.
func (cmd *ExportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "export",
		Usage: "Export review feedback as Markdown",
		Description: `Export writes the review comments of a session as a Markdown document,
grouped by file, to stdout or a file.

By default the most recent session for the current repository is exported.

Examples:
  crit export                      # print latest review to stdout
  crit export -o review.md         # write to a file
  crit export --preview            # render in the terminal
  crit export --session <id>       # export a specific session`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "write to a file instead of stdout",
				Destination: &cmd.output,
			},
			&cli.StringFlag{
				Name:        "session",
				Usage:       "export a specific session by id",
				Destination: &cmd.session,
			},
			&cli.BoolFlag{
				Name:        "preview",
				Usage:       "render the Markdown in the terminal",
				Destination: &cmd.preview,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ExportCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	store := stores.NewReviewStore(cfg.DataDir)

	session, err := cmd.resolveSession(ctx, store, cfg)
	if err != nil {
		return err
	}

	markdown := review.Feedback(session)
	if markdown == "" {
		fmt.Fprintln(c.Root().Writer, "Session has no comments.")
		return nil
	}

	output := cmd.output
	if output == "" {
		output = cfg.Export.Output
	}

	if output != "" {
		if err := os.WriteFile(output, []byte(markdown), 0o644); err != nil {
			return fmt.Errorf("write feedback: %w", err)
		}
		fmt.Fprintf(c.Root().Writer, "Review written to %s\n", output)
		return nil
	}

	// Pretty rendering only makes sense on an interactive terminal; piped
	// output stays raw Markdown.
	if cmd.preview && term.IsTerminal(int(os.Stdout.Fd())) {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStylePath(cfg.Theme),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			return fmt.Errorf("create renderer: %w", err)
		}
		rendered, err := renderer.Render(markdown)
		if err != nil {
			return fmt.Errorf("render feedback: %w", err)
		}
		fmt.Fprint(c.Root().Writer, rendered)
		return nil
	}

	fmt.Fprint(c.Root().Writer, markdown)
	return nil
}

// resolveSession picks the session to export: the explicit --session id, or
// the most recent one for the current repository.
func (cmd *ExportCmd) resolveSession(ctx context.Context, store *stores.ReviewStore, cfg *config.Config) (*review.Session, error) {
	if cmd.session != "" {
		session, err := store.Get(cmd.session)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", cmd.session, err)
		}
		return &session, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	root, err := newGit(cfg).RepoRoot(ctx, cwd)
	if err != nil {
		return nil, err
	}

	sessions, err := store.List()
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].WorkspacePath == root {
			return &sessions[i], nil
		}
	}

	return nil, fmt.Errorf("no review session found for %s", root)
}
