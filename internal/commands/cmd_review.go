package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/colonyops/crit/internal/core/config"
	"github.com/colonyops/crit/internal/core/git"
	"github.com/colonyops/crit/internal/core/review"
	"github.com/colonyops/crit/internal/ide"
	"github.com/colonyops/crit/internal/stores"
	tuireview "github.com/colonyops/crit/internal/tui/review"
	"github.com/colonyops/crit/pkg/executil"
)

// newGit builds the git layer used by commands.
func newGit(cfg *config.Config) git.Git {
	return git.NewExecutor(cfg.GitPath, &executil.RealExecutor{})
}

// ReviewCmd is the default action: load a diff from the current repository
// and open the review TUI.
type ReviewCmd struct {
	flags  *Flags
	staged bool
	base   string
	noIDE  bool
}

// NewReviewCmd creates the review command.
func NewReviewCmd(flags *Flags) *ReviewCmd {
	return &ReviewCmd{flags: flags}
}

// Flags returns the review-specific flags for registration on the root
// command.
func (cmd *ReviewCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "staged",
			Usage:       "review only staged changes",
			Destination: &cmd.staged,
		},
		&cli.StringFlag{
			Name:        "base",
			Usage:       "review changes against a base branch (merge-base diff)",
			Destination: &cmd.base,
		},
		&cli.BoolFlag{
			Name:        "no-ide",
			Usage:       "disable the embedded IDE integration server",
			Sources:     cli.EnvVars("CRIT_NO_IDE"),
			Destination: &cmd.noIDE,
		},
	}
}

// Run executes the review TUI. Exported for use as the default command.
func (cmd *ReviewCmd) Run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	opts, err := cmd.diffOptions()
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	gitExec := newGit(cfg)

	root, err := gitExec.RepoRoot(ctx, cwd)
	if err != nil {
		return err
	}

	branch, err := gitExec.Branch(ctx, root)
	if err != nil {
		log.Warn().Err(err).Msg("could not determine branch")
	}
	log.Info().Str("workspace", root).Str("branch", branch).Str("diff", opts.Describe()).Msg("starting review")

	raw, err := gitExec.Diff(ctx, root, opts)
	if err != nil {
		return err
	}

	files, err := git.ParseDiff(raw)
	if err != nil {
		return err
	}

	ignore, err := review.LoadIgnoreList(root)
	if err != nil {
		return err
	}
	files = filterIgnored(files, ignore)

	if len(files) == 0 {
		fmt.Fprintf(c.Root().Writer, "No %s to review.\n", opts.Describe())
		return nil
	}

	store := stores.NewReviewStore(cfg.DataDir)
	session := resumeOrCreateSession(store, root, opts.Describe())

	// The IDE server is optional: the review works the same without it,
	// external tools just cannot see the session.
	var (
		ideState  *ide.StateStore
		bridge    *ide.Bridge
		ideServer *ide.Server
	)
	if !cmd.noIDE && cfg.IDE.ServerEnabled() {
		ideState = ide.NewStateStore()
		bridge = ide.NewBridge()
		ideServer = ide.NewServer(ideState, bridge, c.Root().Version, log.With().Str("component", "ide").Logger())

		port, err := ideServer.Start(root)
		if err != nil {
			log.Warn().Err(err).Msg("ide server failed to start, continuing without it")
			ideState, bridge, ideServer = nil, nil, nil
		} else {
			log.Info().Int("port", port).Msg("ide server listening")
			defer ideServer.Stop()
		}
	}

	m := tuireview.New(tuireview.Options{
		Files:         files,
		Session:       session,
		Store:         store,
		WorkspacePath: root,
		IDEState:      ideState,
		Bridge:        bridge,
		Log:           log.With().Str("component", "tui").Logger(),
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run review tui: %w", err)
	}

	return nil
}

// diffOptions maps the command flags to a diff mode.
func (cmd *ReviewCmd) diffOptions() (git.DiffOptions, error) {
	switch {
	case cmd.staged && cmd.base != "":
		return git.DiffOptions{}, fmt.Errorf("--staged and --base are mutually exclusive")
	case cmd.staged:
		return git.DiffOptions{Mode: git.DiffStaged}, nil
	case cmd.base != "":
		return git.DiffOptions{Mode: git.DiffBranch, BaseBranch: cmd.base}, nil
	default:
		return git.DiffOptions{Mode: git.DiffUncommitted}, nil
	}
}

// filterIgnored drops files matching the workspace ignore patterns.
func filterIgnored(files []*gitdiff.File, ignore *review.IgnoreList) []*gitdiff.File {
	if len(ignore.Patterns()) == 0 {
		return files
	}
	kept := files[:0]
	for _, f := range files {
		if ignore.Match(git.FilePath(f)) {
			log.Debug().Str("path", git.FilePath(f)).Msg("file ignored")
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// resumeOrCreateSession picks up the latest session for this workspace and
// diff context, falling back to a fresh one.
func resumeOrCreateSession(store *stores.ReviewStore, workspacePath, diffContext string) *review.Session {
	existing, err := store.Latest(workspacePath, diffContext)
	if err == nil {
		log.Info().Str("session", existing.ID).Int("comments", len(existing.Comments)).Msg("resuming review session")
		return &existing
	}
	if !errors.Is(err, stores.ErrNotFound) {
		log.Warn().Err(err).Msg("could not read stored sessions, starting fresh")
	}
	return review.NewSession(workspacePath, diffContext)
}
