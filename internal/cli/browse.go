package cli

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/genregraph/pkg/shell"
)

type browseOpts struct {
	source   string
	noToggle bool
}

// browseCommand opens the interactive genre browser.
func (c *CLI) browseCommand() *cobra.Command {
	var opts browseOpts

	cmd := &cobra.Command{
		Use:   "browse [source]",
		Short: "Browse genres and their descriptions in the terminal",
		Long: `Browse lists every genre with its colour and degree. Selecting a genre shows
its description cut at the first paragraph or line break; space or enter
shows more or less. A dataset that fails to load is reported in a banner and
can be retried with r.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.source = args[0]
			}
			return c.runBrowse(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.noToggle, "no-toggle", false, "never offer full descriptions")

	return cmd
}

func (c *CLI) runBrowse(cmd *cobra.Command, opts browseOpts) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	source := opts.source
	if source == "" {
		source = cfg.Source
	}

	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	// Log lines would tear the alternate screen.
	quiet := log.NewWithOptions(io.Discard, log.Options{})
	factory := func() *shell.Shell { return c.newShell(runner, cfg, source, quiet) }

	sh := factory()
	spin := newSpinnerWithContext(ctx, "Loading "+source+"...")
	spin.Start()
	loadErr := sh.Load(ctx)
	spin.Stop()
	if spin.Cancelled() {
		return ctx.Err()
	}
	if loadErr != nil {
		c.Logger.Error("dataset load failed", "source", source, "err", loadErr)
	}

	m := NewBrowseModel(sh, factory, !opts.noToggle)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
