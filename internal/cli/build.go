package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/genregraph/pkg/pipeline"
)

type buildOpts struct {
	dump   string
	ignore []string
	output string
	push   bool
}

// buildCommand assembles data.json from processed genre files.
func (c *CLI) buildCommand() *cobra.Command {
	opts := buildOpts{output: "data.json"}

	cmd := &cobra.Command{
		Use:   "build <processed-dir>",
		Short: "Build data.json from processed genre TOML files",
		Long: `Build reads one TOML file per genre page from <processed-dir> and writes the
node-link dataset. Links come from each genre's stylistic origins, derivatives,
subgenres and fusion genres; a reference to a page that was not processed is
an error.

The dump date is read from --dump, the name of the Wikipedia dump the pages
came from (e.g. enwiki-20250123-pages-articles-multistream.xml.bz2).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.dump, "dump", "", "Wikipedia dump file name, used for dump_date")
	cmd.Flags().StringSliceVar(&opts.ignore, "ignore", nil, "page names to leave out (repeatable)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output file")
	cmd.Flags().BoolVar(&opts.push, "push", false, "also push the dataset to the snapshot store")

	return cmd
}

func (c *CLI) runBuild(cmd *cobra.Command, dir string, opts buildOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	ds, err := pipeline.Build(ctx, pipeline.BuildOptions{
		Dir:      dir,
		DumpName: opts.dump,
		Ignore:   opts.ignore,
		Output:   opts.output,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	prog.done("built dataset", "nodes", len(ds.Nodes), "links", len(ds.Links))

	printSuccess("Built dataset")
	printStats(len(ds.Nodes), len(ds.Links), false)
	if ds.DumpDate != "" {
		printKeyValue("Dump date", ds.DumpDate)
	} else {
		printWarning("No dump date; pass --dump to record one")
	}
	printFile(opts.output)

	if opts.push {
		cfg, err := c.loadConfig()
		if err != nil {
			return err
		}
		st, err := c.newStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close(ctx)
		sum, err := st.Push(ctx, ds)
		if err != nil {
			return err
		}
		printSuccess("Pushed snapshot %s", sum.DumpDate)
	}

	printNextStep("Render it", "genregraph render "+opts.output)
	return nil
}
