package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/genregraph/internal/config"
	"github.com/matzehuels/genregraph/pkg/graph"
	"github.com/matzehuels/genregraph/pkg/pipeline"
	"github.com/matzehuels/genregraph/pkg/store"
)

// snapshotCommand manages published dataset snapshots.
func (c *CLI) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Push, pull and list dataset snapshots",
		Long: `Snapshots are datasets stored in MongoDB, one per Wikipedia dump date.
Configure the store with store.mongo_uri or GENREGRAPH_MONGO_URI.`,
	}

	cmd.AddCommand(c.snapshotPushCommand())
	cmd.AddCommand(c.snapshotPullCommand())
	cmd.AddCommand(c.snapshotListCommand())
	cmd.AddCommand(c.snapshotDeleteCommand())

	return cmd
}

// withStore opens the configured store, runs fn and closes the store.
func (c *CLI) withStore(ctx context.Context, fn func(cfg *config.Config, st store.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	st, err := c.newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(ctx); err != nil {
			c.Logger.Warn("close snapshot store", "err", err)
		}
	}()
	return fn(cfg, st)
}

func (c *CLI) snapshotPushCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "push [source]",
		Short: "Store a dataset under its dump date",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return c.withStore(ctx, func(cfg *config.Config, st store.Store) error {
				runner, err := c.newRunner(ctx, cfg)
				if err != nil {
					return err
				}
				defer runner.Close()

				source := sourceArg(cfg, args)
				ds, err := runner.Load(ctx, pipeline.Options{Source: source, Strict: cfg.Strict || strict})
				if err != nil {
					return err
				}
				sum, err := st.Push(ctx, ds)
				if err != nil {
					return err
				}
				printSuccess("Pushed snapshot %s", sum.DumpDate)
				printStats(sum.Nodes, sum.Links, false)
				printDetail("hash %s", sum.Hash)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "validate the dataset before pushing")

	return cmd
}

func (c *CLI) snapshotPullCommand() *cobra.Command {
	output := "data.json"

	cmd := &cobra.Command{
		Use:   "pull [dump-date]",
		Short: "Write a stored dataset to a file (default: latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := store.Latest
			if len(args) > 0 {
				date = args[0]
			}
			return c.withStore(cmd.Context(), func(_ *config.Config, st store.Store) error {
				ds, err := st.Pull(cmd.Context(), date)
				if err != nil {
					return err
				}
				if err := graph.WriteFile(ds, output); err != nil {
					return err
				}
				printSuccess("Pulled snapshot %s", ds.DumpDate)
				printStats(len(ds.Nodes), len(ds.Links), false)
				printFile(output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", output, "output file")

	return cmd
}

func (c *CLI) snapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(_ *config.Config, st store.Store) error {
				sums, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(sums) == 0 {
					printInfo("No snapshots")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), snapshotTable(sums, time.Now()))
				return nil
			})
		},
	}
}

func (c *CLI) snapshotDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <dump-date>",
		Short: "Remove a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(_ *config.Config, st store.Store) error {
				if err := st.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess("Deleted snapshot %s", args[0])
				return nil
			})
		},
	}
}

func snapshotTable(sums []store.Summary, now time.Time) string {
	rows := make([][]string, len(sums))
	for i, s := range sums {
		hash := s.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		rows[i] = []string{s.DumpDate, strconv.Itoa(s.Nodes), strconv.Itoa(s.Links), hash, formatRelativeTime(s.CreatedAt, now)}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Dump", "Genres", "Links", "Hash", "Pushed").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case row == 0 && col == 0:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			case col >= 3:
				return StyleDim
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
