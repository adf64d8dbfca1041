package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/genregraph/pkg/errors"
	"github.com/matzehuels/genregraph/pkg/graph"
	"github.com/matzehuels/genregraph/pkg/shell"
	"github.com/matzehuels/genregraph/pkg/truncate"
	"github.com/matzehuels/genregraph/pkg/wikitext"
)

const (
	describeWidth  = 80
	maxSuggestions = 5
)

type describeOpts struct {
	source   string
	expanded bool
	noToggle bool
	json     bool
}

// describeCommand prints one genre's description, truncated at its first
// paragraph break or newline unless --expanded is given.
func (c *CLI) describeCommand() *cobra.Command {
	var opts describeOpts

	cmd := &cobra.Command{
		Use:   "describe <genre>",
		Short: "Print a genre's description",
		Long: `Describe looks a genre up by id or, failing that, by case-insensitive label
and prints its description. Long descriptions are cut at the first paragraph
break or line break; --expanded shows the whole text.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeGenres,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDescribe(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "dataset path or URL (default from config)")
	cmd.Flags().BoolVarP(&opts.expanded, "expanded", "x", false, "show the full description")
	cmd.Flags().BoolVar(&opts.noToggle, "no-toggle", false, "never offer the full description")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the truncated view as JSON")

	return cmd
}

func (c *CLI) runDescribe(cmd *cobra.Command, query string, opts describeOpts) error {
	sh, closeFn, err := c.loadShell(cmd.Context(), opts.source)
	if err != nil {
		return err
	}
	defer closeFn()

	id, err := findGenre(sh.Dataset(), query)
	if err != nil {
		return err
	}
	view, err := sh.Describe(id, truncate.State{Expanded: opts.expanded}, !opts.noToggle)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	n, _ := sh.Node(id)
	writeDescription(out, view, sh.Style(*n))
	return nil
}

// loadShell builds and loads a shell for source (the configured source when
// empty). A failed load is returned as the error. The returned func releases
// the cache.
func (c *CLI) loadShell(ctx context.Context, source string) (*shell.Shell, func() error, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if source == "" {
		source = cfg.Source
	}
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	sh := c.newShell(runner, cfg, source, c.Logger)
	if err := sh.Load(ctx); err != nil {
		runner.Close()
		return nil, nil, err
	}
	return sh, runner.Close, nil
}

func writeDescription(w io.Writer, view shell.DescriptionView, style shell.NodeStyle) {
	dot := lipgloss.NewStyle().Foreground(lipgloss.Color(style.Hex)).Render(iconSwatch)
	fmt.Fprintln(w, dot+" "+StyleTitle.Render(view.Label))

	text := wikitext.InnerText(view.Visible)
	if text == "" {
		fmt.Fprintln(w, StyleDim.Render("  (no description)"))
		return
	}
	body := lipgloss.NewStyle().Width(describeWidth).PaddingLeft(2).Render(text)
	fmt.Fprintln(w, body)

	if view.ToggleLabel != "" {
		hint := "genregraph describe " + strconv.Quote(view.NodeID)
		if !view.Expanded {
			hint += " --expanded"
		}
		fmt.Fprintln(w, "  "+styleToggle.Render(view.ToggleLabel)+StyleDim.Render(": ")+styleCommand.Render(hint))
	}
}

// findGenre resolves a query to a node id: an exact id first, then a
// case-insensitive id or label match. A miss suggests close labels.
func findGenre(ds *graph.Dataset, query string) (string, error) {
	for _, n := range ds.Nodes {
		if n.ID == query {
			return n.ID, nil
		}
	}
	for i := range ds.Nodes {
		n := &ds.Nodes[i]
		if strings.EqualFold(n.ID, query) || strings.EqualFold(n.DisplayLabel(), query) {
			return n.ID, nil
		}
	}

	suggestions := suggestGenres(ds, query)
	if len(suggestions) == 0 {
		return "", apperr.New(apperr.ErrCodeNodeNotFound, "no genre %q", query)
	}
	return "", apperr.New(apperr.ErrCodeNodeNotFound, "no genre %q; did you mean %s?", query, strings.Join(suggestions, ", "))
}

func suggestGenres(ds *graph.Dataset, query string) []string {
	q := strings.ToLower(query)
	var out []string
	for i := range ds.Nodes {
		label := ds.Nodes[i].DisplayLabel()
		if strings.Contains(strings.ToLower(label), q) {
			out = append(out, strconv.Quote(label))
		}
	}
	sort.Strings(out)
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// completeGenres completes genre ids from the configured dataset.
func (c *CLI) completeGenres(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	runner, err := c.newRunner(cmd.Context(), cfg)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer runner.Close()
	opts := renderDefaults(cfg)
	ds, err := runner.Load(cmd.Context(), opts)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	prefix := strings.ToLower(toComplete)
	var out []string
	for _, n := range ds.Nodes {
		if strings.HasPrefix(strings.ToLower(n.ID), prefix) {
			out = append(out, n.ID)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
