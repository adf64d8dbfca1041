package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/genregraph/pkg/visual"
)

// legendCommand prints the relationship colour legend.
func (c *CLI) legendCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "legend",
		Short: "Show the colour of each relationship type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(visual.Legend())
			}
			fmt.Fprintln(out, legendTable())
			fmt.Fprintln(out, StyleDim.Render(fmt.Sprintf(
				"Genres are coloured hsl(hash(id) mod 360, %d%%, %d%%) and sized by degree.",
				int(visual.Saturation*100), int(visual.Lightness*100))))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the legend as JSON")

	return cmd
}
