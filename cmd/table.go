// cmd/table.go
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwendec/internal/cw"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the Morse code table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, r := range cw.Alphabet() {
			if r == cw.WordSpace {
				continue
			}
			pattern, err := cw.Pattern(r)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%c\t%s\n", r, pattern)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(tableCmd)
}
