package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridwalk/gridwalk"
	"github.com/gridwalk/gridwalk/pagespec"
)

var countSinglePage bool

var countCmd = &cobra.Command{
	Use:   "count <pagespec.yaml>",
	Short: "Count the rows of a paginated table",
	Long: `Count loads a page spec, walks the table it describes across every page
and prints the number of rows found.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTraversal(args[0], func(_ *pagespec.Spec, t *gridwalk.Traversal) error {
			var opts []gridwalk.IterateOption
			if countSinglePage {
				opts = append(opts, gridwalk.SinglePage())
			}
			n, err := t.Count(opts...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", n)
			return nil
		})
	},
}

func init() {
	countCmd.Flags().BoolVar(&countSinglePage, "single-page", false, "stay on the current page instead of traversing")
}
