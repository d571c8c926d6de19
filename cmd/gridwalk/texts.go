package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridwalk/gridwalk"
	"github.com/gridwalk/gridwalk/pagespec"
)

var (
	textsSinglePage bool
	textsMatch      string
)

var textsCmd = &cobra.Command{
	Use:   "texts <pagespec.yaml>",
	Short: "Print the visible text of every row",
	Long: `Texts loads a page spec, walks the table it describes and prints one line
per row. With --match, only rows whose text matches the glob are printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTraversal(args[0], func(_ *pagespec.Spec, t *gridwalk.Traversal) error {
			var opts []gridwalk.IterateOption
			if textsSinglePage {
				opts = append(opts, gridwalk.SinglePage())
			}

			out := cmd.OutOrStdout()
			if textsMatch == "" {
				texts, err := t.Texts(opts...)
				if err != nil {
					return err
				}
				for _, text := range texts {
					fmt.Fprintln(out, text)
				}
				return nil
			}

			pred, err := gridwalk.TextGlob(textsMatch)
			if err != nil {
				return err
			}
			n, err := t.OnMatch(pred, func(r gridwalk.Record) error {
				text, err := r.Text()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, text)
				return nil
			}, false, opts...)
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("no row matched %q", textsMatch)
			}
			return nil
		})
	},
}

func init() {
	textsCmd.Flags().BoolVar(&textsSinglePage, "single-page", false, "stay on the current page instead of traversing")
	textsCmd.Flags().StringVar(&textsMatch, "match", "", "print only rows whose text matches this glob")
}
