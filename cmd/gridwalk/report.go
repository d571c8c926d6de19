package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridwalk/gridwalk"
	"github.com/gridwalk/gridwalk/config"
	"github.com/gridwalk/gridwalk/pagespec"
	"github.com/gridwalk/gridwalk/report"
	"github.com/gridwalk/gridwalk/resultsink"
)

var (
	reportMatch  string
	reportJSON   string
	reportJUnit  string
	reportUpload bool
)

var reportCmd = &cobra.Command{
	Use:   "report <pagespec.yaml>",
	Short: "Run table checks and export a report",
	Long: `Report walks the table a page spec describes and records check outcomes:
that rows render, how many rows the traversal finds, and optionally that at
least one row matches --match. The run is stored under the artifacts
directory and can be exported as JSON or JUnit XML, or uploaded to the
configured results server.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var run *report.Run
		err := withTraversal(args[0], func(spec *pagespec.Spec, t *gridwalk.Traversal) error {
			run = report.NewRun(spec.Name)

			start := time.Now()
			ok, err := t.CurrentPage().HasRecord(0)
			if err != nil {
				return err
			}
			if ok {
				run.Pass("rows render", time.Since(start))
			} else {
				run.Fail("rows render", time.Since(start), "no first row within the first-row wait")
			}

			start = time.Now()
			n, err := t.Count()
			if err != nil {
				return err
			}
			run.Add("count rows", report.StatusPassed, time.Since(start), fmt.Sprintf("%d rows", n))

			if reportMatch == "" {
				run.Skip("row match", "--match not set")
			} else {
				pred, err := gridwalk.TextGlob(reportMatch)
				if err != nil {
					return err
				}
				start = time.Now()
				matched, err := t.TestAny(pred)
				if err != nil {
					return err
				}
				if matched {
					run.Pass("row match", time.Since(start))
				} else {
					run.Fail("row match", time.Since(start), fmt.Sprintf("no row matched %q", reportMatch))
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		run.Finish()

		store, err := report.NewStore(cfg.ArtifactsDir)
		if err != nil {
			return err
		}
		if err := store.Save(run); err != nil {
			return err
		}

		if reportJSON != "" {
			if err := exportRun(reportJSON, run.WriteJSON); err != nil {
				return err
			}
		}
		if reportJUnit != "" {
			if err := exportRun(reportJUnit, run.WriteJUnit); err != nil {
				return err
			}
		}
		if reportUpload {
			if cfg.Results.URL == "" {
				return fmt.Errorf("--upload needs results.url in the configuration")
			}
			sink := resultsink.New(cfg.Results.URL, config.ResolveEnvVars(cfg.Results.Token))
			if err := sink.Put(cmd.Context(), run); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d checks recorded\n", run.ID, len(run.Checks))
		if run.Failed() {
			return fmt.Errorf("checks failed")
		}
		return nil
	},
}

func exportRun(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	reportCmd.Flags().StringVar(&reportMatch, "match", "", "require at least one row whose text matches this glob")
	reportCmd.Flags().StringVar(&reportJSON, "json", "", "also export the run as JSON to this path")
	reportCmd.Flags().StringVar(&reportJUnit, "junit", "", "also export the run as JUnit XML to this path")
	reportCmd.Flags().BoolVar(&reportUpload, "upload", false, "upload the run to the configured results server")
}
