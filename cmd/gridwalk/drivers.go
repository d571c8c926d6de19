package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridwalk/gridwalk/internal/drivers"
)

var driversDir string

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "Manage WebDriver binaries for the selenium engine",
}

var driversFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download chromedriver, geckodriver and the Selenium server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(driversDir, 0o755); err != nil {
			return err
		}
		if err := drivers.FetchAll(cmd.Context(), driversDir); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "drivers ready in %s\n", driversDir)
		return nil
	},
}

func init() {
	// The drivers package logs through glog, which insists on
	// flag.Parse having run.
	_ = flag.Set("logtostderr", "true")
	_ = flag.CommandLine.Parse(nil)

	driversFetchCmd.Flags().StringVar(&driversDir, "dir", "drivers", "directory to install driver binaries into")
	driversCmd.AddCommand(driversFetchCmd)
}
