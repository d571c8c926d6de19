package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridwalk/gridwalk"
	"github.com/gridwalk/gridwalk/config"
)

var (
	cfgFile string
	debug   bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gridwalk",
	Short: "Walk paginated web tables from the command line",
	Long: `gridwalk drives lazy-waiting element collections and multi-page table
traversals against a live browser session.

Tables under test are described by YAML page specs naming the row locator,
the navigation controls and an optional page-token locator. Sessions run on
the selenium, playwright or rod engine, picked by configuration.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./gridwalk.yaml or ~/.gridwalk/gridwalk.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(
		&debug, "debug", false, "trace waits and page-navigation verdicts",
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		gridwalk.SetDebug(debug)
		m, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg = m.Get()
		return nil
	}

	rootCmd.AddCommand(countCmd, textsCmd, reportCmd, driversCmd, demoCmd, initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = "gridwalk.yaml"
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}
