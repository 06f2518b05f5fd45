// Command widgetprops describes the properties of Flutter widget creations
// and edits them in place.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0-dev"

var (
	cfgFile  string
	logLevel string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "widgetprops",
		Short:         "Inspect and edit Flutter widget properties",
		Long:          `widgetprops models the configurable properties of a Flutter widget creation and produces minimal source edits that change them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.widgetprops.yaml or $HOME/.widgetprops.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(describeCmd())
	rootCmd.AddCommand(setCmd())
	rootCmd.AddCommand(removeCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(docsCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(setupCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// config loads the configuration and applies global flag overrides.
func config() (*Config, error) {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "widgetprops %s\n", version)
		},
	}
}
