// cmd/wizard/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	locale     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "wizard",
		Short: "Financial assistance application wizard",
		Long: `Fill in, review and submit a financial assistance application step by step.

The session is saved after every change and restored on the next run.

Steps:
  personal-info          -> family-financial -> situation-description -> success

Example:
  wizard fill personal-info --file personal.yaml
  wizard assist reasonForApplying --accept
  wizard submit --file situation.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a config file (default: configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.locale, "lang", "", "message language (en, ar)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	rootCmd.AddCommand(
		newStatusCmd(opts),
		newFillCmd(opts),
		newBackCmd(opts),
		newGotoCmd(opts),
		newRestartCmd(opts),
		newAssistCmd(opts),
		newAssistAllCmd(opts),
		newSubmitCmd(opts),
		newServeStubCmd(opts),
		newMetricsCmd(opts),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
