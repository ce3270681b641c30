package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/whitesource/wss-agent/src/config"
	"github.com/whitesource/wss-agent/src/output"
)

var (
	cfgFile string
	verbose bool
	defines []string

	cfg    *config.Config
	props  *config.Properties
	logger logrus.FieldLogger = logrus.StandardLogger()
)

var rootCmd = &cobra.Command{
	Use:   "wss-agent",
	Short: "WhiteSource build agent",
	Long:  "wss-agent sends the open source inventory of a build to WhiteSource and checks it against the organization's policies.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = output.NewLogger(os.Stdout, verbose, output.UseColor())

		// Skip config loading for commands that don't need it.
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		props, err = config.NewProperties(defines)
		if err != nil {
			return &ExitError{Code: exitExecFail, Err: err}
		}
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return &ExitError{Code: exitExecFail, Err: fmt.Errorf("loading config: %w", err)}
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .whitesource.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringArrayVarP(&defines, "define", "D", nil, "define a property (-D org.whitesource.checkPolicies=true)")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
