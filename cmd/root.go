package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"regza/internal/logger"
)

var (
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "regza",
	Short: "Control Toshiba REGZA televisions",
	Long: `regza talks to Toshiba REGZA televisions on the local network.
It reads power and mute state through the digest-authenticated status API,
sends remote control keys, and runs a hub that bridges televisions to
HomeKit, a REST API and MQTT.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetSilentMode(false)
			logger.SetLevel("debug")
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(cliCmd)
	rootCmd.AddCommand(hubCmd)
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
