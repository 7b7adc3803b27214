package cmd

import (
	"github.com/spf13/cobra"
	"regza/cmd/cli"
	"regza/internal"
	"regza/internal/logger"
	"regza/internal/regza"
)

var debugFlag bool

var cliCmd = &cobra.Command{
	Use:   "cli",
	Short: "Start the interactive terminal remote",
	Long: `Launch the interactive terminal remote for a REGZA television.
Pass --host or --config to connect straight away; otherwise the connection
screen asks for the address and status API credentials.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if debugFlag {
			logger.SetSilentMode(false)
			logger.SetLevel("debug")
		} else {
			// the alternate screen owns the terminal
			logger.SetSilentMode(true)
		}

		log := logger.New()
		log.Info().
			Bool("debug", debugFlag).
			Bool("test", tvTest).
			Msg("Starting REGZA terminal remote")

		var remote *regza.RegzaRemote
		if tvHost != "" || tvConfigPath != "" {
			r, err := newRemote()
			if err != nil {
				return err
			}
			remote = r
		}

		options := internal.NewModeOptions(internal.WithDebug(debugFlag), internal.WithTest(tvTest), internal.WithTimeout(tvTimeout))
		if err := cli.StartTUI(options, remote); err != nil {
			log.Error().Err(err).Msg("Failed to start TUI")
			return err
		}

		return nil
	},
}

func init() {
	addTVFlags(cliCmd)
	cliCmd.Flags().BoolVar(&debugFlag, "debug", false, "Enable debug logging for HTTP requests")
}
