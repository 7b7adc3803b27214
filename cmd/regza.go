package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"regza/internal"
	"regza/internal/device"
	"regza/internal/hub"
	"regza/internal/logger"
	"regza/internal/regza"
)

var (
	tvHost       string
	tvUser       string
	tvPass       string
	tvConfigPath string
	tvDeviceID   string
	tvMuteSource string
	tvTimeout    time.Duration
	tvTest       bool
	tvJSON       bool
)

// newRemote builds a device from --config/--device or from the host flags
func newRemote() (*regza.RegzaRemote, error) {
	options := internal.NewModeOptions(internal.WithTest(tvTest), internal.WithDebug(verbose), internal.WithTimeout(tvTimeout))

	if tvConfigPath != "" {
		config, err := hub.LoadConfig(tvConfigPath)
		if err != nil {
			return nil, err
		}
		id := tvDeviceID
		if id == "" {
			id = config.Devices[0].ID
		}
		deviceConfig, err := config.GetDevice(id)
		if err != nil {
			return nil, err
		}
		return regza.NewRegzaRemote(deviceConfig.ID, deviceConfig.ControllerConfig(), options), nil
	}

	host := tvHost
	if host == "" && tvTest {
		host = "simulator.local"
	}
	if host == "" {
		return nil, fmt.Errorf("--host or --config is required")
	}
	return regza.NewRegzaRemote("cli", regza.ControllerConfig{
		Endpoint:   regza.Endpoint{Host: host, User: tvUser, Pass: tvPass},
		MuteSource: regza.MuteSource(tvMuteSource),
		Timeout:    tvTimeout,
	}, options), nil
}

// runAction sends one action and prints the response
func runAction(cmd *cobra.Command, actionType device.ActionType, action string, params map[string]interface{}) error {
	remote, err := newRemote()
	if err != nil {
		return err
	}

	actionJSON, err := device.NewActionJSON(actionType, action, params)
	if err != nil {
		return err
	}

	log := logger.New()
	log.Debug().
		Str("host", remote.Controller().Host()).
		RawJSON("action", actionJSON).
		Msg("Sending action")

	response, err := remote.Process(cmd.Context(), actionJSON)
	if err != nil {
		return err
	}
	if !response.Success {
		return fmt.Errorf("%s", response.Error)
	}

	if tvJSON {
		return printJSON(cmd, response.Data)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "OK")
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

var remoteCmd = &cobra.Command{
	Use:   "remote [intent]",
	Short: "Send a remote control key",
	Long: `Send a remote control key to the television.
Run 'regza list' for the available intents.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		intent, err := regza.ParseIntent(args[0])
		if err != nil {
			return err
		}
		return runAction(cmd, device.ActionTypeRemote, string(intent), nil)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show power and mute state",
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, err := newRemote()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*tvTimeout+time.Second)
		defer cancel()

		state, err := remote.State(ctx)
		if err != nil {
			return err
		}

		if tvJSON {
			return printJSON(cmd, state)
		}
		power := "off"
		if state.Active {
			power = "on"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Power: %s\n", power)
		fmt.Fprintf(cmd.OutOrStdout(), "Muted: %t (%s)\n", state.Muted, remote.Controller().MuteSource())
		return nil
	},
}

var powerCmd = &cobra.Command{
	Use:       "power [on|off]",
	Short:     "Switch the television on or off",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		return runAction(cmd, device.ActionTypeControl, string(device.ControlActionSetPower), map[string]interface{}{"on": on})
	},
}

var muteCmd = &cobra.Command{
	Use:       "mute [on|off]",
	Short:     "Toggle mute",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		mute, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		return runAction(cmd, device.ActionTypeControl, string(device.ControlActionSetMute), map[string]interface{}{"mute": mute})
	},
}

var volumeCmd = &cobra.Command{
	Use:       "volume [up|down]",
	Short:     "Step the volume",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, device.ActionTypeControl, string(device.ControlActionVolume), map[string]interface{}{"direction": args[0]})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List remote intents and their key codes",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "INTENT\tCODE")
		for _, intent := range regza.Intents() {
			code, ok := regza.Resolve(intent)
			if !ok {
				code = "-"
			}
			fmt.Fprintf(w, "%s\t%s\n", intent, code)
		}
		return w.Flush()
	},
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func addTVFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&tvHost, "host", "H", os.Getenv("REGZA_HOST"), "television host address")
	cmd.Flags().StringVarP(&tvUser, "user", "u", os.Getenv("REGZA_USER"), "status API user")
	cmd.Flags().StringVarP(&tvPass, "pass", "p", os.Getenv("REGZA_PASS"), "status API password")
	cmd.Flags().StringVarP(&tvConfigPath, "config", "c", "", "read the television from a hub configuration file")
	cmd.Flags().StringVar(&tvDeviceID, "device", "", "device ID in the hub configuration (default: first)")
	cmd.Flags().StringVar(&tvMuteSource, "mute-source", string(regza.MuteSourceFixed), "mute reading: fixed or live")
	cmd.Flags().DurationVar(&tvTimeout, "timeout", regza.DefaultTimeout, "per-request timeout")
	cmd.Flags().BoolVar(&tvTest, "test", false, "talk to a simulated television")
	cmd.Flags().BoolVar(&tvJSON, "json", false, "print JSON")
}

func init() {
	for _, c := range []*cobra.Command{remoteCmd, statusCmd, powerCmd, muteCmd, volumeCmd} {
		addTVFlags(c)
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(listCmd)
}
