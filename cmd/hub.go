package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"regza/internal"
	"regza/internal/gateway"
	"regza/internal/hub"
	"regza/internal/logger"
)

var (
	hubConfigPath string
	hubDebugFlag  bool
	hubTestFlag   bool
	hubJSONLogs   bool
)

var hubCmd = &cobra.Command{
	Use:   "hub",
	Short: "Start the REGZA hub daemon",
	Long: `The REGZA hub is a daemon that manages the televisions listed in a
configuration file and exposes them as HomeKit accessories, through a REST API
and over MQTT.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if hubJSONLogs {
			logger.SetJSONMode()
		} else {
			logger.SetSilentMode(false)
		}
		if hubDebugFlag {
			logger.SetLevel("debug")
		} else {
			logger.SetLevel("info")
		}

		log := logger.New()
		log.Info().
			Str("config_path", hubConfigPath).
			Bool("debug", hubDebugFlag).
			Bool("test", hubTestFlag).
			Msg("Starting REGZA hub daemon")

		if _, err := os.Stat(hubConfigPath); os.IsNotExist(err) {
			defaultConfig := hub.NewDefaultConfig()
			if err := hub.SaveConfig(defaultConfig, hubConfigPath); err != nil {
				log.Error().Err(err).Msg("Failed to create default config file")
				return fmt.Errorf("failed to create default config file: %w", err)
			}
			log.Info().
				Str("config_path", hubConfigPath).
				Msg("Created default configuration file. Please edit it with your settings.")
			return nil
		}

		options := internal.NewModeOptions(internal.WithDebug(hubDebugFlag), internal.WithTest(hubTestFlag))
		daemon, err := hub.NewDaemon(hubConfigPath, options)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create hub daemon")
			return fmt.Errorf("failed to create hub daemon: %w", err)
		}

		// blocks until SIGINT/SIGTERM
		if err := daemon.Start(); err != nil {
			log.Error().Err(err).Msg("Hub daemon stopped with error")
			return fmt.Errorf("hub daemon error: %w", err)
		}

		return nil
	},
}

var hubStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which hub components are configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := hub.LoadConfig(hubConfigPath)
		if err != nil {
			return err
		}

		cmd.Printf("Hub: %s\n", config.Hub.Name)
		cmd.Printf("  homekit: %s\n", component(config.HomeKit.Enabled, config.HomeKit.Address))
		cmd.Printf("  api:     %s\n", component(config.API.Enabled, config.API.Address))
		cmd.Printf("  mqtt:    %s\n", component(config.MQTT.Enabled, config.MQTT.Broker))
		if config.Hub.Journal != "" {
			cmd.Printf("  journal: %s (retention %s)\n", config.Hub.Journal, config.Hub.JournalRetention)
		} else {
			cmd.Println("  journal: disabled")
		}
		cmd.Printf("Devices: %d\n", len(config.Devices))
		return nil
	},
}

func component(enabled bool, address string) string {
	if !enabled {
		return "disabled"
	}
	return "enabled on " + address
}

var hubConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage hub configuration",
	Long:  `Generate or validate hub configuration files.`,
}

var hubConfigGenerateCmd = &cobra.Command{
	Use:   "generate [config-file]",
	Short: "Generate default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := hubConfigPath
		if len(args) > 0 {
			configPath = args[0]
		}

		if err := hub.SaveConfig(hub.NewDefaultConfig(), configPath); err != nil {
			return fmt.Errorf("failed to save default config: %w", err)
		}

		cmd.Printf("Default configuration saved to: %s\n", configPath)
		cmd.Println("Please edit the file with your television addresses and credentials.")
		return nil
	},
}

var hubConfigValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := hubConfigPath
		if len(args) > 0 {
			configPath = args[0]
		}

		config, err := hub.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		cmd.Printf("Configuration file is valid: %s\n", configPath)
		cmd.Printf("Configured devices: %d\n", len(config.Devices))
		for _, device := range config.Devices {
			cmd.Printf("  - %s (%s) at %s, mute source %s\n", device.ID, device.Name, device.Host, device.MuteSource)
		}

		return nil
	},
}

var hubHashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Hash a password for api.password_hash",
	Long: `Hash a password with argon2id for the api.password_hash setting.
The password is read from standard input when not given as an argument.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) > 0 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if password == "" {
			return fmt.Errorf("password must not be empty")
		}

		hash, err := gateway.NewPasswordService().HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var (
	deviceName       string
	deviceModel      string
	deviceHost       string
	deviceUser       string
	devicePass       string
	deviceMuteSource string
)

var hubDeviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Manage televisions in the hub configuration",
}

var hubDeviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured televisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := hub.NewConfigManager(hubConfigPath).ListDevices()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tMODEL\tHOST\tMUTE SOURCE")
		for _, d := range devices {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, d.Model, d.Host, d.MuteSource)
		}
		return w.Flush()
	},
}

var hubDeviceAddCmd = &cobra.Command{
	Use:   "add [device-id]",
	Short: "Add a television",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cm := hub.NewConfigManager(hubConfigPath)
		err := cm.AddDevice(hub.DeviceConfig{
			ID:         args[0],
			Name:       deviceName,
			Model:      deviceModel,
			Host:       deviceHost,
			User:       deviceUser,
			Pass:       devicePass,
			MuteSource: deviceMuteSource,
		})
		if err != nil {
			return err
		}
		cmd.Printf("Added %s to %s\n", args[0], hubConfigPath)
		return nil
	},
}

var hubDeviceRemoveCmd = &cobra.Command{
	Use:   "remove [device-id]",
	Short: "Remove a television",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := hub.NewConfigManager(hubConfigPath).RemoveDevice(args[0]); err != nil {
			return err
		}
		cmd.Printf("Removed %s from %s\n", args[0], hubConfigPath)
		return nil
	},
}

func init() {
	hubCmd.PersistentFlags().StringVarP(&hubConfigPath, "config", "c", "hub.yml", "Path to hub configuration file")
	hubCmd.Flags().BoolVarP(&hubDebugFlag, "debug", "d", false, "Enable debug logging")
	hubCmd.Flags().BoolVar(&hubTestFlag, "test", false, "Enable test mode (simulated televisions)")
	hubCmd.Flags().BoolVar(&hubJSONLogs, "json-logs", false, "Write logs as JSON")

	hubCmd.AddCommand(hubStatusCmd)
	hubCmd.AddCommand(hubConfigCmd)
	hubCmd.AddCommand(hubHashPasswordCmd)
	hubConfigCmd.AddCommand(hubConfigGenerateCmd)
	hubConfigCmd.AddCommand(hubConfigValidateCmd)

	hubCmd.AddCommand(hubDeviceCmd)
	hubDeviceCmd.AddCommand(hubDeviceListCmd)
	hubDeviceCmd.AddCommand(hubDeviceAddCmd)
	hubDeviceCmd.AddCommand(hubDeviceRemoveCmd)

	hubDeviceAddCmd.Flags().StringVar(&deviceName, "name", "", "accessory name")
	hubDeviceAddCmd.Flags().StringVar(&deviceModel, "model", "", "model reported to HomeKit")
	hubDeviceAddCmd.Flags().StringVarP(&deviceHost, "host", "H", "", "television host address")
	hubDeviceAddCmd.Flags().StringVarP(&deviceUser, "user", "u", "", "status API user")
	hubDeviceAddCmd.Flags().StringVarP(&devicePass, "pass", "p", "", "status API password")
	hubDeviceAddCmd.Flags().StringVar(&deviceMuteSource, "mute-source", "", "mute reading: fixed or live")
	_ = hubDeviceAddCmd.MarkFlagRequired("host")
}
