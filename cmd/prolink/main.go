// Prolink listens for Pro DJ Link device announcements on the local network.
//
// Players, mixers and rekordbox hosts broadcast a keep-alive packet on UDP
// port 50000 about every 1.5 seconds. Prolink reports each device once when
// it appears, and again if it goes quiet for longer than ten seconds and
// then returns.
//
// Usage:
//
//	prolink [command] [flags]
//
// Running without arguments is the same as 'prolink listen'.
// See 'prolink --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/prolink/internal/config"
	"github.com/muurk/prolink/internal/logging"
	"github.com/muurk/prolink/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	logLevel   string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "prolink",
	Short: "Pro DJ Link device discovery",
	Long: `Discover CDJs, mixers and rekordbox hosts on the local network.

Prolink binds UDP port 50000, decodes the keep-alive announcements that
Pro DJ Link devices broadcast, and reports each device when it first
appears. Devices silent for more than ten seconds are forgotten and
reported again when they return.

If no command is specified, 'listen' runs.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
	RunE: runListen,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset unless "+logging.LogLevelEnvVar+" is set")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: platform config dir, or "+config.ConfigPathEnvVar+")")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "prolink %s\n", version.Full())
	},
}

// resolveConfigPath returns --config or the default config location
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

// loadRegistry loads the device registry and returns it with its path
func loadRegistry() (*config.Registry, string, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, "", fmt.Errorf("cannot locate config file: %w", err)
	}
	registry, err := config.LoadRegistryFrom(path)
	if err != nil {
		return nil, "", err
	}
	return registry, path, nil
}
