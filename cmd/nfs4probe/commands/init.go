package commands

import (
	"fmt"

	"github.com/marmos91/nfs4probe/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample nfs4probe configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/nfs4probe/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  nfs4probe init

  # Initialize with custom path
  nfs4probe init --config ./probe.yaml

  # Force overwrite existing config
  nfs4probe init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set server.host and server.port to the NFSv4 server under test")
	fmt.Println("  2. Send a READDIR with: nfs4probe readdir")
	fmt.Printf("  3. Or specify custom config: nfs4probe readdir --config %s\n", configPath)

	return nil
}
