package commands

import (
	"fmt"

	"github.com/marmos91/nfs4probe/pkg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the nfs4probe configuration file.

Checks for syntax errors, missing required fields, invalid values, and
that the configured request encodes.

Examples:
  # Validate default config
  nfs4probe validate

  # Validate specific config file
  nfs4probe validate --config ./probe.yaml`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	req, err := config.BuildRequest(&cfg.Request, cfg.Request.XID)
	if err != nil {
		return err
	}
	payload, err := req.Encode()
	if err != nil {
		return err
	}

	var warnings []string
	if !cfg.Request.PutRootFH && cfg.Request.FileHandle == "" {
		warnings = append(warnings, "neither request.put_root_fh nor request.file_handle is set - servers answer READDIR with NFS4ERR_NOFILEHANDLE")
	}
	if !cfg.Request.StandardHeader {
		warnings = append(warnings, "request.standard_header is false - the call envelope omits procedure and credentials")
	}

	fmt.Printf("Configuration file: %s\n", displayConfigPath())
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Server:        %s\n", config.ClientConfig(cfg).Address())
	fmt.Printf("  Tag:           %q\n", req.Compound.Tag)
	fmt.Printf("  Operations:    %v\n", req.Compound.OpNames())
	fmt.Printf("  Request size:  %d bytes\n", len(payload))
	fmt.Printf("  Capture store: %s\n", cfg.Capture.Type)
	fmt.Printf("  Log level:     %s\n", cfg.Logging.Level)

	return nil
}
