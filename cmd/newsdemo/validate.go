package main

import (
	"fmt"
	"os"

	"github.com/artpar/newsdemo/bootstrap"
	"github.com/artpar/newsdemo/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the newsdemo configuration file.

Checks:
  - YAML syntax is valid
  - Ports, timeouts and the backend URL are well formed
  - Database driver and log settings are known
  - The seed file, when set, parses into a valid news list

Examples:
  newsdemo validate
  newsdemo validate --config /etc/newsdemo/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config syntax valid\n", checkMark)

	fmt.Fprintf(out, "  %s Front-end: %s\n", checkMark, cfg.Server.Addr())
	fmt.Fprintf(out, "  %s Backend: %s (client uses %s)\n", checkMark, cfg.API.Addr(), cfg.Client.BaseURL)
	fmt.Fprintf(out, "  %s Database: %s (%s)\n", checkMark, cfg.Database.DSN, cfg.Database.Driver)

	if cfg.API.SeedFile != "" {
		list, err := bootstrap.LoadSeed(cfg.API.SeedFile)
		if err != nil {
			fmt.Fprintf(out, "  %s Seed file\n", crossMark)
			return err
		}
		fmt.Fprintf(out, "  %s Seed file: %d items\n", checkMark, list.Len())
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
