package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/markb/bcon/internal/config"
	"github.com/markb/bcon/internal/log"
)

var (
	Version   = "dev"
	BuildTime = ""
	GitCommit = ""
)

// configFile is the --config flag shared by every command.
var configFile string

var rootCmd = &cobra.Command{
	Use:     "bcon",
	Short:   "bcon - B-CON Consulting website backend",
	Long:    `A single-binary backend for the B-CON Consulting site: public content, contact form, and the admin API.`,
	Version: Version,

	SilenceUsage: true,
}

func init() {
	versionTmpl := "bcon version {{.Version}}"
	if BuildTime != "" {
		versionTmpl += " (built " + BuildTime
		if GitCommit != "" {
			versionTmpl += ", commit " + GitCommit
		}
		versionTmpl += ")"
	}
	versionTmpl += "\n"
	rootCmd.SetVersionTemplate(versionTmpl)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: bcon.yaml or bcon.json in the working directory)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// persistentKeys maps root flags to config keys.
var persistentKeys = map[string]string{
	"log-level": "log.level",
}

// loadConfig loads configuration with the changed flags of cmd applied on
// top, using keys to map flag names to config keys, and configures logging.
func loadConfig(cmd *cobra.Command, keys map[string]string) (*config.Config, error) {
	overrides := map[string]any{}
	for _, table := range []map[string]string{persistentKeys, keys} {
		for name, key := range table {
			if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
				overrides[key] = f.Value.String()
			}
		}
	}

	cfg, err := config.Load(configFile, overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	log.SetFormat(cfg.Log.Format)
	return cfg, nil
}
