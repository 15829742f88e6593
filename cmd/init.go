package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/markb/bcon/internal/config"
)

var (
	flagInitPath  string
	flagInitForce bool
	flagInitStore bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file and prepare the store",
	Long: `Writes bcon.yaml with defaults and a freshly generated JWT secret.

With --prepare-store, also opens the configured store so tables (PostgreSQL) or
indexes (MongoDB) are created before the first serve.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := writeStarterConfig(flagInitPath, flagInitForce); err != nil {
			return err
		}
		if !flagInitStore {
			return nil
		}

		if configFile == "" {
			configFile = flagInitPath
		}
		cfg, err := loadConfig(cmd, storeKeys)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		fmt.Printf("Preparing %s store...\n", cfg.Store.Driver)
		_, stop, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		stop()
		fmt.Println("✓ Store ready")
		return nil
	},
}

func writeStarterConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		fmt.Printf("%s already exists, leaving it unchanged (use --force to overwrite)\n", path)
		return nil
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("failed to generate secret: %w", err)
	}
	data, err := config.Starter(hex.EncodeToString(secret))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("✓ Wrote %s\n", path)
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&flagInitPath, "path", "bcon.yaml", "Where to write the config file")
	initCmd.Flags().BoolVar(&flagInitForce, "force", false, "Overwrite an existing config file")
	initCmd.Flags().BoolVar(&flagInitStore, "prepare-store", false, "Also create tables or indexes in the configured store")
	addStoreFlags(initCmd)
}
