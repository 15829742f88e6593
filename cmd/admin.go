package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/markb/bcon/internal/admin"
	"github.com/markb/bcon/internal/config"
	"github.com/markb/bcon/internal/model"
	"github.com/markb/bcon/internal/prompt"
	"github.com/markb/bcon/internal/server"
	"github.com/markb/bcon/internal/store"
)

// storeKeys maps storage flags shared by admin and init to config keys.
var storeKeys = map[string]string{
	"store":       "store.driver",
	"store-url":   "store.url",
	"database":    "store.database",
	"pg-embedded": "store.embedded.enabled",
	"pg-port":     "store.embedded.port",
	"data-dir":    "store.embedded.data_dir",
}

func addStoreFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("store", "", "Store driver: postgres, mongo")
	f.String("store-url", "", "PostgreSQL or MongoDB connection URL")
	f.String("database", "", "MongoDB database name")
	f.Bool("pg-embedded", false, "Use the embedded PostgreSQL")
	f.Uint16("pg-port", 0, "Embedded PostgreSQL port")
	f.String("data-dir", "", "Data directory for embedded PostgreSQL")
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
	Long:  `Manage the accounts that can sign in to the admin API.`,
}

var adminAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new admin account",
	Long: `Add a new admin account.

You will be prompted for anything not given as a flag.`,
	RunE: runAdminAdd,
}

var adminChangePasswordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Change an admin account's password",
	RunE:  runAdminChangePassword,
}

var adminDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete an admin account",
	Long: `Delete an admin account. Tokens already issued to it stop working
immediately.`,
	RunE: runAdminDelete,
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all admin accounts",
	RunE:  runAdminList,
}

var (
	flagAdminEmail string
	flagAdminName  string
	flagAdminYes   bool
)

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminAddCmd)
	adminCmd.AddCommand(adminChangePasswordCmd)
	adminCmd.AddCommand(adminDeleteCmd)
	adminCmd.AddCommand(adminListCmd)
	addStoreFlags(adminCmd)

	for _, c := range []*cobra.Command{adminAddCmd, adminChangePasswordCmd, adminDeleteCmd} {
		c.Flags().StringVar(&flagAdminEmail, "email", "", "Account email")
	}
	adminAddCmd.Flags().StringVar(&flagAdminName, "name", "", "Display name")
	adminDeleteCmd.Flags().BoolVarP(&flagAdminYes, "yes", "y", false, "Do not ask for confirmation")
}

func header(title string) {
	fmt.Println("===========================================")
	fmt.Println(title)
	fmt.Println("===========================================")
	fmt.Println()
}

func runAdminAdd(cmd *cobra.Command, args []string) error {
	header("Add Admin Account")

	cfg, err := loadConfig(cmd, storeKeys)
	if err != nil {
		return err
	}

	reader := prompt.NewReader()
	email := flagAdminEmail
	if email == "" {
		if email, err = reader.Email("Email"); err != nil {
			return err
		}
	}
	name := flagAdminName
	if name == "" {
		if name, err = reader.String("Name", ""); err != nil {
			return err
		}
	}
	password, err := reader.Password("Password")
	if err != nil {
		return err
	}
	reg := model.Registration{Email: email, Password: password, Name: name}
	if err := reg.Validate(); err != nil {
		return err
	}
	if err := reader.ConfirmPassword("Confirm password", password); err != nil {
		return err
	}
	fmt.Println()

	return withAccounts(cmd.Context(), cfg, func(ctx context.Context, svc *admin.Service) error {
		account, err := svc.Register(ctx, reg)
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("an admin with email %s already exists", model.NormalizeEmail(email))
		}
		if err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}

		fmt.Printf("✓ Admin account created\n")
		fmt.Printf("  Email: %s\n", account.Email)
		fmt.Printf("  Name: %s\n", account.Name)
		fmt.Printf("  ID: %s\n", account.ID)
		fmt.Printf("  Created: %s\n", account.CreatedAt.Format(time.RFC3339))
		return nil
	})
}

func runAdminChangePassword(cmd *cobra.Command, args []string) error {
	header("Change Admin Password")

	cfg, err := loadConfig(cmd, storeKeys)
	if err != nil {
		return err
	}

	reader := prompt.NewReader()
	email := flagAdminEmail
	if email == "" {
		if email, err = reader.Email("Email"); err != nil {
			return err
		}
	}
	password, err := reader.Password("New password")
	if err != nil {
		return err
	}
	if err := reader.ConfirmPassword("Confirm new password", password); err != nil {
		return err
	}
	fmt.Println()

	return withAccounts(cmd.Context(), cfg, func(ctx context.Context, svc *admin.Service) error {
		if err := svc.ChangePassword(ctx, email, password); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no admin with email %s", email)
			}
			return fmt.Errorf("failed to update password: %w", err)
		}
		fmt.Printf("✓ Password updated for: %s\n", email)
		return nil
	})
}

func runAdminDelete(cmd *cobra.Command, args []string) error {
	header("Delete Admin Account")

	cfg, err := loadConfig(cmd, storeKeys)
	if err != nil {
		return err
	}

	reader := prompt.NewReader()
	email := flagAdminEmail
	if email == "" {
		if email, err = reader.Email("Email"); err != nil {
			return err
		}
	}
	if !flagAdminYes {
		ok, err := reader.Confirm(fmt.Sprintf("Delete %s?", email))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Deletion cancelled.")
			return nil
		}
	}
	fmt.Println()

	return withAccounts(cmd.Context(), cfg, func(ctx context.Context, svc *admin.Service) error {
		if err := svc.Delete(ctx, email); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no admin with email %s", email)
			}
			return fmt.Errorf("failed to delete admin: %w", err)
		}
		fmt.Printf("✓ Admin account deleted: %s\n", email)
		return nil
	})
}

func runAdminList(cmd *cobra.Command, args []string) error {
	header("Admin Accounts")

	cfg, err := loadConfig(cmd, storeKeys)
	if err != nil {
		return err
	}

	return withAccounts(cmd.Context(), cfg, func(ctx context.Context, svc *admin.Service) error {
		accounts, err := svc.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list admins: %w", err)
		}

		if len(accounts) == 0 {
			fmt.Println("No admin accounts found.")
			fmt.Println()
			fmt.Println("Create one with:")
			fmt.Println("  bcon admin add")
			return nil
		}

		fmt.Printf("Found %d admin account(s):\n", len(accounts))
		fmt.Println()
		for i, a := range accounts {
			fmt.Printf("%d. %s\n", i+1, a.Email)
			fmt.Printf("   Name: %s\n", a.Name)
			fmt.Printf("   ID: %s\n", a.ID)
			fmt.Printf("   Created: %s\n", a.CreatedAt.Format(time.RFC3339))
			fmt.Println()
		}
		return nil
	})
}

// withAccounts opens the configured store, starting the embedded database
// when needed, and runs fn against it.
func withAccounts(ctx context.Context, cfg *config.Config, fn func(context.Context, *admin.Service) error) error {
	if cfg.Store.Driver == store.DriverMemory {
		return errors.New("admin commands need a persistent store; set store.driver to postgres or mongo")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	st, stop, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer stop()

	return fn(ctx, admin.NewService(st))
}

// openStore opens cfg's store. The returned func closes it and stops the
// embedded database, if one was started.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	st, db, err := server.OpenStore(ctx, cfg)
	stopDB := func() {
		if db != nil {
			_ = db.Stop()
		}
	}
	if err != nil {
		stopDB()
		return nil, nil, err
	}
	return st, func() {
		_ = st.Close(context.Background())
		stopDB()
	}, nil
}
