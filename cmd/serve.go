package cmd

import (
	"github.com/spf13/cobra"

	"github.com/markb/bcon/internal/server"
)

// serveKeys maps serve flags to config keys.
var serveKeys = map[string]string{
	"host":           "server.host",
	"port":           "server.port",
	"cors-origins":   "server.cors_origins",
	"store":          "store.driver",
	"store-url":      "store.url",
	"database":       "store.database",
	"pg-embedded":    "store.embedded.enabled",
	"pg-port":        "store.embedded.port",
	"data-dir":       "store.embedded.data_dir",
	"jwt-secret":     "auth.jwt_secret",
	"email-provider": "email.provider",
	"resend-api-key": "email.resend_api_key",
	"smtp-host":      "email.smtp_host",
	"smtp-port":      "email.smtp_port",
	"smtp-user":      "email.smtp_user",
	"smtp-pass":      "email.smtp_pass",
	"sender":         "email.sender",
	"recipient":      "email.recipient",
	"capture-mode":   "email.capture_mode",
	"capture-port":   "email.capture_port",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bcon server",
	Long: `Start the bcon HTTP server.

Settings come from built-in defaults, the config file, the environment
(BCON_* and the legacy MONGO_URL, DB_NAME, JWT_SECRET, RESEND_API_KEY,
SENDER_EMAIL, RECIPIENT_EMAIL, CORS_ORIGINS), and finally these flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, serveKeys)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return server.New(cfg).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	f := serveCmd.Flags()

	// Server
	f.String("host", "", "Host to bind to")
	f.Int("port", 0, "Port to listen on")
	f.String("cors-origins", "", "Comma-separated allowed CORS origins")

	// Storage
	f.String("store", "", "Store driver: memory, postgres, mongo")
	f.String("store-url", "", "PostgreSQL or MongoDB connection URL")
	f.String("database", "", "MongoDB database name")
	f.Bool("pg-embedded", false, "Run an embedded PostgreSQL for the postgres driver")
	f.Uint16("pg-port", 0, "Embedded PostgreSQL port")
	f.String("data-dir", "", "Data directory for embedded PostgreSQL")

	// Auth
	f.String("jwt-secret", "", "Secret for signing admin tokens")

	// Email
	f.String("email-provider", "", "Notification provider: none, smtp, resend")
	f.String("resend-api-key", "", "Resend API key")
	f.String("smtp-host", "", "SMTP server hostname")
	f.Int("smtp-port", 0, "SMTP server port")
	f.String("smtp-user", "", "SMTP username")
	f.String("smtp-pass", "", "SMTP password")
	f.String("sender", "", "From address for notifications")
	f.String("recipient", "", "Address that receives contact notifications")
	f.Bool("capture-mode", false, "Capture notification mail on a local SMTP server instead of sending it")
	f.Int("capture-port", 0, "Port for the mail capture SMTP server (default: 1025)")
}
