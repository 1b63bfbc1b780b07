// Command auditdesk runs the internal-audit API server and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/persistorai/auditdesk/internal/config"
	"github.com/persistorai/auditdesk/internal/dbpool"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

var flagEnvFile string

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("auditdesk version %s (commit: %s, built: %s)", version, commit, buildDate)
	}

	return fmt.Sprintf("auditdesk version %s-dev", version)
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "auditdesk",
		Short:        "auditdesk: internal audit management server",
		Version:      versionString(),
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "Path to a .env file (env: ENV_FILE, default .env)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newCreateAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the optional .env file and then the environment.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(flagEnvFile); err != nil {
		return nil, err
	}

	return config.Load()
}

// newLogger builds the process logger. Levels are validated by config.
func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}

	return log
}

// bootstrap loads config, builds the logger and connects to PostgreSQL.
// The caller closes the pool.
func bootstrap(ctx context.Context) (*config.Config, *logrus.Logger, *dbpool.Pool, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	log := newLogger(cfg.LogLevel)

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), cfg.DBMaxConns)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	return cfg, log, pool, nil
}
