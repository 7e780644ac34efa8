package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gcbaptista/candidate-search/config"
)

const version = "1.0.0"

var (
	// Global flags
	debug   bool
	envFile string

	logger   *zap.Logger
	settings config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "candidate-search",
	Short: "Fuzzy search over election candidates, grouped by district, admin unit and party",
	Long: `candidate-search loads the candidate index from S3-compatible object storage
(MinIO by default) and answers fuzzy queries on name, party and location.
Results are grouped by district, then administrative unit, then party.

Configuration is read from the environment (and a .env file when present):
  CANDIDATES_S3_ENDPOINT, CANDIDATES_S3_REGION, CANDIDATES_S3_BUCKET,
  CANDIDATES_INDEX_FILE, CANDIDATES_S3_ACCESS_KEY, CANDIDATES_S3_SECRET_KEY,
  CANDIDATES_FETCH_TIMEOUT, CANDIDATES_SORT_KEYS, PORT, DATA_DIR`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}

		var err error
		logger, err = newLogger(debug)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		settings, err = config.LoadFromEnv()
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration")

	rootCmd.AddCommand(newServeCmd(), newSearchCmd())
}

// loadEnvFile loads path into the environment. A missing default file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) && path == ".env" {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
