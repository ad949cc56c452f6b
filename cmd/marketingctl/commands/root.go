package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"clinic_marketing_backend/platform/config"
	"clinic_marketing_backend/platform/db"
	"clinic_marketing_backend/platform/logger"
)

var (
	timeout time.Duration
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "marketingctl",
	Short: "Operator tooling for the clinic marketing backend",
	Long: `marketingctl applies database migrations, seeds the agent configuration
and runs the analytics, follow-up and report jobs on demand.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall command timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// env carries what every subcommand needs.
type env struct {
	cfg *config.Config
	log *logger.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logEnv := cfg.Env
	if verbose {
		logEnv = "development"
	}
	return &env{cfg: cfg, log: logger.New(logEnv)}, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func (e *env) pool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := db.NewPool(ctx, e.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return pool, nil
}
