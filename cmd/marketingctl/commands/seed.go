package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"clinic_marketing_backend/internal/aiconfig"
	"clinic_marketing_backend/platform/validator"
)

var seedConfigCmd = &cobra.Command{
	Use:   "seed-config",
	Short: "Write the built-in agent configuration if none is stored",
	RunE:  runSeedConfig,
}

func init() {
	rootCmd.AddCommand(seedConfigCmd)
}

func runSeedConfig(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	pool, err := e.pool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	module := aiconfig.NewModule(pool, validator.New(), nil, e.cfg, e.log)
	seeded, err := module.Service().SeedDefaults(ctx)
	if err != nil {
		return err
	}
	if seeded {
		fmt.Fprintln(cmd.OutOrStdout(), "default agent configuration written")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "agent configuration already present")
	}
	return nil
}
