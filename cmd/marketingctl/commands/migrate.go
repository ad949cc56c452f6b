package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"clinic_marketing_backend/internal/aiconfig"
	"clinic_marketing_backend/platform/db"
	"clinic_marketing_backend/platform/validator"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations and seed the default agent configuration",
	RunE:  runMigrateUp,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List migrations and whether they are applied",
	RunE:  runMigrateStatus,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
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

	seeder := aiconfig.NewModule(pool, validator.New(), nil, e.cfg, e.log).Service()
	res, err := aiconfig.Provision(ctx, func(ctx context.Context) ([]int64, error) {
		return db.RunMigrations(ctx, e.cfg)
	}, seeder)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(res.Applied) == 0 {
		fmt.Fprintln(out, "schema is up to date")
	}
	for _, v := range res.Applied {
		fmt.Fprintf(out, "applied %05d\n", v)
	}
	if res.Seeded {
		fmt.Fprintln(out, "default agent configuration written")
	}
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	statuses, err := db.Status(ctx, e.cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tAPPLIED\tSOURCE")
	for _, st := range statuses {
		fmt.Fprintf(w, "%05d\t%t\t%s\n", st.Version, st.Applied, st.Source)
	}
	return w.Flush()
}
