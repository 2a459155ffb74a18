package cli

import (
	"context"

	"github.com/spf13/cobra"

	"ochem-lab-service/internal/config"
	"ochem-lab-service/internal/content"
	"ochem-lab-service/internal/infra/postgres"
	"ochem-lab-service/internal/logger"
)

// NewSeedCmd upserts the authoring catalog into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the activity catalog into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log.Mode)
			if err != nil {
				return err
			}
			defer log.Sync()

			if dir == "" {
				dir = cfg.Activity.CatalogDir
			}
			catalog, err := loadCatalog(ctx, dir)
			if err != nil {
				return err
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := runMigrations(ctx, db, log); err != nil {
				return err
			}
			n, err := postgres.SeedActivities(ctx, db, catalog.Activities())
			if err != nil {
				return err
			}
			log.Info("catalog seeded", "activities", n, "source", catalogSource(dir))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "catalog directory (defaults to the embedded catalog)")
	return cmd
}

func loadCatalog(ctx context.Context, dir string) (*content.Catalog, error) {
	if dir == "" {
		return content.Builtin(ctx)
	}
	return content.LoadDir(ctx, dir)
}

func catalogSource(dir string) string {
	if dir == "" {
		return "embedded"
	}
	return dir
}
