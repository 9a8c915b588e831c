package cli

import (
	"github.com/spf13/cobra"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/config"
	pgstore "github.com/VAL02142004/Online-Quiz--sub000/internal/repositories/postgres"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/utils"
	"github.com/VAL02142004/Online-Quiz--sub000/pkg"
)

// NewMigrateCmd applies the document store schema.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations()
		},
	}
}

func runMigrations() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := utils.NewDefaultLogger()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}

	if err := pgstore.NewDocumentStore(db).Migrate(); err != nil {
		return err
	}

	logger.Info("Migrations applied")
	return nil
}
