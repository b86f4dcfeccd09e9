package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/frahmantamala/leave-management/db/migrations"
	"github.com/frahmantamala/leave-management/internal"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run the embedded db migrations",
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	lg := setupLogger(cfg)

	db, err := initDB(cfg.Database)
	if err != nil {
		log.Fatalf("migrate: failed to open DB: %v\n", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	// the SQL files target Postgres; local SQLite databases get the schema
	// derived from the data model instead
	if cfg.Database.Driver == internal.DatabaseDriverSQLite {
		if migrateRollback {
			return fmt.Errorf("rollback is not supported for %s", cfg.Database.Driver)
		}
		if err := db.AutoMigrate(&leaveDatamodel.LeaveRequest{}); err != nil {
			log.Fatalf("automigrate: %v", err)
		}
		lg.Info("sqlite schema migrated")
		return nil
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	command := "up"
	if migrateRollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, sqlDB, "."); err != nil {
		log.Fatalf("goose %s: %v", command, err)
	}

	lg.Info("migrations applied", "command", command)
	return nil
}
