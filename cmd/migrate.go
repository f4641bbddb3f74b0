package cmd

import (
	"fmt"

	"github.com/koopa0/thoughtline/db"
	"github.com/koopa0/thoughtline/internal/config"
)

// runMigrate runs the embedded database migrations and exits.
func runMigrate() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	fmt.Println("Migrations applied")
	return nil
}
