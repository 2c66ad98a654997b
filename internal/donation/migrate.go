package donation

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx" // PGX driver for golang-migrate
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/ubuntu/decorate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded schema migrations to the database described by cfg.
// A database which is already up to date is not an error.
func Migrate(log *slog.Logger, cfg PostgresConfig) (err error) {
	defer decorate.OnError(&err, "could not migrate database")

	if err := check(KindPostgres, &cfg); err != nil {
		return err
	}

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %v", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.URL("pgx"))
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %v", err)
	}
	defer func() {
		if sErr, dbErr := m.Close(); sErr != nil || dbErr != nil {
			if sErr != nil {
				log.Error("failed to close migration instance", "error", sErr)
			}
			if dbErr != nil {
				log.Error("failed to close database connection", "error", dbErr)
			}
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("No new migrations to apply")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %v", err)
	}
	log.Info("Migrations applied successfully")
	return nil
}
