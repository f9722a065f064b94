package postgres

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applique les migrations embarquées (migrations/NNNNNN_nom.up.sql) avec
// golang-migrate. La connexion dédiée reprend la configuration du pool (dial IPv4 compris)
// et se ferme à la fin. Renvoie les versions avant et après ; égales si rien à appliquer.
func Migrate(pool *pgxpool.Pool) (from, to uint, err error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return 0, 0, fmt.Errorf("source migrations: %w", err)
	}
	db := stdlib.OpenDB(*pool.Config().ConnConfig)
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		_ = db.Close()
		return 0, 0, fmt.Errorf("driver migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		_ = driver.Close()
		return 0, 0, fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	from, _, err = m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, 0, fmt.Errorf("version schéma: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return from, from, fmt.Errorf("migrate up: %w", err)
	}
	to, _, err = m.Version()
	if err != nil {
		return from, 0, fmt.Errorf("version schéma: %w", err)
	}
	return from, to, nil
}
