package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/devifact/DeviFact-sub000/internal/domain"
)

// Querier sous-ensemble commun à *pgxpool.Pool et pgx.Tx : les dépôts fonctionnent
// indifféremment hors transaction ou dans une transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// isUniqueViolation vérifie si err est une violation de contrainte d'unicité (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "23505")
}

// conflictOr traduit une violation d'unicité en domain.ErrConflict, sinon enveloppe err.
func conflictOr(err error, what string) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrConflict, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(p *string) string {
	if p != nil {
		return *p
	}
	return ""
}

// noRows indique l'absence de ligne (les lectures renvoient alors nil, nil).
func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
