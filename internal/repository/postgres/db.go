package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"timesheet/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// mapWriteError translates driver-level constraint violations into repository
// errors, keeping the violated constraint name as structured detail.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrDuplicateKey, pqErr.Constraint)
	}
	return err
}

// sortColumn whitelists sortable columns; anything else falls back to
// created_at so caller-supplied sort fields cannot reach the SQL text.
func sortColumn(field string, allowed map[string]bool) string {
	if allowed[field] {
		return field
	}
	return "created_at"
}

// sortDirection normalizes a sort order to ASC/DESC.
func sortDirection(order string) string {
	if order == "asc" {
		return "ASC"
	}
	return "DESC"
}
