package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
	"timesheet/internal/repository"
)

// UserRepository is a PostgreSQL implementation of repository.UserRepository.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// NewUserRepositoryWithTx creates a user repository using a transaction.
func NewUserRepositoryWithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = "id, name, email, password_hash, role, status, hourly_rate, password_changed_at, created_at"

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, status, hourly_rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.HourlyRate,
		user.CreatedAt,
	)

	return mapWriteError(err)
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, email))
}

// List retrieves users matching the filter, paginated.
func (r *UserRepository) List(ctx context.Context, filter repository.UserFilter, page repository.Page) ([]*domain.User, error) {
	page = page.Normalize()
	where, args := userWhere(filter)

	query := fmt.Sprintf(
		`SELECT %s FROM users %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		userColumns, where,
		sortColumn(page.SortBy, map[string]bool{"created_at": true, "name": true, "email": true}),
		sortDirection(page.SortOrder),
		page.Limit, page.Offset(),
	)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// Count returns the number of users matching the filter.
func (r *UserRepository) Count(ctx context.Context, filter repository.UserFilter) (int, error) {
	where, args := userWhere(filter)

	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users `+where, args...).Scan(&count)
	return count, err
}

// GetByIDs retrieves all users whose IDs are in the given set.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// Update persists changed fields of an existing user.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, role = $4, status = $5, hourly_rate = $6, password_changed_at = $7
		WHERE id = $8
	`

	var changedAt sql.NullTime
	if !user.PasswordChangedAt.IsZero() {
		changedAt = sql.NullTime{Time: user.PasswordChangedAt, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.HourlyRate,
		changedAt,
		user.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}

	return requireRows(result)
}

// UpdatePassword stores a new password hash and stamps password_changed_at.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, password_changed_at = NOW() WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}

	return requireRows(result)
}

// UpdateHourlyRate stores a new hourly rate for the user.
func (r *UserRepository) UpdateHourlyRate(ctx context.Context, id string, rate decimal.Decimal) error {
	query := `UPDATE users SET hourly_rate = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, rate, id)
	if err != nil {
		return err
	}

	return requireRows(result)
}

// Delete removes a user by ID.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return requireRows(result)
}

// DeleteMany removes all users in the given ID set as one statement.
func (r *UserRepository) DeleteMany(ctx context.Context, ids []string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = ANY($1)`, pq.Array(ids))
	return err
}

// userWhere builds the WHERE clause for user filters.
func userWhere(filter repository.UserFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.SearchTerm != "" {
		args = append(args, "%"+filter.SearchTerm+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", n, n))
	}

	if filter.RestrictToRole != "" {
		args = append(args, filter.RestrictToRole)
		cond := fmt.Sprintf("role = $%d", len(args))
		if filter.VisibleToID != "" {
			args = append(args, filter.VisibleToID)
			cond = fmt.Sprintf("(%s OR id = $%d)", cond, len(args))
		}
		conds = append(conds, cond)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanOne(row *sql.Row) (*domain.User, error) {
	user, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) scanRow(row rowScanner) (*domain.User, error) {
	var user domain.User
	var changedAt sql.NullTime

	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.HourlyRate,
		&changedAt,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}

	if changedAt.Valid {
		user.PasswordChangedAt = changedAt.Time
	}

	return &user, nil
}

// requireRows converts a zero-row write into ErrNotFound.
func requireRows(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ensure UserRepository implements repository.UserRepository.
var _ repository.UserRepository = (*UserRepository)(nil)
