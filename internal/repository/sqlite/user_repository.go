package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"seller-users/internal/database"
	"seller-users/internal/domain"
	"seller-users/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	seller_id INTEGER NOT NULL,
	email TEXT NOT NULL,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	phone_number TEXT,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE (seller_id, email)
);
CREATE INDEX IF NOT EXISTS idx_users_seller ON users (seller_id);
CREATE INDEX IF NOT EXISTS idx_users_email ON users (email);
CREATE INDEX IF NOT EXISTS idx_users_seller_active_created ON users (seller_id, is_active, created_at DESC);
`

type UserRepository struct {
	manager *database.Manager
}

func NewUserRepository(manager *database.Manager) repository.UserRepository {
	return &UserRepository{manager: manager}
}

func (r *UserRepository) Init(ctx context.Context) error {
	db, err := r.manager.DB()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	db, err := r.manager.DB()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = db.ExecContext(ctx, `
INSERT INTO users (id, seller_id, email, first_name, last_name, phone_number, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.SellerID,
		user.Email,
		user.FirstName,
		user.LastName,
		nullableString(user.PhoneNumber),
		boolToInt(user.IsActive),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, sellerID int64, id string) (*domain.User, error) {
	db, err := r.manager.DB()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `
SELECT id, seller_id, email, first_name, last_name, phone_number, is_active, created_at, updated_at
FROM users
WHERE id = ? AND seller_id = ?`,
		id, sellerID,
	)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, sellerID int64, email string) (*domain.User, error) {
	db, err := r.manager.DB()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `
SELECT id, seller_id, email, first_name, last_name, phone_number, is_active, created_at, updated_at
FROM users
WHERE seller_id = ? AND email = ?`,
		sellerID, email,
	)
	return scanUser(row)
}

func (r *UserRepository) Update(ctx context.Context, sellerID int64, id string, patch domain.UserPatch) (*domain.User, error) {
	if patch.IsEmpty() {
		return nil, domain.ErrNoFieldsProvided
	}

	db, err := r.manager.DB()
	if err != nil {
		return nil, err
	}

	assignments := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}
	if patch.Email != nil {
		assignments = append(assignments, "email = ?")
		args = append(args, *patch.Email)
	}
	if patch.FirstName != nil {
		assignments = append(assignments, "first_name = ?")
		args = append(args, *patch.FirstName)
	}
	if patch.LastName != nil {
		assignments = append(assignments, "last_name = ?")
		args = append(args, *patch.LastName)
	}
	if patch.PhoneNumber != nil {
		assignments = append(assignments, "phone_number = ?")
		args = append(args, nullableString(*patch.PhoneNumber))
	}
	if patch.IsActive != nil {
		assignments = append(assignments, "is_active = ?")
		args = append(args, boolToInt(*patch.IsActive))
	}
	args = append(args, id, sellerID)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = ? AND seller_id = ?", strings.Join(assignments, ", "))
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update user rows affected: %w", err)
	}
	if affected == 0 {
		return nil, domain.ErrNotFound
	}

	return r.GetByID(ctx, sellerID, id)
}

func (r *UserRepository) List(ctx context.Context, sellerID int64, query domain.ListQuery) ([]domain.User, int, error) {
	db, err := r.manager.DB()
	if err != nil {
		return nil, 0, err
	}

	where := []string{"seller_id = ?"}
	args := []any{sellerID}
	if query.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, boolToInt(*query.IsActive))
	}
	if s := strings.TrimSpace(query.Search); s != "" {
		where = append(where, "(lower(email) LIKE ? OR lower(first_name) LIKE ? OR lower(last_name) LIKE ?)")
		pattern := "%" + strings.ToLower(s) + "%"
		args = append(args, pattern, pattern, pattern)
	}
	filter := strings.Join(where, " AND ")

	var total int
	countRow := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE "+filter, args...)
	if err := countRow.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	pageArgs := append(args, query.PageSize, query.Skip())
	rows, err := db.QueryContext(ctx, `
SELECT id, seller_id, email, first_name, last_name, phone_number, is_active, created_at, updated_at
FROM users
WHERE `+filter+`
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`,
		pageArgs...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	return users, total, nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user     domain.User
		phone    sql.NullString
		isActive int64
	)
	if err := row.Scan(
		&user.ID,
		&user.SellerID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&phone,
		&isActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.PhoneNumber = phone.String
	user.IsActive = isActive != 0
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
