package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Codesplay12/Taskify/internal/domain"
)

// UserRepository abstracts all database access for users. It doubles as the
// user directory: display fields only, never an authorization source beyond
// id and stored role.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
	ListByRole(ctx context.Context, role domain.Role, limit int) ([]*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository wraps a pgxpool with the UserRepository interface.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, avatar_url, created_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		user.ID, user.Name, user.Email, user.PasswordHash,
		string(user.Role), user.AvatarURL, user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &domain.EmailTakenError{Email: user.Email}
		}
		return storeErr(fmt.Sprintf("create user %s", user.ID), err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.UserNotFoundError{UserID: id}
		}
		return nil, storeErr(fmt.Sprintf("get user %s", id), err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.UserNotFoundError{UserID: email}
		}
		return nil, storeErr("get user by email", err)
	}
	return user, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, avatar_url = $4
		WHERE id = $5
	`, user.Name, user.Email, user.PasswordHash, user.AvatarURL, user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &domain.EmailTakenError{Email: user.Email}
		}
		return storeErr(fmt.Sprintf("update user %s", user.ID), err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.UserNotFoundError{UserID: user.ID}
	}
	return nil
}

// ListByRole returns users with the given role, newest first. limit <= 0
// means no limit.
func (r *userRepository) ListByRole(ctx context.Context, role domain.Role, limit int) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at DESC`
	args := []any{string(role)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

func scanUser(row interface {
	Scan(...any) error
}) (*domain.User, error) {
	var user domain.User
	var roleStr string
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&roleStr, &user.AvatarURL, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = domain.Role(roleStr)
	return &user, nil
}
