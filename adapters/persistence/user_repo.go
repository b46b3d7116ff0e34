package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/cloudvid/internal/domain/user"
	"github.com/khoahotran/cloudvid/pkg/apperror"
	"github.com/khoahotran/cloudvid/pkg/logger"
)

type postgresUserRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresUserRepo(db *pgxpool.Pool, log logger.Logger) user.Repository {
	return &postgresUserRepo{db: db, logger: log}
}

func (r *postgresUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query, args, err := psql.Select("id", "email", "name", "password_hash", "created_at").
		From("users").
		Where("email = ?", strings.ToLower(email)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}

	u := &user.User{}
	err = r.db.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("user", email)
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// Upsert creates the user or replaces its name and password hash.
func (r *postgresUserRepo) Upsert(ctx context.Context, u *user.User) error {
	query, args, err := psql.Insert("users").
		Columns("id", "email", "name", "password_hash").
		Values(u.ID, strings.ToLower(u.Email), u.Name, u.PasswordHash).
		Suffix("ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user upsert: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&u.ID, &u.CreatedAt); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}
