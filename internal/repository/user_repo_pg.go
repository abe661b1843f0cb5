package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	// UpdateRole moves username from one role to another and reports whether
	// a row matched.
	UpdateRole(ctx context.Context, username string, from, to domain.Role) (bool, error)
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, first_name, last_name, phone_no, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		u.Username, u.PasswordHash, u.FirstName, u.LastName, u.PhoneNo, u.Role).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if uniqueViolationOn(err, "users_username_key") {
			return domain.ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PGUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `
		SELECT id, username, password_hash, first_name, last_name, phone_no, role, created_at
		FROM users WHERE username=$1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.PhoneNo, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PGUserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT id, username, first_name, last_name, phone_no, role, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PhoneNo, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PGUserRepository) UpdateRole(ctx context.Context, username string, from, to domain.Role) (bool, error) {
	res, err := r.db.Exec(ctx, `UPDATE users SET role=$1 WHERE username=$2 AND role=$3`, to, username, from)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
