package repository

import (
	"context"
	"fmt"

	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/pkg/database"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user domain.CreateUserRequest) (*domain.User, error) {
	conn := r.db.Conn(ctx)

	var created domain.User
	err := conn.QueryRowContext(ctx, `
		INSERT INTO users (long_name, name, email, claan)
		VALUES ($1, $2, $3, $4)
		RETURNING id, long_name, name, email, claan, active
	`, user.LongName, user.Name, user.Email, user.Claan).Scan(
		&created.ID, &created.LongName, &created.Name, &created.Email, &created.Claan, &created.Active,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &created, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	conn := r.db.Conn(ctx)

	var exists bool
	err := conn.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	conn := r.db.Conn(ctx)

	var user domain.User
	err := conn.QueryRowContext(ctx, `
		SELECT id, long_name, name, email, claan, active
		FROM users
		WHERE id = $1
	`, userID).Scan(&user.ID, &user.LongName, &user.Name, &user.Email, &user.Claan, &user.Active)

	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &user, nil
}

func (r *UserRepository) SetActive(ctx context.Context, userID int64, active bool) (*domain.User, error) {
	conn := r.db.Conn(ctx)

	var user domain.User
	err := conn.QueryRowContext(ctx, `
		UPDATE users
		SET active = $1
		WHERE id = $2
		RETURNING id, long_name, name, email, claan, active
	`, active, userID).Scan(&user.ID, &user.LongName, &user.Name, &user.Email, &user.Claan, &user.Active)

	if err != nil {
		return nil, HandleNoRowsError(err)
	}

	return &user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT id, long_name, name, email, claan, active
		FROM users
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.LongName, &user.Name, &user.Email, &user.Claan, &user.Active); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *UserRepository) GetByClaan(ctx context.Context, claan domain.Claan) ([]domain.User, error) {
	conn := r.db.Conn(ctx)

	rows, err := conn.QueryContext(ctx, `
		SELECT id, long_name, name, email, claan, active
		FROM users
		WHERE claan = $1
	`, claan)
	if err != nil {
		return nil, fmt.Errorf("failed to query users by claan: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.LongName, &user.Name, &user.Email, &user.Claan, &user.Active); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *UserRepository) Delete(ctx context.Context, userID int64) error {
	conn := r.db.Conn(ctx)

	result, err := conn.ExecContext(ctx, "DELETE FROM users WHERE id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
