package repository

import (
	"context"
	"time"

	"city-tours/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, name, avatar_url, created_at`

// Create creates a new account, assigning its id and creation time
func (r *UserRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	account.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO users (id, email, password_hash, name, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.Name, account.AvatarURL, account.CreatedAt,
	)
	if err != nil {
		return classify(err, "create user", "user", account.ID)
	}
	return nil
}

// GetByID retrieves an account by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classify(err, "get user", "user", id)
	}
	return account, nil
}

// GetByEmail retrieves an account by its normalized e-mail
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	account, err := scanAccount(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, classify(err, "get user by email", "user", email)
	}
	return account, nil
}

// UpdatePassword replaces the password hash of an account
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return classify(err, "update password", "user", id)
	}
	if result.RowsAffected() == 0 {
		return models.NewNotFoundError("user", id)
	}
	return nil
}

func scanAccount(row scanner) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.AvatarURL, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

