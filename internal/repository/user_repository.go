package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/friendmap/plans-api/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var ErrEmailTaken = errors.New("email already registered")

type UserRepository interface {
	CreateUser(ctx context.Context, email, displayName, password string) (models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, display_name, password_hash, is_active, created_at, updated_at`

func (u *userRepository) CreateUser(ctx context.Context, email, displayName, password string) (models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	displayName = strings.TrimSpace(displayName)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	const query = `
		INSERT INTO app.users (email, display_name, password_hash, is_active)
		VALUES ($1, $2, $3, true)
		RETURNING ` + userColumns + `;
	`
	user, err := scanUser(u.db.QueryRowContext(ctx, query, email, displayName, string(hash)))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, errors.Wrap(err, "create user")
	}
	return user, nil
}

func (u *userRepository) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM app.users
		WHERE email = $1;
	`
	user, err := scanUser(u.db.QueryRowContext(ctx, query, strings.TrimSpace(strings.ToLower(email))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, errors.New("invalid credentials")
		}
		return models.User{}, err
	}
	if !user.IsActive {
		return models.User{}, errors.New("user is inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, errors.New("invalid credentials")
	}
	return user, nil
}

func (u *userRepository) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM app.users
		WHERE id = $1;
	`
	return scanUser(u.db.QueryRowContext(ctx, query, userID))
}

func scanUser(s rowScanner) (models.User, error) {
	var user models.User
	err := s.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}
