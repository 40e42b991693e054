// Package store holds the credential and telemetry stores backed by gorm
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sensorhub/telemetry-api/internal/model"
	"sensorhub/telemetry-api/pkg/security"
	"sensorhub/telemetry-api/pkg/validators"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	ErrDuplicateEmail = errors.New("email already registered")
	ErrUserNotFound   = errors.New("user not found")

	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Users struct {
	db     *gorm.DB
	hasher *security.ArgonHash
}

func NewUsers(db *gorm.DB, hasher *security.ArgonHash) *Users {
	return &Users{db: db, hasher: hasher}
}

// CreateUser hashes the password and inserts a new user. Uniqueness of the
// email is left to the unique index so concurrent signups can't both win.
func (s *Users) CreateUser(ctx context.Context, name, email, password string) (*model.User, error) {
	hash, err := s.hasher.GenerateFromPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	id, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		return nil, fmt.Errorf("failed to generate user id, %w", err)
	}

	u := &model.User{
		ID:           id,
		Name:         strings.TrimSpace(name),
		Email:        validators.NormalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}

		return nil, fmt.Errorf("failed to create user, %w", err)
	}

	return u, nil
}

func (s *Users) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).
		Where("email = ?", validators.NormalizeEmail(email)).
		First(&u).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to find user by email, %w", err)
	}

	return &u, nil
}

func (s *Users) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to find user by id, %w", err)
	}

	return &u, nil
}

// Authenticate returns the user matching the credentials. An unknown email
// and a wrong password both produce ErrInvalidCredentials and cost about
// the same time.
func (s *Users) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.VerifyDecoy(password)
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	ok, err := s.hasher.VerifyPasswd(password, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password, %w", err)
	}

	if !ok {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// isDuplicateKey matches both gorm's translated error and the raw driver
// messages, because translation depends on the dialector in use.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
