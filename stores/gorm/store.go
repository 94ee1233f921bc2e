// Package gorm provides a GORM-based user store suitable for
// production deployments on a relational database.
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	gormstore.AutoMigrate(db)
//	userStore := gormstore.NewUserStore(db)
package gorm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/foresteye/authkit"
)

// UserModel is the GORM model for users
type UserModel struct {
	ID           string    `gorm:"primaryKey;size:64"`
	Email        string    `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `gorm:"size:128;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) toUser() *authkit.User {
	return &authkit.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// AutoMigrate runs database migrations for the user table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{})
}

// UserStore implements authkit.UserStore using GORM
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(ctx context.Context, email, passwordHash string) (*authkit.User, error) {
	model := &UserModel{
		ID:           authkit.NewUserID(),
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		// The unique index on email is the uniqueness invariant; a
		// racing duplicate surfaces here rather than via a pre-check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, authkit.ErrEmailExists
		}
		return nil, err
	}
	return model.toUser(), nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*authkit.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authkit.ErrUserNotFound
		}
		return nil, err
	}
	return model.toUser(), nil
}

func (s *UserStore) GetUserById(ctx context.Context, userId string) (*authkit.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", userId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authkit.ErrUserNotFound
		}
		return nil, err
	}
	return model.toUser(), nil
}
