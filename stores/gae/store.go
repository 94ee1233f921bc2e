// Package gae provides a Cloud Datastore user store for App Engine
// deployments. Email uniqueness is enforced with a dedicated index
// kind keyed by the email itself, claimed in the same transaction that
// creates the user.
package gae

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/datastore"

	"github.com/foresteye/authkit"
)

const (
	kindUser       = "AuthUser"
	kindEmailIndex = "AuthUserEmail"
)

type userEntity struct {
	Email        string    `datastore:"email"`
	PasswordHash string    `datastore:"password_hash,noindex"`
	CreatedAt    time.Time `datastore:"created_at"`
	UpdatedAt    time.Time `datastore:"updated_at"`
}

type emailIndexEntity struct {
	UserID string `datastore:"user_id"`
}

// UserStore implements authkit.UserStore on Cloud Datastore.
type UserStore struct {
	client *datastore.Client
}

func NewUserStore(client *datastore.Client) *UserStore {
	return &UserStore{client: client}
}

func (s *UserStore) CreateUser(ctx context.Context, email, passwordHash string) (*authkit.User, error) {
	now := time.Now()
	userID := authkit.NewUserID()
	userKey := datastore.NameKey(kindUser, userID, nil)
	emailKey := datastore.NameKey(kindEmailIndex, email, nil)

	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing emailIndexEntity
		err := tx.Get(emailKey, &existing)
		if err == nil {
			return authkit.ErrEmailExists
		}
		if !errors.Is(err, datastore.ErrNoSuchEntity) {
			return err
		}

		if _, err := tx.Put(emailKey, &emailIndexEntity{UserID: userID}); err != nil {
			return err
		}
		_, err = tx.Put(userKey, &userEntity{
			Email:        email,
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, authkit.ErrEmailExists) {
			return nil, authkit.ErrEmailExists
		}
		return nil, err
	}

	return &authkit.User{
		ID:           userID,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*authkit.User, error) {
	var index emailIndexEntity
	if err := s.client.Get(ctx, datastore.NameKey(kindEmailIndex, email, nil), &index); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, authkit.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUserById(ctx, index.UserID)
}

func (s *UserStore) GetUserById(ctx context.Context, userId string) (*authkit.User, error) {
	var entity userEntity
	if err := s.client.Get(ctx, datastore.NameKey(kindUser, userId, nil), &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, authkit.ErrUserNotFound
		}
		return nil, err
	}
	return &authkit.User{
		ID:           userId,
		Email:        entity.Email,
		PasswordHash: entity.PasswordHash,
		CreatedAt:    entity.CreatedAt,
		UpdatedAt:    entity.UpdatedAt,
	}, nil
}
