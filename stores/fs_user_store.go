// Package stores provides user store backends. The FS store keeps
// users as JSON files and is the zero-configuration default; the gorm
// and gae subpackages back onto Postgres and Cloud Datastore.
package stores

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/foresteye/authkit"
)

// FSUserStore stores users as JSON files, with a separate email index
// mapping each registered email to its user id.
type FSUserStore struct {
	StoragePath string

	mu sync.Mutex // guards the check-then-create in CreateUser
}

func NewFSUserStore(storagePath string) *FSUserStore {
	return &FSUserStore{StoragePath: storagePath}
}

func (s *FSUserStore) getUserPath(userId string) string {
	return filepath.Join(s.StoragePath, "users", userId+".json")
}

// Emails are arbitrary byte strings, so the index file name encodes
// them rather than using them directly.
func (s *FSUserStore) getEmailPath(email string) string {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(email))
	return filepath.Join(s.StoragePath, "emails", encoded+".json")
}

type emailIndexEntry struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
}

func (s *FSUserStore) CreateUser(ctx context.Context, email, passwordHash string) (*authkit.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	emailPath := s.getEmailPath(email)
	if _, err := os.Stat(emailPath); err == nil {
		return nil, authkit.ErrEmailExists
	}

	now := time.Now()
	user := &authkit.User{
		ID:           authkit.NewUserID(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.saveUser(user); err != nil {
		return nil, err
	}

	entry, err := json.Marshal(&emailIndexEntry{Email: email, UserID: user.ID})
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(emailPath), 0755); err != nil {
		return nil, err
	}
	if err := writeAtomicFile(emailPath, entry); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *FSUserStore) GetUserByEmail(ctx context.Context, email string) (*authkit.User, error) {
	data, err := os.ReadFile(s.getEmailPath(email))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, authkit.ErrUserNotFound
		}
		return nil, err
	}

	var entry emailIndexEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return s.GetUserById(ctx, entry.UserID)
}

func (s *FSUserStore) GetUserById(ctx context.Context, userId string) (*authkit.User, error) {
	data, err := os.ReadFile(s.getUserPath(userId))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, authkit.ErrUserNotFound
		}
		return nil, err
	}

	var user fsUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return user.toUser(), nil
}

// fsUser is the on-disk shape; unlike the API type it serializes the
// password hash.
type fsUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *fsUser) toUser() *authkit.User {
	return &authkit.User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (s *FSUserStore) saveUser(user *authkit.User) error {
	path := s.getUserPath(user.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(&fsUser{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	return writeAtomicFile(path, data)
}
