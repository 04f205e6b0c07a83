// Package user manages account records and the global user directory used by
// the new-conversation search screen.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ypereira/messenger/identity"
	"github.com/ypereira/messenger/log"
	"github.com/ypereira/messenger/store"
)

var ErrFetchFailed = errors.New("failed to fetch")

// User is a registered account, keyed in the tree by its safe email.
type User struct {
	FirstName string
	LastName  string
	Email     string
}

func (u User) SafeEmail() string {
	return identity.SafeEmail(u.Email)
}

func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// ProfilePictureFileName is the blob object name for the user's avatar.
func (u User) ProfilePictureFileName() string {
	return u.SafeEmail() + "_profile_picture.png"
}

// DirectoryEntry is one element of the global, append-only "users" list.
type DirectoryEntry struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// userRecord is the persisted shape of the account node. Conversations are
// written into the same node later by the synchronizer.
type userRecord struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Accounts struct {
	store store.Store
}

func NewAccounts(st store.Store) *Accounts {
	return &Accounts{store: st}
}

// Exists reports whether an account node already exists for email.
func (a *Accounts) Exists(ctx context.Context, email string) (bool, error) {
	var node map[string]any
	if err := a.store.Get(ctx, identity.SafeEmail(email), &node); err != nil {
		return false, fmt.Errorf("reading user record: %w", err)
	}
	return node != nil, nil
}

// Insert writes the account node and appends the user to the global
// directory, creating the directory on first registration. The directory
// grows monotonically; duplicate protection is Exists, called first.
func (a *Accounts) Insert(ctx context.Context, u User) error {
	logger := log.LoggerFromContext(ctx)
	safeEmail := u.SafeEmail()

	record := userRecord{FirstName: u.FirstName, LastName: u.LastName}
	if err := a.store.Set(ctx, safeEmail, record); err != nil {
		return fmt.Errorf("writing user record: %w", err)
	}

	var directory []DirectoryEntry
	if err := a.store.Get(ctx, "users", &directory); err != nil {
		return fmt.Errorf("reading user directory: %w", err)
	}
	directory = append(directory, DirectoryEntry{Name: u.DisplayName(), Email: safeEmail})
	if err := a.store.Set(ctx, "users", directory); err != nil {
		return fmt.Errorf("writing user directory: %w", err)
	}

	logger.Info("user registered", slog.String("email", safeEmail))
	return nil
}

// All returns the global user directory in one shot.
func (a *Accounts) All(ctx context.Context) ([]DirectoryEntry, error) {
	var directory []DirectoryEntry
	if err := a.store.Get(ctx, "users", &directory); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if directory == nil {
		return nil, ErrFetchFailed
	}
	return directory, nil
}
