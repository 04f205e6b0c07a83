package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ypereira/messenger/store"
)

func TestUserDerivedFields(t *testing.T) {
	u := User{FirstName: "Alice", LastName: "Liddell", Email: "alice@x.com"}
	assert.Equal(t, "alice-x-com", u.SafeEmail())
	assert.Equal(t, "Alice Liddell", u.DisplayName())
	assert.Equal(t, "alice-x-com_profile_picture.png", u.ProfilePictureFileName())
}

func TestInsertAndExists(t *testing.T) {
	ctx := context.Background()
	accounts := NewAccounts(store.NewMemory())

	exists, err := accounts.Exists(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, accounts.Insert(ctx, User{FirstName: "Alice", LastName: "Liddell", Email: "alice@x.com"}))

	exists, err = accounts.Exists(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInsertAppendsToDirectory(t *testing.T) {
	ctx := context.Background()
	accounts := NewAccounts(store.NewMemory())

	require.NoError(t, accounts.Insert(ctx, User{FirstName: "Alice", LastName: "Liddell", Email: "alice@x.com"}))
	require.NoError(t, accounts.Insert(ctx, User{FirstName: "Bob", LastName: "Harris", Email: "bob@y.com"}))

	directory, err := accounts.All(ctx)
	require.NoError(t, err)
	require.Len(t, directory, 2)
	assert.Equal(t, DirectoryEntry{Name: "Alice Liddell", Email: "alice-x-com"}, directory[0])
	assert.Equal(t, DirectoryEntry{Name: "Bob Harris", Email: "bob-y-com"}, directory[1])
}

func TestAllEmptyDirectory(t *testing.T) {
	_, err := NewAccounts(store.NewMemory()).All(context.Background())
	assert.ErrorIs(t, err, ErrFetchFailed)
}
