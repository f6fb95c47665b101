package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/shortlink/internal/models"
)

func uniqueCode() string {
	return uuid.NewString()[:6]
}

// testStoreContract checks the behaviour every backend must share. It
// uses random keys so one store can serve all subtests.
func testStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("insert starts clicks at zero", func(t *testing.T) {
		code := uniqueCode()
		link, err := store.InsertLink(ctx, models.Link{ShortCode: code, LongURL: "https://a.com", Owner: "owner-1", Clicks: 42})
		require.NoError(t, err)
		assert.Equal(t, int64(0), link.Clicks)
		assert.False(t, link.CreatedAt.IsZero())

		got, err := store.SelectLink(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, "https://a.com", got.LongURL)
		assert.Equal(t, int64(0), got.Clicks)
		assert.Equal(t, "owner-1", got.Owner)
	})

	t.Run("long url is stored verbatim", func(t *testing.T) {
		code := uniqueCode()
		_, err := store.InsertLink(ctx, models.Link{ShortCode: code, LongURL: "example.com", Owner: "owner-1"})
		require.NoError(t, err)

		got, err := store.SelectLink(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, "example.com", got.LongURL)
	})

	t.Run("select missing code", func(t *testing.T) {
		_, err := store.SelectLink(ctx, "zzz999")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate code is a constraint violation", func(t *testing.T) {
		code := uniqueCode()
		_, err := store.InsertLink(ctx, models.Link{ShortCode: code, LongURL: "https://a.com", Owner: "owner-1"})
		require.NoError(t, err)

		_, err = store.InsertLink(ctx, models.Link{ShortCode: code, LongURL: "https://b.com", Owner: "owner-2"})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindConstraint), "got %v", err)
		assert.Contains(t, err.Error(), "urls_short_code_key")

		got, err := store.SelectLink(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, "https://a.com", got.LongURL)
	})

	t.Run("anonymous insert is rejected by policy", func(t *testing.T) {
		code := uniqueCode()
		_, err := store.InsertLink(ctx, models.Link{ShortCode: code, LongURL: "https://a.com"})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindPolicy))
		assert.Equal(t, policyViolationMessage, err.Error())

		_, err = store.SelectLink(ctx, code)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update clicks", func(t *testing.T) {
		code := uniqueCode()
		_, err := store.InsertLink(ctx, models.Link{ShortCode: code, LongURL: "https://a.com", Owner: "owner-1"})
		require.NoError(t, err)

		require.NoError(t, store.UpdateClicks(ctx, code, 6))

		got, err := store.SelectLink(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, int64(6), got.Clicks)
	})

	t.Run("update missing code", func(t *testing.T) {
		err := store.UpdateClicks(ctx, "zzz999", 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list by owner keeps creation order", func(t *testing.T) {
		owner := uuid.NewString()
		codes := []string{uniqueCode(), uniqueCode(), uniqueCode()}
		for _, code := range codes {
			_, err := store.InsertLink(ctx, models.Link{ShortCode: code, LongURL: "https://" + code + ".com", Owner: owner})
			require.NoError(t, err)
		}

		links, err := store.ListByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, links, 3)
		for i, link := range links {
			assert.Equal(t, codes[i], link.ShortCode)
		}

		empty, err := store.ListByOwner(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("users", func(t *testing.T) {
		id := uuid.NewString()
		email := id + "@example.com"

		created, err := store.CreateUser(ctx, models.User{ID: id, Email: email, PasswordHash: "hash"})
		require.NoError(t, err)
		assert.False(t, created.CreatedAt.IsZero())

		byEmail, err := store.UserByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, id, byEmail.ID)
		assert.Equal(t, "hash", byEmail.PasswordHash)

		byID, err := store.UserByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, email, byID.Email)

		_, err = store.CreateUser(ctx, models.User{ID: uuid.NewString(), Email: email, PasswordHash: "other"})
		assert.True(t, IsKind(err, KindConstraint))

		_, err = store.UserByID(ctx, uuid.NewString())
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}
