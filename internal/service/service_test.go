package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sgurov/linkshrt/internal/db/memorystorage"
	"github.com/sgurov/linkshrt/internal/mockstorage"
	"github.com/sgurov/linkshrt/internal/models"
	"github.com/sgurov/linkshrt/internal/shortcode"
)

const testShortURLBase = "http://localhost:8080"

func newTestService(t *testing.T) *Service {
	db, err := memorystorage.New()
	require.NoError(t, err)

	return New(db, testShortURLBase)
}

func TestRegister(t *testing.T) {
	svc := newTestService(t)

	t.Run("positive", func(t *testing.T) {
		usr, err := svc.Register(context.Background(), "vasiliy", "vasiliy@example.com", "qwerty123")
		require.NoError(t, err)
		require.NotNil(t, usr)

		assert.NotEmpty(t, usr.ID)
		assert.Equal(t, "vasiliy", usr.Name)
		assert.Equal(t, "vasiliy@example.com", usr.Email)

		assert.NotEqual(t, "qwerty123", usr.PasswordHash, "the password must not be stored as plain text")
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte("qwerty123")))
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := svc.Register(context.Background(), "vasiliy", "other@example.com", "different1")
		assert.ErrorIs(t, err, ErrNameTaken)
	})
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)

	registered, err := svc.Register(context.Background(), "marina", "marina@example.com", "qwerty123")
	require.NoError(t, err)

	t.Run("positive", func(t *testing.T) {
		usr, err := svc.Authenticate(context.Background(), "marina", "qwerty123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, usr.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "marina", "not-the-one")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "nobody", "qwerty123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestCreateLinkAndResolve(t *testing.T) {
	svc := newTestService(t)

	link, err := svc.CreateLink(context.Background(), "owner-1", "https://ru.wikipedia.org/wiki/Go")
	require.NoError(t, err)
	require.NotNil(t, link)

	assert.Len(t, link.ShortCode, shortcode.Length)
	assert.Equal(t, "https://ru.wikipedia.org/wiki/Go", link.LongURL)
	assert.Equal(t, "owner-1", link.OwnerID)

	longURL, err := svc.Resolve(context.Background(), link.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, "https://ru.wikipedia.org/wiki/Go", longURL)
}

func TestResolveUnknownCode(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Resolve(context.Background(), "aaaaaaa")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestCreateLinkRetriesOnCollision(t *testing.T) {
	db := new(mockstorage.StorageMock)
	svc := New(db, testShortURLBase)

	db.On("InsertShortLink", mock.Anything, mock.Anything, (*sql.Tx)(nil)).
		Return(models.ErrShortCodeTaken).
		Once()
	db.On("InsertShortLink", mock.Anything, mock.Anything, (*sql.Tx)(nil)).
		Return(nil)

	link, err := svc.CreateLink(context.Background(), "owner-1", "https://example.com/")
	require.NoError(t, err)
	require.NotNil(t, link)

	db.AssertNumberOfCalls(t, "InsertShortLink", 2)
}

func TestCreateLinkGivesUpAfterExhaustedAttempts(t *testing.T) {
	db := new(mockstorage.StorageMock)
	svc := New(db, testShortURLBase)

	db.On("InsertShortLink", mock.Anything, mock.Anything, (*sql.Tx)(nil)).
		Return(models.ErrShortCodeTaken)

	_, err := svc.CreateLink(context.Background(), "owner-1", "https://example.com/")
	assert.ErrorIs(t, err, ErrCodeConflict)

	db.AssertNumberOfCalls(t, "InsertShortLink", maxCodeAttempts)
}

func TestCreateLinkPropagatesStorageError(t *testing.T) {
	db := new(mockstorage.StorageMock)
	svc := New(db, testShortURLBase)

	db.On("InsertShortLink", mock.Anything, mock.Anything, (*sql.Tx)(nil)).
		Return(errors.New("connection refused"))

	_, err := svc.CreateLink(context.Background(), "owner-1", "https://example.com/")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCodeConflict)

	db.AssertNumberOfCalls(t, "InsertShortLink", 1)
}

func TestListLinksForUser(t *testing.T) {
	svc := newTestService(t)

	var originals []string
	for i := 0; i < 3; i++ {
		original := fmt.Sprintf("https://example.com/%d", i+1)
		originals = append(originals, original)

		_, err := svc.CreateLink(context.Background(), "owner-1", original)
		require.NoError(t, err)
	}
	_, err := svc.CreateLink(context.Background(), "owner-2", "https://example.com/other")
	require.NoError(t, err)

	links, err := svc.ListLinksForUser(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, links, 3)

	for i, link := range links {
		assert.Equal(t, originals[i], link.OriginalURL, "links should keep insertion order")
		assert.Contains(t, link.ShortURL, testShortURLBase+"/")
	}
}

func TestListLinksForUserEmpty(t *testing.T) {
	svc := newTestService(t)

	links, err := svc.ListLinksForUser(context.Background(), "owner-без-ссылок")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestStats(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register(context.Background(), "vasiliy", "vasiliy@example.com", "qwerty123")
	require.NoError(t, err)

	_, err = svc.CreateLink(context.Background(), "owner-1", "https://example.com/1")
	require.NoError(t, err)
	_, err = svc.CreateLink(context.Background(), "owner-1", "https://example.com/2")
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.URLs)
	assert.Equal(t, int64(1), stats.Users)
}

func TestShortURL(t *testing.T) {
	svc := New(nil, testShortURLBase)

	assert.Equal(t, "http://localhost:8080/abc1234", svc.ShortURL("abc1234"))
}
