package memorystorage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgurov/linkshrt/internal/models"
	"github.com/sgurov/linkshrt/internal/user"
)

func TestMemoryStorage(t *testing.T) {
	db, err := New()
	require.NoError(t, err)
	require.NotNil(t, db)

	userID, err := db.CreateUser(
		context.Background(),
		&user.User{Name: "vasiliy", Email: "vasiliy@example.com", PasswordHash: "hash"},
		nil,
	)
	require.NoError(t, err)
	require.NotEmpty(t, userID)

	err = db.InsertShortLink(
		context.Background(),
		&models.ShortLink{ShortCode: "abc1234", LongURL: "https://example.com/", OwnerID: userID},
		nil,
	)
	require.NoError(t, err)

	link, found, err := db.FindLinkByCode(context.Background(), "abc1234")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "https://example.com/", link.LongURL)

	err = db.InsertShortLink(
		context.Background(),
		&models.ShortLink{ShortCode: "abc1234", LongURL: "https://example.com/other", OwnerID: userID},
		nil,
	)
	assert.ErrorIs(t, err, models.ErrShortCodeTaken)

	assert.NoError(t, db.Ping(context.Background()))
	assert.NoError(t, db.Close(), "Close must not try to flush to a file")
}
