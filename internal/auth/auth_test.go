package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgurov/linkshrt/internal/db/memorystorage"
	"github.com/sgurov/linkshrt/internal/logger"
	"github.com/sgurov/linkshrt/internal/user"
)

const (
	testCookieName = "linkshrt_auth_test"
	testTokenTTL   = time.Hour
)

var testSigningKey = []byte("0123456789abcdef")

func newTestAuth(t *testing.T) (*Auth, string) {
	err := logger.Init("debug")
	require.NoError(t, err)

	db, err := memorystorage.New()
	require.NoError(t, err)

	userID, err := db.CreateUser(
		context.Background(),
		&user.User{Name: "vasiliy", Email: "vasiliy@example.com", PasswordHash: "hash"},
		nil,
	)
	require.NoError(t, err)

	return New(db, testCookieName, testSigningKey, testTokenTTL), userID
}

func TestIssueSessionAndParseToken(t *testing.T) {
	theAuth, userID := newTestAuth(t)

	recorder := httptest.NewRecorder()
	err := theAuth.IssueSession(recorder, userID)
	require.NoError(t, err)

	tokenString := recorder.Header().Get("Authorization")
	require.NotEmpty(t, tokenString)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, testCookieName, cookies[0].Name)
	assert.Equal(t, tokenString, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	parsedUserID, err := theAuth.GetUserIDFromToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, userID, parsedUserID)
}

func TestGetUserIDFromTokenRejectsForeignSignature(t *testing.T) {
	theAuth, userID := newTestAuth(t)

	foreignAuth := New(nil, testCookieName, []byte("another-secret-key"), testTokenTTL)
	foreignToken, err := foreignAuth.BuildJWTString(&Claims{UserID: userID})
	require.NoError(t, err)

	_, err = theAuth.GetUserIDFromToken(foreignToken)
	assert.Error(t, err)
}

func TestRequireUser(t *testing.T) {
	theAuth, userID := newTestAuth(t)

	var seenUserID string
	handler := theAuth.RequireUser(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		seenUserID, _ = request.Context().Value(UserIDKey).(string)
		response.WriteHeader(http.StatusOK)
	}))

	issueRecorder := httptest.NewRecorder()
	err := theAuth.IssueSession(issueRecorder, userID)
	require.NoError(t, err)
	tokenString := issueRecorder.Header().Get("Authorization")

	t.Run("token in the Authorization header", func(t *testing.T) {
		seenUserID = ""
		request := httptest.NewRequest(http.MethodGet, "/api/user/urls", nil)
		request.Header.Set("Authorization", tokenString)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, userID, seenUserID)
	})

	t.Run("token in the cookie", func(t *testing.T) {
		seenUserID = ""
		request := httptest.NewRequest(http.MethodGet, "/api/user/urls", nil)
		request.AddCookie(&http.Cookie{Name: testCookieName, Value: tokenString})
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, userID, seenUserID)
	})

	t.Run("no token", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/api/user/urls", nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/api/user/urls", nil)
		request.Header.Set("Authorization", "not-a-jwt")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("valid token for a deleted user", func(t *testing.T) {
		ghostToken, err := theAuth.BuildJWTString(&Claims{UserID: "no-such-user"})
		require.NoError(t, err)

		request := httptest.NewRequest(http.MethodGet, "/api/user/urls", nil)
		request.Header.Set("Authorization", ghostToken)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestDropSession(t *testing.T) {
	theAuth, _ := newTestAuth(t)

	recorder := httptest.NewRecorder()
	theAuth.DropSession(recorder)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, testCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestExpiredSession(t *testing.T) {
	theAuth, userID := newTestAuth(t)

	expiredToken, err := theAuth.BuildJWTString(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		UserID: userID,
	})
	require.NoError(t, err)

	_, err = theAuth.GetUserIDFromToken(expiredToken)
	assert.Error(t, err)
}
