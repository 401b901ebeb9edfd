// Package mockstorage provides a testify-based mock implementation
// of the storage interface used by the service and router packages.
// It is used for unit testing by simulating storage behavior.
package mockstorage

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	"github.com/sgurov/linkshrt/internal/models"
	"github.com/sgurov/linkshrt/internal/user"
)

// StorageMock is a testify mock that implements the storage interface.
//
// Use it in tests to simulate database behavior, including constraint
// violations that are hard to provoke through a real backend.
type StorageMock struct {
	mock.Mock

	// OnGetNumberOfUsers is an optional function field that can be assigned
	// to define custom mock behavior for GetNumberOfUsers in tests.
	OnGetNumberOfUsers func(ctx context.Context) (int64, error)

	// OnGetNumberOfShortLinks is an optional function field that can be used
	// to customize the return values of GetNumberOfShortLinks in tests.
	OnGetNumberOfShortLinks func(ctx context.Context) (int64, error)
}

// BeginTransaction mocks the beginning of a transaction.
func (m *StorageMock) BeginTransaction() (*sql.Tx, error) {
	args := m.Called()
	tx, _ := args.Get(0).(*sql.Tx)
	return tx, args.Error(1)
}

// CommitTransaction mocks committing a transaction.
func (m *StorageMock) CommitTransaction(tx *sql.Tx) error {
	args := m.Called(tx)
	return args.Error(0)
}

// RollbackTransaction mocks rolling back a transaction.
func (m *StorageMock) RollbackTransaction(tx *sql.Tx) error {
	args := m.Called(tx)
	return args.Error(0)
}

// CreateUser mocks user creation and returns a generated ID.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User, tx *sql.Tx) (string, error) {
	args := m.Called(ctx, usr, tx)
	return args.String(0), args.Error(1)
}

// GetUserByID mocks fetching a user by their ID.
func (m *StorageMock) GetUserByID(ctx context.Context, userID string, tx *sql.Tx) (*user.User, error) {
	args := m.Called(ctx, userID, tx)
	return args.Get(0).(*user.User), args.Error(1)
}

// FindUserByName mocks looking a user up by login handle.
func (m *StorageMock) FindUserByName(ctx context.Context, name string, tx *sql.Tx) (*user.User, bool, error) {
	args := m.Called(ctx, name, tx)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// InsertShortLink mocks inserting a new short link.
func (m *StorageMock) InsertShortLink(ctx context.Context, link *models.ShortLink, tx *sql.Tx) error {
	args := m.Called(ctx, link, tx)
	return args.Error(0)
}

// FindLinkByCode mocks finding a short link by its code.
func (m *StorageMock) FindLinkByCode(ctx context.Context, shortCode string) (*models.ShortLink, bool, error) {
	args := m.Called(ctx, shortCode)
	link, _ := args.Get(0).(*models.ShortLink)
	return link, args.Bool(1), args.Error(2)
}

// FindLinksByOwner mocks fetching a user's short links.
func (m *StorageMock) FindLinksByOwner(ctx context.Context, ownerID string) ([]models.ShortLink, error) {
	args := m.Called(ctx, ownerID)
	links, _ := args.Get(0).([]models.ShortLink)
	return links, args.Error(1)
}

// GetNumberOfUsers returns the number of users as defined by the mock.
//
// If OnGetNumberOfUsers is non-nil, it will be called to produce the result.
// Otherwise, the method returns 0 and no error by default.
func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	if m.OnGetNumberOfUsers != nil {
		return m.OnGetNumberOfUsers(ctx)
	}
	return 0, nil
}

// GetNumberOfShortLinks returns the number of stored short links.
//
// If OnGetNumberOfShortLinks is defined, the method will call it and return
// its result. Otherwise, it defaults to returning 0 and no error.
func (m *StorageMock) GetNumberOfShortLinks(ctx context.Context) (int64, error) {
	if m.OnGetNumberOfShortLinks != nil {
		return m.OnGetNumberOfShortLinks(ctx)
	}
	return 0, nil
}

// Ping mocks the storage health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage and releasing resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
