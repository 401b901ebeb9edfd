package storage

import (
	"context"
	"database/sql"

	"github.com/sgurov/linkshrt/internal/models"
	"github.com/sgurov/linkshrt/internal/user"
)

// Storage is the full persistence contract shared by the Postgres, file and
// memory backends. Implementations must enforce uniqueness of user names and
// short codes, surfacing models.ErrUserNameTaken and models.ErrShortCodeTaken
// instead of overwriting.
type Storage interface {
	BeginTransaction() (*sql.Tx, error)

	RollbackTransaction(transaction *sql.Tx) error

	CommitTransaction(transaction *sql.Tx) error

	CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (string, error)

	GetUserByID(ctx context.Context, userID string, transaction *sql.Tx) (*user.User, error)

	FindUserByName(
		ctx context.Context,
		name string,
		transaction *sql.Tx,
	) (*user.User, bool, error)

	InsertShortLink(ctx context.Context, link *models.ShortLink, transaction *sql.Tx) error

	FindLinkByCode(ctx context.Context, shortCode string) (*models.ShortLink, bool, error)

	FindLinksByOwner(ctx context.Context, ownerID string) ([]models.ShortLink, error)

	GetNumberOfShortLinks(ctx context.Context) (int64, error)

	GetNumberOfUsers(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error

	Close() error
}
