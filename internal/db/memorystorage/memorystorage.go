package memorystorage

import (
	"context"

	"github.com/sgurov/linkshrt/internal/db/jsondb"
)

// MemoryStorage is the jsondb cache without the file behind it. It is the
// default backend when neither a DSN nor a storage file is configured, and the
// workhorse of the unit tests.
type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: jsondb.NewDetached(),
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
