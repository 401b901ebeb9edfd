package jsondb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sgurov/linkshrt/internal/models"
	"github.com/sgurov/linkshrt/internal/user"
)

// JSONDB is a file-backed storage. All data lives in memory and is flushed to
// the JSON file on Close.
type JSONDB struct {
	fileName string
	mu       sync.Mutex
	Cache    CacheStruct
}

type CacheStruct struct {
	Users map[string]*user.User

	// UserIDsByName indexes Users by login handle and backs the unique
	// constraint on the name.
	UserIDsByName map[string]string

	Links map[string]*models.ShortLink

	// LinkOrder keeps codes in insertion order for listing.
	LinkOrder []string
}

func emptyCache() CacheStruct {
	return CacheStruct{
		Users:         map[string]*user.User{},
		UserIDsByName: map[string]string{},
		Links:         map[string]*models.ShortLink{},
		LinkOrder:     []string{},
	}
}

func New(fileName string) (*JSONDB, error) {
	db := JSONDB{
		fileName: fileName,
		Cache:    emptyCache(),
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := writeToJSONFile(fileName, db.Cache); err != nil {
			return nil, err
		}
	}

	return &db, nil
}

// NewDetached returns a JSONDB with an initialized cache and no backing file.
// Close must not be called on it; memorystorage wraps it and overrides Close.
func NewDetached() *JSONDB {
	return &JSONDB{
		Cache: emptyCache(),
	}
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	err = decoder.Decode(cache)
	if err != nil {
		return err
	}

	return nil
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	file, err2 := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err2 != nil {
		return fmt.Errorf("error opening file: %s", err2)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

func (db *JSONDB) BeginTransaction() (*sql.Tx, error) {
	return nil, nil
}

func (db *JSONDB) RollbackTransaction(transaction *sql.Tx) error {
	return nil
}

func (db *JSONDB) CommitTransaction(transaction *sql.Tx) error {
	return nil
}

func (db *JSONDB) CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.Cache.UserIDsByName[usr.Name]; exists {
		return "", models.ErrUserNameTaken
	}

	created := *usr
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	db.Cache.Users[created.ID] = &created
	db.Cache.UserIDsByName[created.Name] = created.ID

	return created.ID, nil
}

// GetUserByID returns a user with an empty ID field when nothing is stored
// under the given ID.
func (db *JSONDB) GetUserByID(ctx context.Context, userID string, transaction *sql.Tx) (*user.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	usr, found := db.Cache.Users[userID]
	if !found {
		return &user.User{ID: ""}, nil
	}
	result := *usr

	return &result, nil
}

func (db *JSONDB) FindUserByName(
	ctx context.Context,
	name string,
	transaction *sql.Tx,
) (*user.User, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	userID, found := db.Cache.UserIDsByName[name]
	if !found {
		return nil, false, nil
	}
	result := *db.Cache.Users[userID]

	return &result, true, nil
}

func (db *JSONDB) InsertShortLink(ctx context.Context, link *models.ShortLink, transaction *sql.Tx) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.Cache.Links[link.ShortCode]; exists {
		return models.ErrShortCodeTaken
	}

	stored := *link
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	db.Cache.Links[stored.ShortCode] = &stored
	db.Cache.LinkOrder = append(db.Cache.LinkOrder, stored.ShortCode)

	return nil
}

func (db *JSONDB) FindLinkByCode(ctx context.Context, shortCode string) (*models.ShortLink, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	link, found := db.Cache.Links[shortCode]
	if !found {
		return nil, false, nil
	}
	result := *link

	return &result, true, nil
}

func (db *JSONDB) FindLinksByOwner(ctx context.Context, ownerID string) ([]models.ShortLink, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := []models.ShortLink{}
	for _, shortCode := range db.Cache.LinkOrder {
		link := db.Cache.Links[shortCode]
		if link.OwnerID == ownerID {
			result = append(result, *link)
		}
	}

	return result, nil
}

func (db *JSONDB) GetNumberOfShortLinks(ctx context.Context) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return int64(len(db.Cache.Links)), nil
}

func (db *JSONDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return int64(len(db.Cache.Users)), nil
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

func (db *JSONDB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	err := writeToJSONFile(db.fileName, db.Cache)
	if err != nil {
		return err
	}

	return nil
}
