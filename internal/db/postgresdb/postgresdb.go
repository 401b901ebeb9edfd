// Package postgresdb provides the PostgreSQL-based implementation of the
// storage interface for persisting users and their short links.
// Uniqueness of user names and short codes is enforced by database
// constraints; violations surface as the sentinel errors from models.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/sgurov/linkshrt/internal/models"
	"github.com/sgurov/linkshrt/internal/user"
)

// PostgresDB is a PostgreSQL-backed implementation of the storage interface.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// New establishes a connection to the PostgreSQL database, runs schema
// migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
) (*PostgresDB, error) {
	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("error while `goose.SetDialect()` calling: %w", err)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil, fmt.Errorf("error while `goose.Up()` calling: %w", err)
	}

	return result, nil
}

// BeginTransaction starts a new SQL transaction and returns it.
// The caller is responsible for committing or rolling it back.
func (db *PostgresDB) BeginTransaction() (*sql.Tx, error) {
	return db.database.Begin()
}

// RollbackTransaction rolls back the given SQL transaction.
func (db *PostgresDB) RollbackTransaction(transaction *sql.Tx) error {
	return transaction.Rollback()
}

// CommitTransaction commits the given SQL transaction.
func (db *PostgresDB) CommitTransaction(transaction *sql.Tx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic occurred while committing transaction: %v", r)
		}
	}()

	return transaction.Commit()
}

// CreateUser inserts a new user record and returns the generated ID.
// A unique-constraint hit on the name comes back as models.ErrUserNameTaken.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (string, error) {
	var database queryer
	if transaction == nil {
		database = db.database
	} else {
		database = transaction
	}

	row := database.QueryRowContext(
		ctx,
		`INSERT INTO users (name, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		usr.Name,
		usr.Email,
		usr.PasswordHash,
	)
	var userIDFromDB string
	err := row.Scan(&userIDFromDB)
	if err != nil {
		if isUniqueViolation(err) {
			return "", models.ErrUserNameTaken
		}
		return "", err
	}

	return userIDFromDB, nil
}

// GetUserByID fetches a user by their UUID.
// If the user does not exist, it returns a user with an empty ID field.
func (db *PostgresDB) GetUserByID(ctx context.Context, userID string, transaction *sql.Tx) (*user.User, error) {
	var database queryer
	if transaction == nil {
		database = db.database
	} else {
		database = transaction
	}

	if userID == "" {
		return &user.User{ID: ""}, nil
	}

	row := database.QueryRowContext(
		ctx,
		`SELECT id, name, email, password_hash FROM users WHERE id = $1`,
		userID,
	)
	usr := &user.User{}
	err := row.Scan(&usr.ID, &usr.Name, &usr.Email, &usr.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &user.User{ID: ""}, nil
		}
		return &user.User{ID: ""}, err
	}

	return usr, nil
}

// FindUserByName looks a user up by login handle.
// Returns a boolean indicating presence and an error if applicable.
func (db *PostgresDB) FindUserByName(
	ctx context.Context,
	name string,
	transaction *sql.Tx,
) (*user.User, bool, error) {
	var database queryer
	if transaction == nil {
		database = db.database
	} else {
		database = transaction
	}

	row := database.QueryRowContext(
		ctx,
		`SELECT id, name, email, password_hash FROM users WHERE name = $1`,
		name,
	)
	usr := &user.User{}
	err := row.Scan(&usr.ID, &usr.Name, &usr.Email, &usr.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return usr, true, nil
}

// InsertShortLink creates a new short link row.
// A unique-constraint hit on the code comes back as models.ErrShortCodeTaken,
// so of two concurrent writers drawing the same code exactly one succeeds.
func (db *PostgresDB) InsertShortLink(ctx context.Context, link *models.ShortLink, transaction *sql.Tx) error {
	var database executor
	if transaction == nil {
		database = db.database
	} else {
		database = transaction
	}

	_, err := database.ExecContext(
		ctx,
		`INSERT INTO short_links (short_code, long_url, owner_id) VALUES ($1, $2, $3)`,
		link.ShortCode,
		link.LongURL,
		link.OwnerID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrShortCodeTaken
		}
		return err
	}

	return nil
}

// FindLinkByCode retrieves the short link stored under the given code.
func (db *PostgresDB) FindLinkByCode(ctx context.Context, shortCode string) (*models.ShortLink, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT short_code, long_url, owner_id, created_at FROM short_links WHERE short_code = $1`,
		shortCode,
	)
	link := &models.ShortLink{}
	err := row.Scan(&link.ShortCode, &link.LongURL, &link.OwnerID, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return link, true, nil
}

// FindLinksByOwner retrieves all short links of the given user in insertion
// order.
func (db *PostgresDB) FindLinksByOwner(ctx context.Context, ownerID string) ([]models.ShortLink, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT short_code, long_url, owner_id, created_at
				FROM short_links
				WHERE owner_id = $1
				ORDER BY created_at
		`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.ShortLink{}
	for rows.Next() {
		link := models.ShortLink{}
		err = rows.Scan(&link.ShortCode, &link.LongURL, &link.OwnerID, &link.CreatedAt)
		if err != nil {
			return nil, err
		}

		result = append(result, link)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetNumberOfShortLinks returns the total amount of stored short links.
func (db *PostgresDB) GetNumberOfShortLinks(ctx context.Context) (int64, error) {
	return db.countFrom(ctx, `SELECT COUNT(*) FROM short_links`)
}

// GetNumberOfUsers returns the total amount of registered users.
func (db *PostgresDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	return db.countFrom(ctx, `SELECT COUNT(*) FROM users`)
}

func (db *PostgresDB) countFrom(ctx context.Context, query string) (int64, error) {
	row := db.database.QueryRowContext(ctx, query)
	var count int64
	err := row.Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Ping verifies connectivity with the PostgreSQL database within the
// configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
