package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/thoas/go-funk"
	"golang.org/x/crypto/bcrypt"

	"github.com/sgurov/linkshrt/internal/models"
	"github.com/sgurov/linkshrt/internal/shortcode"
	"github.com/sgurov/linkshrt/internal/user"
)

type transactioner interface {
	BeginTransaction() (*sql.Tx, error)

	RollbackTransaction(transaction *sql.Tx) error

	CommitTransaction(transaction *sql.Tx) error
}

type userKeeper interface {
	CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (string, error)

	FindUserByName(
		ctx context.Context,
		name string,
		transaction *sql.Tx,
	) (*user.User, bool, error)
}

type linksKeeper interface {
	InsertShortLink(ctx context.Context, link *models.ShortLink, transaction *sql.Tx) error

	FindLinkByCode(ctx context.Context, shortCode string) (*models.ShortLink, bool, error)

	FindLinksByOwner(ctx context.Context, ownerID string) ([]models.ShortLink, error)

	GetNumberOfShortLinks(ctx context.Context) (int64, error)

	GetNumberOfUsers(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	transactioner
	userKeeper
	linksKeeper
	pinger
}

// ErrNameTaken is returned by Register when the requested login handle
// already belongs to another user.
var ErrNameTaken = errors.New("the username is already taken")

// ErrInvalidCredentials is returned by Authenticate both for an unknown name
// and for a mismatched password; the two cases are deliberately
// indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrCodeConflict is returned by CreateLink when every generated candidate
// code collided with an existing one.
var ErrCodeConflict = errors.New("could not allocate a unique short code")

// ErrLinkNotFound is returned by Resolve for codes no link is stored under.
var ErrLinkNotFound = errors.New("short code not found")

// maxCodeAttempts bounds the generate-and-insert retry loop of CreateLink.
const maxCodeAttempts = 5

// dummyPasswordHash is the compare target for unknown names, so both
// ErrInvalidCredentials paths cost roughly one bcrypt verification.
var dummyPasswordHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Service orchestrates registration, authentication and link
// creation/resolution on top of a storage backend.
type Service struct {
	db           storage
	shortURLBase string
}

func New(db storage, shortURLBase string) *Service {
	return &Service{
		db:           db,
		shortURLBase: shortURLBase,
	}
}

// Register creates a new user with the given credentials. The password is
// stored as a bcrypt hash, never as plain text. The name check and the insert
// run inside one transaction; the unique index on the name backs the
// concurrent path, so a lost race also comes back as ErrNameTaken.
func (s *Service) Register(ctx context.Context, name, email, password string) (*user.User, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTransaction()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = s.db.RollbackTransaction(tx)
	}()

	_, found, err := s.db.FindUserByName(ctx, name, tx)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, ErrNameTaken
	}

	usr := &user.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(passwordHash),
	}
	userID, err := s.db.CreateUser(ctx, usr, tx)
	if err != nil {
		if errors.Is(err, models.ErrUserNameTaken) {
			return nil, ErrNameTaken
		}
		return nil, err
	}

	if err := s.db.CommitTransaction(tx); err != nil {
		return nil, err
	}

	usr.ID = userID

	return usr, nil
}

// Authenticate verifies the given credentials and returns the matching user.
func (s *Service) Authenticate(ctx context.Context, name, password string) (*user.User, error) {
	usr, found, err := s.db.FindUserByName(ctx, name, nil)
	if err != nil {
		return nil, err
	}
	if !found {
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return usr, nil
}

// CreateLink shortens a long URL for the given owner. Candidate codes come
// from the generator with no uniqueness guarantee of their own; the storage
// unique constraint rejects collisions and the loop draws a fresh code, up to
// maxCodeAttempts times.
func (s *Service) CreateLink(ctx context.Context, ownerID, longURL string) (*models.ShortLink, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := shortcode.Generate()
		if err != nil {
			return nil, err
		}

		link := &models.ShortLink{
			ShortCode: code,
			LongURL:   longURL,
			OwnerID:   ownerID,
		}
		err = s.db.InsertShortLink(ctx, link, nil)
		if errors.Is(err, models.ErrShortCodeTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		return link, nil
	}

	return nil, ErrCodeConflict
}

// Resolve returns the long URL stored under the given short code.
func (s *Service) Resolve(ctx context.Context, shortCode string) (string, error) {
	link, found, err := s.db.FindLinkByCode(ctx, shortCode)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrLinkNotFound
	}

	return link.LongURL, nil
}

// ListLinksForUser returns all links owned by the given user, in insertion
// order, with the short codes formatted as full short URLs.
func (s *Service) ListLinksForUser(ctx context.Context, ownerID string) (models.UserLinks, error) {
	links, err := s.db.FindLinksByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	items := funk.Map(links, func(link models.ShortLink) models.UserLink {
		return models.UserLink{
			ShortURL:    s.ShortURL(link.ShortCode),
			OriginalURL: link.LongURL,
		}
	}).([]models.UserLink)

	return models.UserLinks(items), nil
}

// Ping checks the health of the database/storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Stats returns totals such as stored link and user counts.
func (s *Service) Stats(ctx context.Context) (models.StatsResponse, error) {
	urls, err := s.db.GetNumberOfShortLinks(ctx)
	if err != nil {
		return models.StatsResponse{}, err
	}

	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return models.StatsResponse{}, err
	}

	return models.StatsResponse{
		URLs:  urls,
		Users: users,
	}, nil
}

// ShortURL formats a bare short code as a full short URL.
func (s *Service) ShortURL(shortCode string) string {
	return s.shortURLBase + "/" + shortCode
}
