package models

import (
	"errors"
	"time"
)

// ShortLink is a single short-code to long-URL mapping owned by a user.
type ShortLink struct {
	CreatedAt time.Time `json:"created_at"`
	ShortCode string    `json:"short_code"`
	LongURL   string    `json:"long_url"`
	OwnerID   string    `json:"owner_id"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=5,max=9"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=24"`
}

type LoginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ShortenRequest struct {
	URL string `json:"url" validate:"required"`
}

type ShortenResponse struct {
	Result string `json:"result"`
}

type UserLink struct {
	ShortURL    string `json:"short_url"`
	OriginalURL string `json:"original_url"`
}

type UserLinks []UserLink

type StatsResponse struct {
	URLs  int64 `json:"urls"`
	Users int64 `json:"users"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

// ErrShortCodeTaken is returned by the storage layer when an insert hits the
// unique constraint on the short code. The second concurrent writer always
// loses; nothing is ever overwritten.
var ErrShortCodeTaken = errors.New("short code already taken")

// ErrUserNameTaken is returned by the storage layer when an insert hits the
// unique constraint on the user name.
var ErrUserNameTaken = errors.New("user name already taken")

// URLFormatter converts a bare short code into a full short URL.
type URLFormatter func(string) string
