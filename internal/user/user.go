// Package user defines the user model used throughout the application,
// particularly for authentication and link ownership.
package user

// User represents a registered account.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string

	// Name is the unique login handle, 5 to 9 characters.
	Name string

	// Email is the address supplied at registration.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	// The plain password is never stored.
	PasswordHash string
}

// Public is the part of a user that is safe to return to clients.
type Public struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ToPublic strips the credential fields from a user.
func (u *User) ToPublic() Public {
	return Public{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}
