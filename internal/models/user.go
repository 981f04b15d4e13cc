package models

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Username is the login name (unique).
	Username string

	// Email is the user's email address.
	Email string

	// Phone is the user's phone number.
	Phone string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// Avatar is a URL to the user's profile picture.
	Avatar string

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64
}
