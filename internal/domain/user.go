// Package domain contains the core business entities for Hermes Gateway.
// These are pure Go structs with no external dependencies, representing
// the identity and credential concepts of the gateway.
package domain

import (
	"time"
)

// Hash field names for the persisted user record.
const (
	FieldID        = "id"
	FieldUsername  = "username"
	FieldFirstname = "firstname"
	FieldLastname  = "lastname"
	FieldEmail     = "email"
	FieldIsActive  = "isActive"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// TimeFormat is the wire format for timestamps stored in record hashes.
const TimeFormat = time.RFC3339Nano

// User represents a gateway operator who owns applications.
type User struct {
	// ID is the unique identifier for the user (auto-generated, immutable).
	ID string `json:"id"`

	// Username is the unique username. Immutable for indexing purposes
	// after creation.
	Username string `json:"username"`

	// Firstname is the user's given name.
	Firstname string `json:"firstname"`

	// Lastname is the user's family name.
	Lastname string `json:"lastname"`

	// Email is the user's contact address.
	Email string `json:"email"`

	// IsActive indicates whether the user account is active.
	// Mutated only through Activate/Deactivate, never by general update.
	IsActive bool `json:"isActive"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser creates a new User with default values.
func NewUser(id, username, firstname, lastname, email string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        id,
		Username:  username,
		Firstname: firstname,
		Lastname:  lastname,
		Email:     email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Fields encodes the user as a flat field map suitable for a hash record.
// Booleans and timestamps are stored as strings, matching the wire format
// of the backing store.
func (u *User) Fields() map[string]string {
	return map[string]string{
		FieldID:        u.ID,
		FieldUsername:  u.Username,
		FieldFirstname: u.Firstname,
		FieldLastname:  u.Lastname,
		FieldEmail:     u.Email,
		FieldIsActive:  formatBool(u.IsActive),
		FieldCreatedAt: u.CreatedAt.Format(TimeFormat),
		FieldUpdatedAt: u.UpdatedAt.Format(TimeFormat),
	}
}

// UserFromFields decodes a user from a stored field map.
// Unrecognized fields are ignored so that storage artifacts never leak
// into the public record.
func UserFromFields(fields map[string]string) (*User, error) {
	createdAt, err := parseTime(fields[FieldCreatedAt])
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(fields[FieldUpdatedAt])
	if err != nil {
		return nil, err
	}
	return &User{
		ID:        fields[FieldID],
		Username:  fields[FieldUsername],
		Firstname: fields[FieldFirstname],
		Lastname:  fields[FieldLastname],
		Email:     fields[FieldEmail],
		IsActive:  fields[FieldIsActive] == "true",
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(TimeFormat, s)
	if err != nil {
		return time.Time{}, ErrCorruptRecord
	}
	return t, nil
}
