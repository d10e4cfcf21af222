// Package domain contains the core business entities for Hermes Gateway.
package domain

import (
	"time"
)

// Hash field names specific to the persisted application record.
const (
	FieldName         = "name"
	FieldUserID       = "userId"
	FieldSecretDigest = "secretDigest"
)

// Application represents an API-consuming client owned by a user.
// Each application holds a rotatable secret used to authenticate against
// the gateway. Only the digest of the secret is ever persisted.
type Application struct {
	// ID is the unique identifier for the application (auto-generated).
	ID string `json:"id"`

	// Name is the human-readable application name.
	Name string `json:"name"`

	// UserID references the owning user. Immutable.
	UserID string `json:"userId"`

	// Secret is the plaintext credential. It is populated exactly once,
	// on the entity returned by insert or by a secret rotation, and is
	// never recoverable afterwards.
	Secret string `json:"secret,omitempty"`

	// SecretDigest is the one-way digest of the secret.
	// Never exposed in API responses and stripped from fetched records.
	SecretDigest string `json:"-"`

	// CreatedAt is the timestamp when the application was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the application was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewApplication creates a new Application with default values.
// The secretDigest should be produced by the crypto package; the plaintext
// secret is carried on the struct only for returning to the caller.
func NewApplication(id, name, userID, secretDigest string) *Application {
	now := time.Now().UTC()
	return &Application{
		ID:           id,
		Name:         name,
		UserID:       userID,
		SecretDigest: secretDigest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Fields encodes the application as a flat field map for a hash record.
// The plaintext secret is deliberately not part of the persisted form.
func (a *Application) Fields() map[string]string {
	return map[string]string{
		FieldID:           a.ID,
		FieldName:         a.Name,
		FieldUserID:       a.UserID,
		FieldSecretDigest: a.SecretDigest,
		FieldCreatedAt:    a.CreatedAt.Format(TimeFormat),
		FieldUpdatedAt:    a.UpdatedAt.Format(TimeFormat),
	}
}

// ApplicationFromFields decodes an application from a stored field map.
// The digest is carried on the returned struct for verification paths;
// callers returning the record outward must strip it first.
func ApplicationFromFields(fields map[string]string) (*Application, error) {
	createdAt, err := parseTime(fields[FieldCreatedAt])
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(fields[FieldUpdatedAt])
	if err != nil {
		return nil, err
	}
	return &Application{
		ID:           fields[FieldID],
		Name:         fields[FieldName],
		UserID:       fields[FieldUserID],
		SecretDigest: fields[FieldSecretDigest],
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

// Redacted returns a copy of the application safe to hand to callers:
// no plaintext secret and no digest.
func (a *Application) Redacted() *Application {
	clone := *a
	clone.Secret = ""
	clone.SecretDigest = ""
	return &clone
}
