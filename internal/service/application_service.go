// Package service provides the credential store business logic for
// Hermes Gateway.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/hermes-gateway/internal/domain"
	"github.com/prn-tf/hermes-gateway/internal/pkg/crypto"
	"github.com/prn-tf/hermes-gateway/internal/store"
)

// applicationFields is the allow-list for application insert payloads.
var applicationFields = map[string]bool{
	domain.FieldName:   true,
	domain.FieldUserID: true,
}

// CredentialParams tunes secret issuance. Zero values fall back to the
// crypto package defaults.
type CredentialParams struct {
	// SecretLength is the length of generated plaintext secrets.
	SecretLength int

	// DigestCost is the bcrypt cost used for secret digests.
	DigestCost int
}

// ApplicationService owns application records and their credential
// lifecycle: secret issuance, authentication, rotation, and removal
// scoped to an owning user.
//
// The plaintext secret is returned exactly once, at insert and at
// rotation; afterwards only the digest exists, and no lookup exposes it.
type ApplicationService struct {
	store  store.Store
	params CredentialParams
	logger zerolog.Logger
}

// NewApplicationService creates a new ApplicationService.
func NewApplicationService(st store.Store, params CredentialParams, logger zerolog.Logger) *ApplicationService {
	return &ApplicationService{
		store:  st,
		params: params,
		logger: logger.With().Str("service", "application").Logger(),
	}
}

// Insert creates an application from a plain field map and issues its
// secret. The record write and the owner-set registration are one atomic
// unit. The returned entity carries the plaintext secret; it is not
// recoverable through any later operation.
func (s *ApplicationService) Insert(ctx context.Context, fields map[string]string) (*domain.Application, error) {
	if fields[domain.FieldName] == "" || fields[domain.FieldUserID] == "" {
		return nil, invalidAppError()
	}
	for f := range fields {
		if !applicationFields[f] {
			return nil, invalidAppError()
		}
	}

	secret, err := crypto.GenerateSecret(s.params.SecretLength)
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	digest, err := crypto.DigestSecret(secret, s.params.DigestCost)
	if err != nil {
		return nil, fmt.Errorf("digest secret: %w", err)
	}

	app := domain.NewApplication(
		uuid.NewString(),
		fields[domain.FieldName],
		fields[domain.FieldUserID],
		digest,
	)

	err = s.store.Atomic(ctx, func(b store.Batch) error {
		b.SetFields(Keys.App(app.ID), app.Fields())
		b.AddToSet(Keys.UserApps(app.UserID), app.ID)
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("app_name", app.Name).Msg("failed to insert application")
		return nil, storeError(err)
	}

	s.logger.Info().
		Str("app_id", app.ID).
		Str("user_id", app.UserID).
		Str("app_name", app.Name).
		Msg("application created")

	app.Secret = secret
	app.SecretDigest = ""
	return app, nil
}

// Get retrieves an application by id, without its secret in any form.
// Fails with NotFoundError when the id does not exist.
func (s *ApplicationService) Get(ctx context.Context, id string) (*domain.Application, error) {
	fields, err := s.store.GetFields(ctx, Keys.App(id))
	if err != nil {
		s.logger.Error().Err(err).Str("app_id", id).Msg("failed to get application")
		return nil, storeError(err)
	}
	if len(fields) == 0 {
		return nil, appNotFoundError()
	}

	app, err := domain.ApplicationFromFields(fields)
	if err != nil {
		return nil, storeError(err)
	}
	return app.Redacted(), nil
}

// GetAll returns every application owned by the user, in no significant
// order. A user owning none yields an empty slice.
func (s *ApplicationService) GetAll(ctx context.Context, userID string) ([]*domain.Application, error) {
	ids, err := s.store.MembersOf(ctx, Keys.UserApps(userID))
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list applications")
		return nil, storeError(err)
	}

	apps := make([]*domain.Application, 0, len(ids))
	for _, id := range ids {
		fields, err := s.store.GetFields(ctx, Keys.App(id))
		if err != nil {
			return nil, storeError(err)
		}
		if len(fields) == 0 {
			continue
		}
		app, err := domain.ApplicationFromFields(fields)
		if err != nil {
			return nil, storeError(err)
		}
		apps = append(apps, app.Redacted())
	}
	return apps, nil
}

// Authenticate reports whether the candidate secret verifies against the
// application's stored digest. A missing application and a wrong secret
// both yield false, so authentication never leaks existence.
func (s *ApplicationService) Authenticate(ctx context.Context, id, secret string) (bool, error) {
	fields, err := s.store.GetFields(ctx, Keys.App(id))
	if err != nil {
		return false, storeError(err)
	}
	if len(fields) == 0 {
		s.logger.Debug().Str("app_id", id).Msg("authentication attempt for unknown application")
		return false, nil
	}

	if !crypto.VerifySecret(secret, fields[domain.FieldSecretDigest]) {
		s.logger.Debug().Str("app_id", id).Msg("invalid secret during authentication")
		return false, nil
	}
	return true, nil
}

// RotateSecret issues a new secret, replacing the old digest, and returns
// the new plaintext. The old secret stops authenticating immediately.
// Fails with NotFoundError when the id does not exist.
func (s *ApplicationService) RotateSecret(ctx context.Context, id string) (string, error) {
	fields, err := s.store.GetFields(ctx, Keys.App(id))
	if err != nil {
		return "", storeError(err)
	}
	if len(fields) == 0 {
		return "", appNotFoundError()
	}

	secret, err := crypto.GenerateSecret(s.params.SecretLength)
	if err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	digest, err := crypto.DigestSecret(secret, s.params.DigestCost)
	if err != nil {
		return "", fmt.Errorf("digest secret: %w", err)
	}

	err = s.store.SetFields(ctx, Keys.App(id), map[string]string{
		domain.FieldSecretDigest: digest,
		domain.FieldUpdatedAt:    time.Now().UTC().Format(domain.TimeFormat),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("app_id", id).Msg("failed to rotate secret")
		return "", storeError(err)
	}

	s.logger.Info().Str("app_id", id).Msg("application secret rotated")
	return secret, nil
}

// Remove deletes an application and unregisters it from its owner's set
// in one atomic unit. Fails with NotFoundError when the id does not
// exist.
func (s *ApplicationService) Remove(ctx context.Context, id string) (bool, error) {
	fields, err := s.store.GetFields(ctx, Keys.App(id))
	if err != nil {
		return false, storeError(err)
	}
	if len(fields) == 0 {
		return false, appNotFoundError()
	}
	userID := fields[domain.FieldUserID]

	err = s.store.Atomic(ctx, func(b store.Batch) error {
		b.DeleteKey(Keys.App(id))
		b.RemoveFromSet(Keys.UserApps(userID), id)
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("app_id", id).Msg("failed to delete application")
		return false, storeError(err)
	}

	s.logger.Info().
		Str("app_id", id).
		Str("user_id", userID).
		Msg("application deleted")

	return true, nil
}

// RemoveAll deletes every application owned by the user and clears the
// owner's set, all in one atomic unit. Idempotent: a user owning nothing
// still yields true.
func (s *ApplicationService) RemoveAll(ctx context.Context, userID string) (bool, error) {
	ids, err := s.store.MembersOf(ctx, Keys.UserApps(userID))
	if err != nil {
		return false, storeError(err)
	}

	err = s.store.Atomic(ctx, func(b store.Batch) error {
		for _, id := range ids {
			b.DeleteKey(Keys.App(id))
		}
		b.DeleteKey(Keys.UserApps(userID))
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to delete user applications")
		return false, storeError(err)
	}

	if len(ids) > 0 {
		s.logger.Info().
			Str("user_id", userID).
			Int("count", len(ids)).
			Msg("user applications deleted")
	}
	return true, nil
}

// Ensure ApplicationService satisfies the cascade contract UserService
// depends on.
var _ ApplicationRemover = (*ApplicationService)(nil)
