// Package service provides the credential store business logic for
// Hermes Gateway.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/hermes-gateway/internal/domain"
	"github.com/prn-tf/hermes-gateway/internal/store"
)

// requiredUserFields are checked in order; the first missing one names
// the validation error.
var requiredUserFields = []string{
	domain.FieldUsername,
	domain.FieldFirstname,
	domain.FieldLastname,
	domain.FieldEmail,
}

// mutableUserFields is the allow-list for insert and update payloads.
// Anything outside it is rejected, never silently ignored.
var mutableUserFields = map[string]bool{
	domain.FieldUsername:  true,
	domain.FieldFirstname: true,
	domain.FieldLastname:  true,
	domain.FieldEmail:     true,
}

// ApplicationRemover is the slice of the application store the user store
// depends on for cascade deletion.
type ApplicationRemover interface {
	RemoveAll(ctx context.Context, userID string) (bool, error)
}

// UserService owns user records: validation, username uniqueness, CRUD,
// activation toggling, and the cascade trigger on delete.
//
// Lookup misses return a nil user with a nil error rather than an error;
// only application lookups raise NotFoundError.
type UserService struct {
	store  store.Store
	apps   ApplicationRemover
	logger zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(st store.Store, apps ApplicationRemover, logger zerolog.Logger) *UserService {
	return &UserService{
		store:  st,
		apps:   apps,
		logger: logger.With().Str("service", "user").Logger(),
	}
}

// Insert creates a user from a plain field map. The record write, the
// username index entry and the id set registration are one indivisible
// unit guarded by the index, so of two concurrent inserts with the same
// username exactly one succeeds and the other gets a ConflictError.
func (s *UserService) Insert(ctx context.Context, fields map[string]string) (*domain.User, error) {
	for _, f := range requiredUserFields {
		if fields[f] == "" {
			return nil, requiredFieldError(f)
		}
	}
	for f := range fields {
		if !mutableUserFields[f] {
			return nil, invalidPropertiesError()
		}
	}

	user := domain.NewUser(
		uuid.NewString(),
		fields[domain.FieldUsername],
		fields[domain.FieldFirstname],
		fields[domain.FieldLastname],
		fields[domain.FieldEmail],
	)

	inserted, err := s.store.InsertUnique(ctx, store.UniqueInsert{
		IndexKey:     Keys.UsernameIndex(),
		IndexField:   user.Username,
		IndexValue:   user.ID,
		RecordKey:    Keys.User(user.ID),
		RecordFields: user.Fields(),
		SetKey:       Keys.Users(),
		SetMember:    user.ID,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("username", user.Username).Msg("failed to insert user")
		return nil, storeError(err)
	}
	if !inserted {
		return nil, usernameExistsError()
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("user created")

	return user, nil
}

// Get retrieves a user by id. Returns (nil, nil) when the id does not
// exist.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	fields, err := s.store.GetFields(ctx, Keys.User(id))
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to get user")
		return nil, storeError(err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	user, err := domain.UserFromFields(fields)
	if err != nil {
		return nil, storeError(err)
	}
	return user, nil
}

// Find retrieves a user by username via the uniqueness index.
// Returns (nil, nil) when no user holds the username. Note that a
// username merged in through Update does not rewrite the index, so the
// creation-time username remains the one that resolves here.
func (s *UserService) Find(ctx context.Context, username string) (*domain.User, error) {
	index, err := s.store.GetFields(ctx, Keys.UsernameIndex())
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("failed to read username index")
		return nil, storeError(err)
	}

	id, ok := index[username]
	if !ok {
		return nil, nil
	}
	return s.Get(ctx, id)
}

// Update merges the supplied properties into the stored record and
// refreshes updatedAt. Returns (false, nil) when the id does not exist.
// Properties outside the allow-list fail with a ValidationError before
// anything is written.
func (s *UserService) Update(ctx context.Context, id string, fields map[string]string) (bool, error) {
	existing, err := s.store.GetFields(ctx, Keys.User(id))
	if err != nil {
		return false, storeError(err)
	}
	if len(existing) == 0 {
		return false, nil
	}

	for f := range fields {
		if !mutableUserFields[f] {
			return false, invalidPropertiesError()
		}
	}

	merged := make(map[string]string, len(fields)+1)
	for f, v := range fields {
		merged[f] = v
	}
	merged[domain.FieldUpdatedAt] = time.Now().UTC().Format(domain.TimeFormat)

	if err := s.store.SetFields(ctx, Keys.User(id), merged); err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to update user")
		return false, storeError(err)
	}

	s.logger.Info().Str("user_id", id).Msg("user updated")
	return true, nil
}

// Activate marks the user active. Returns (false, nil) when the id does
// not exist.
func (s *UserService) Activate(ctx context.Context, id string) (bool, error) {
	return s.setActive(ctx, id, true)
}

// Deactivate marks the user inactive. Returns (false, nil) when the id
// does not exist.
func (s *UserService) Deactivate(ctx context.Context, id string) (bool, error) {
	return s.setActive(ctx, id, false)
}

func (s *UserService) setActive(ctx context.Context, id string, active bool) (bool, error) {
	existing, err := s.store.GetFields(ctx, Keys.User(id))
	if err != nil {
		return false, storeError(err)
	}
	if len(existing) == 0 {
		return false, nil
	}

	isActive := "false"
	if active {
		isActive = "true"
	}
	err = s.store.SetFields(ctx, Keys.User(id), map[string]string{
		domain.FieldIsActive:  isActive,
		domain.FieldUpdatedAt: time.Now().UTC().Format(domain.TimeFormat),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to set user active status")
		return false, storeError(err)
	}

	s.logger.Info().
		Str("user_id", id).
		Bool("is_active", active).
		Msg("user active status updated")

	return true, nil
}

// Remove deletes a user and cascades to every application it owns.
// Applications are removed to completion first; the user record, its
// username index entry and its id registration then go in one atomic
// unit. Returns (false, nil) when the id does not exist.
func (s *UserService) Remove(ctx context.Context, id string) (bool, error) {
	fields, err := s.store.GetFields(ctx, Keys.User(id))
	if err != nil {
		return false, storeError(err)
	}
	if len(fields) == 0 {
		return false, nil
	}
	username := fields[domain.FieldUsername]

	if _, err := s.apps.RemoveAll(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to cascade application removal")
		return false, err
	}

	err = s.store.Atomic(ctx, func(b store.Batch) error {
		b.DeleteKey(Keys.User(id))
		b.DeleteFields(Keys.UsernameIndex(), username)
		b.RemoveFromSet(Keys.Users(), id)
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to delete user")
		return false, storeError(err)
	}

	s.logger.Info().
		Str("user_id", id).
		Str("username", username).
		Msg("user deleted")

	return true, nil
}
