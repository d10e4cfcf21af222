// Package service provides the credential store business logic for
// Hermes Gateway.
package service

// Keys provides key generation for the store schema.
// Records live in hashes, ownership and existence in sets, and the
// username uniqueness index in a single hash keyed by username.
var Keys = storeKeys{}

type storeKeys struct{}

// User returns the hash key holding a user record.
func (storeKeys) User(id string) string {
	return "hermes:user:" + id
}

// Users returns the set key holding all existing user ids.
func (storeKeys) Users() string {
	return "hermes:users"
}

// UsernameIndex returns the hash key mapping username to user id.
func (storeKeys) UsernameIndex() string {
	return "hermes:username-index"
}

// App returns the hash key holding an application record.
func (storeKeys) App(id string) string {
	return "hermes:app:" + id
}

// UserApps returns the set key holding the application ids owned by a user.
func (storeKeys) UserApps(userID string) string {
	return "hermes:user-apps:" + userID
}
