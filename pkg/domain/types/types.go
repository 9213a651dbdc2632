package types

import "github.com/google/uuid"

// UserID is a UUID-based identifier for a user record
type UserID string

// NewUserID generates a new UUID v7 UserID
func NewUserID() UserID {
	return UserID(uuid.Must(uuid.NewV7()).String())
}

// String returns the string representation of the user ID
func (id UserID) String() string {
	return string(id)
}

// StoryID is a UUID-based identifier for a story
type StoryID string

// NewStoryID generates a new UUID v7 StoryID
func NewStoryID() StoryID {
	return StoryID(uuid.Must(uuid.NewV7()).String())
}

// String returns the string representation of the story ID
func (id StoryID) String() string {
	return string(id)
}

// SessionToken is an internally generated opaque identifier that tracks a
// user before authentication
type SessionToken string

// NewSessionToken generates a new random session token
func NewSessionToken() SessionToken {
	return SessionToken(uuid.New().String())
}

// String returns the string representation of the session token
func (t SessionToken) String() string {
	return string(t)
}
