package model

import (
	"time"

	"github.com/neuro86/neuro86/pkg/domain/types"
)

// User represents a person submitting stories. A record starts out anonymous
// (keyed by session token) and gains a durable external subject identifier
// once the identity provider confirms sign-in. At most one record exists per
// subject and per session token.
type User struct {
	ID           types.UserID
	SessionToken types.SessionToken
	Subject      string // external identifier issued by the identity provider
	DisplayName  string

	// Timeline is a denormalized copy of the most recently derived timeline,
	// kept for fast reads. It may lag behind the stories; readers recompute
	// lazily when it is nil.
	Timeline *TimelineDocument

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAnonymous reports whether the user has not yet been linked to an external
// identity
func (u *User) IsAnonymous() bool {
	return u.Subject == ""
}
