package session

import (
	"github.com/trezcool/masomo-portal/core/lms"
)

// Persisted record keys.
const (
	KeyUser  = "auth_user"
	KeyToken = "auth_token"
)

// Session is the client-held record of the currently authenticated identity.
type Session struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// valid reports whether a restored record can be trusted as a session.
func (s Session) valid() bool {
	return s.Email != "" && s.Role != ""
}

// IsEditor reports whether the session is granted the authoring UI (teacher or admin).
// A nil session is never an editor.
func (s *Session) IsEditor() bool {
	return s != nil && lms.IsEditorRole(s.Role)
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == lms.RoleAdmin
}

// Persistence is the durable client storage holding the session and token records.
// Every operation reports its failure; the Store decides what to ignore.
type Persistence interface {
	// Get returns the value stored under key, and false when there is none.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}
