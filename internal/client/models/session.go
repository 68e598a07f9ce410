// Package models defines the client-side view models shared by the
// synchronization components: sessions, posts, comments, likes and drafts.
package models

// Session is the authenticated identity of the current user.
type Session struct {
	IdentityID  int64
	DisplayName string
	Token       string
	AvatarURL   string
}

// SessionPatch carries partial session updates. Nil fields are left untouched;
// a pointer to "" clears the value.
type SessionPatch struct {
	DisplayName *string
	AvatarURL   *string
}

// Apply returns a copy of s with the patch merged in.
func (p SessionPatch) Apply(s Session) Session {
	if p.DisplayName != nil {
		s.DisplayName = *p.DisplayName
	}
	if p.AvatarURL != nil {
		s.AvatarURL = *p.AvatarURL
	}
	return s
}

// Credentials are the login/registration inputs.
type Credentials struct {
	Email       string
	Password    string
	DisplayName string
}

// Identity is the public profile of a user as returned by profile mutations.
type Identity struct {
	ID          int64
	DisplayName string
	AvatarURL   string
}
