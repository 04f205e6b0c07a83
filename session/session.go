package session

import "github.com/ypereira/messenger/identity"

// Session holds the signed-in user's profile values. It is constructed once
// per request from the verified auth token and passed explicitly into every
// synchronizer call; there is no process-wide current user.
type Session struct {
	Email       string
	DisplayName string
}

func (s Session) SafeEmail() string {
	return identity.SafeEmail(s.Email)
}
