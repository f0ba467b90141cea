package models

// Identity names the owner of cart and favorites state for one request.
// It is either a GuestIdentity or a UserIdentity, never both.
type Identity interface {
	// Owner is the session id for guests and the user id for users.
	Owner() string
	IsGuest() bool
}

type GuestIdentity struct {
	SessionID string
}

func (g GuestIdentity) Owner() string { return g.SessionID }
func (g GuestIdentity) IsGuest() bool { return true }

type UserIdentity struct {
	UserID string
	Email  string
}

func (u UserIdentity) Owner() string { return u.UserID }
func (u UserIdentity) IsGuest() bool { return false }

// ReviewerIdentity authenticates back-office payment reviewers. It never owns
// a cart.
type ReviewerIdentity struct {
	ReviewerID string
}
