package models

import "time"

// Session keys written by gateway handlers after upstream confirmation.
const (
	SessionUserID            = "userId"
	SessionShopID            = "shopId"
	SessionRiderID           = "riderId"
	SessionRegistrationStage = "registration_stage"
	SessionRole              = "role"
	SessionEmail             = "email"
)

// Roles known to the marketplace.
const (
	RoleCustomer  = "customer"
	RoleSeller    = "seller"
	RoleRider     = "rider"
	RoleModerator = "moderator"
)

// Session is the server-held record referenced by the session cookie.
type Session struct {
	ID        string            `json:"id"`
	Values    map[string]string `json:"values"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`

	dirty bool
	isNew bool
}

// NewSession creates an empty, unsaved session.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Values:    make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
		isNew:     true,
	}
}

// Get returns the value stored under key, or "".
func (s *Session) Get(key string) string {
	if s == nil || s.Values == nil {
		return ""
	}
	return s.Values[key]
}

// Set stores value under key and marks the session for saving.
func (s *Session) Set(key, value string) {
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	if cur, ok := s.Values[key]; ok && cur == value {
		return
	}
	s.Values[key] = value
	s.UpdatedAt = time.Now().UTC()
	s.dirty = true
}

// Delete removes key.
func (s *Session) Delete(key string) {
	if _, ok := s.Values[key]; !ok {
		return
	}
	delete(s.Values, key)
	s.UpdatedAt = time.Now().UTC()
	s.dirty = true
}

func (s *Session) UserID() string { return s.Get(SessionUserID) }
func (s *Session) ShopID() string { return s.Get(SessionShopID) }
func (s *Session) Role() string   { return s.Get(SessionRole) }

// IsAuthenticated reports whether a login or signup step recorded a user.
func (s *Session) IsAuthenticated() bool {
	return s.UserID() != ""
}

// Dirty reports unsaved changes.
func (s *Session) Dirty() bool { return s.dirty }

// IsNew reports a session that has never been persisted.
func (s *Session) IsNew() bool { return s.isNew }

// MarkSaved clears the dirty and new flags after persisting.
func (s *Session) MarkSaved() {
	s.dirty = false
	s.isNew = false
}
