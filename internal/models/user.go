package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/wlx/internal/shared"
)

// User is an identity returned by the OAuth provider. The id is the provider's
// subject claim and doubles as the watchlist document key.
type User struct {
	id        string
	email     string
	name      string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewUser creates a [User] with both timestamps set to now.
func NewUser(id, email, name string) *User {
	now := time.Now().UTC()
	return &User{id: id, email: email, name: name, createdAt: now, updatedAt: now}
}

func (u *User) ID() string            { return u.id }
func (u *User) Email() string         { return u.email }
func (u *User) Name() string          { return u.name }
func (u *User) CreatedAt() time.Time  { return u.createdAt }
func (u *User) UpdatedAt() time.Time  { return u.updatedAt }
func (u *User) DeletedAt() *time.Time { return u.deletedAt }

func (u *User) SetEmail(email string)     { u.email = email }
func (u *User) SetName(name string)       { u.name = name }
func (u *User) SetCreatedAt(t time.Time)  { u.createdAt = t }
func (u *User) SetUpdatedAt(t time.Time)  { u.updatedAt = t }
func (u *User) SetDeletedAt(t *time.Time) { u.deletedAt = t }
func (u *User) IsDeleted() bool           { return u.deletedAt != nil }

// DisplayName prefers the name, then the email, then the id.
func (u *User) DisplayName() string {
	switch {
	case u.name != "":
		return u.name
	case u.email != "":
		return u.email
	default:
		return u.id
	}
}

// Validate requires an id and, when present, a plausible email address.
func (u *User) Validate() error {
	if strings.TrimSpace(u.id) == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrValidation)
	}
	if u.email != "" && !strings.Contains(u.email, "@") {
		return fmt.Errorf("%w: invalid email %q", shared.ErrValidation, u.email)
	}
	return nil
}
