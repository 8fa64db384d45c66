package ssotest

import (
	"context"

	"github.com/platinummonkey/keycloak-sso/pkg/sso"
)

// User is a minimal local user for tests
type User struct {
	Email string
}

// Users is a fixed in-memory user table keyed by email
type Users map[string]*User

// NewUsers creates a user table from emails
func NewUsers(emails ...string) Users {
	users := make(Users, len(emails))
	for _, email := range emails {
		users[email] = &User{Email: email}
	}
	return users
}

// Lookup implements sso.UserLookup
func (u Users) Lookup(ctx context.Context, email string, payload sso.TokenPayload) (*User, bool) {
	user, ok := u[email]
	return user, ok
}
