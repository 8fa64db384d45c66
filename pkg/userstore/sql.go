package userstore

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/keycloak-sso/pkg/sso"
)

const lookupQuery = `SELECT id, email, full_name, is_active FROM users WHERE email = $1`

// SQLStore looks users up by email in a users table
type SQLStore struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

// NewSQLStore creates a store over db. A nil logger discards output.
func NewSQLStore(db *sql.DB, logger logrus.FieldLogger) *SQLStore {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &SQLStore{db: db, logger: logger}
}

// Lookup returns the active user with the given email.
// Query failures are logged and reported as absent.
func (s *SQLStore) Lookup(ctx context.Context, email string, _ sso.TokenPayload) (*User, bool) {
	var user User
	err := s.db.QueryRowContext(ctx, lookupQuery, email).Scan(&user.ID, &user.Email, &user.FullName, &user.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.logger.WithError(err).WithField("email", email).Error("Failed to look up user")
		return nil, false
	}
	if !user.Active {
		s.logger.WithField("email", email).Debug("Ignoring inactive user")
		return nil, false
	}
	return &user, true
}
