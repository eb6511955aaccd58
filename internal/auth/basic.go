// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 12
	basicChallenge    = `Basic realm="Insightboard ingest", charset="UTF-8"`
)

// bcryptCost is the cost used when hashing a plaintext password.
var bcryptCost = 12

// BasicAuthManager checks the single ingest account configured for
// INGEST_AUTH=basic. A successful login is always a writer.
type BasicAuthManager struct {
	username     string
	passwordHash []byte
}

// NewBasicAuthManager creates the manager. password is either plaintext,
// hashed here once, or an existing bcrypt hash, used as is.
func NewBasicAuthManager(username, password string) (*BasicAuthManager, error) {
	switch {
	case username == "":
		return nil, errors.New("username is required")
	case strings.Contains(username, ":"):
		return nil, errors.New("username must not contain ':'")
	}

	hash, err := passwordHash(password)
	if err != nil {
		return nil, err
	}
	return &BasicAuthManager{username: username, passwordHash: hash}, nil
}

func passwordHash(password string) ([]byte, error) {
	if _, err := bcrypt.Cost([]byte(password)); err == nil {
		return []byte(password), nil
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters or a bcrypt hash", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// Authenticate checks the request's Basic credentials and returns writer
// claims for the configured account.
func (m *BasicAuthManager) Authenticate(r *http.Request) (*Claims, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, ErrInvalidCredentials
	}

	// The password is always checked so a wrong username costs the same.
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)) == nil
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}
	return &Claims{Username: username, Role: RoleWriter}, nil
}

// Challenge is the WWW-Authenticate value sent with a 401.
func (m *BasicAuthManager) Challenge() string {
	return basicChallenge
}
