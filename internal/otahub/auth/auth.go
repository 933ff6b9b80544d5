// Package auth verifies the shared credential presented on write requests.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/autopeer-io/otahub/pkg/options"
)

// ErrUnauthorized is returned for a missing or wrong credential.
var ErrUnauthorized = errors.New("unauthorized")

// Authenticator decides whether a presented credential grants write access.
type Authenticator interface {
	VerifyCredential(ctx context.Context, presented string) error
}

// StaticToken accepts exactly one token, compared in constant time.
type StaticToken struct {
	token []byte
}

func NewStaticToken(token string) *StaticToken {
	return &StaticToken{token: []byte(token)}
}

func (s *StaticToken) VerifyCredential(_ context.Context, presented string) error {
	if presented == "" || len(s.token) == 0 {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(presented), s.token) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// HashedToken accepts the token matching a bcrypt hash.
type HashedToken struct {
	hash []byte
}

// NewHashedToken validates hash and returns an authenticator for it.
func NewHashedToken(hash string) (*HashedToken, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, err
	}
	return &HashedToken{hash: []byte(hash)}, nil
}

func (h *HashedToken) VerifyCredential(_ context.Context, presented string) error {
	if presented == "" {
		return ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(h.hash, []byte(presented)); err != nil {
		return ErrUnauthorized
	}
	return nil
}

// New builds the authenticator configured by opts.
func New(opts *options.AuthOptions) (Authenticator, error) {
	if opts.APITokenHash != "" {
		return NewHashedToken(opts.APITokenHash)
	}
	if opts.APIToken == "" {
		return nil, errors.New("no credential configured")
	}
	return NewStaticToken(opts.APIToken), nil
}
