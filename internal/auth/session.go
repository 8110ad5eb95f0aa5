// Package auth inspects the access token the PensaConnect server issued at login.
//
// The server signs its JWTs with a secret the client never sees, so the client
// cannot VERIFY a token. It only needs to READ it:
//   - "sub": the id of the logged-in user (the server puts the numeric user id here)
//   - "exp": when the token stops working
//
// Verification is the server's job on every request. A forged token read here
// gains nothing: the server rejects it with 401.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"sub":7,"exp":1234567890}
//	- Signature: ignored by the client
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/pensaconnect/connect/internal/apperror"
)

// ErrInvalidToken is returned by NewSession for empty or unreadable tokens.
var ErrInvalidToken = errors.New("auth: invalid token")

// Session is a decoded, unverified access token.
type Session struct {
	raw       string
	userID    int64
	expiresAt *time.Time

	// now is swapped out in tests.
	now func() time.Time
}

// NewSession decodes token without checking its signature.
func NewSession(token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: token is empty", ErrInvalidToken)
	}

	// WithJSONNumber keeps a numeric "sub" exact instead of turning it into float64.
	parser := jwt.NewParser(jwt.WithJSONNumber())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	userID, err := subjectID(claims["sub"])
	if err != nil {
		return nil, err
	}

	s := &Session{raw: token, userID: userID, now: time.Now}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if exp != nil {
		t := exp.Time
		s.expiresAt = &t
	}

	return s, nil
}

// subjectID accepts both forms of "sub" the server has emitted over time:
// a JSON number (identity=user.id) and a numeric string.
func subjectID(sub any) (int64, error) {
	switch v := sub.(type) {
	case json.Number:
		if id, err := v.Int64(); err == nil {
			return id, nil
		}
	case float64:
		if v == float64(int64(v)) {
			return int64(v), nil
		}
	case string:
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			return id, nil
		}
	case nil:
		return 0, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	return 0, fmt.Errorf("%w: subject %v is not a user id", ErrInvalidToken, sub)
}

// Token returns the raw JWT, ready for an Authorization header.
func (s *Session) Token() string { return s.raw }

// UserID is the id of the logged-in user.
func (s *Session) UserID() int64 { return s.userID }

// ExpiresAt returns the "exp" claim, if the token has one.
func (s *Session) ExpiresAt() (time.Time, bool) {
	if s.expiresAt == nil {
		return time.Time{}, false
	}
	return *s.expiresAt, true
}

// Expired reports whether the token is past its expiry at now.
// A token without "exp" never expires.
func (s *Session) Expired(now time.Time) bool {
	return s.expiresAt != nil && !now.Before(*s.expiresAt)
}

// TokenSource adapts the session to golang.org/x/oauth2, so an
// oauth2.Transport can attach "Authorization: Bearer <token>" to every request.
//
// Once the token has expired the source returns apperror.ErrUnauthorized
// instead of sending a request the server would refuse anyway.
func (s *Session) TokenSource() oauth2.TokenSource {
	return sessionTokenSource{s}
}

type sessionTokenSource struct {
	s *Session
}

func (ts sessionTokenSource) Token() (*oauth2.Token, error) {
	if ts.s.Expired(ts.s.now()) {
		return nil, apperror.Unauthorized("session expired, log in again")
	}
	tok := &oauth2.Token{
		AccessToken: ts.s.raw,
		TokenType:   "Bearer",
	}
	if ts.s.expiresAt != nil {
		tok.Expiry = *ts.s.expiresAt
	}
	return tok, nil
}
