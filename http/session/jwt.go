package session

import (
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v4"
)

// A JWTIdentity resolves a user ID from a signed token
// travelling with the request instead of a session cookie.
//
// Use alongside a SessionStorer when API-style clients need
// stored-request ownership checks without holding a cookie session.
type JWTIdentity struct {
	key    []byte
	param  string
	parser *jwt.Parser
}

// NewJWTIdentity constructs a JWTIdentity verifying HS256 tokens signed with key,
// read from the "jwt" query parameter.
func NewJWTIdentity(key string) (*JWTIdentity, error) {
	if key == "" {
		return nil, fmt.Errorf(`%w: key cannot be ""`, ErrNotValid)
	}

	return &JWTIdentity{
		key:    []byte(key),
		param:  "jwt",
		parser: &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}},
	}, nil
}

// UserID decodes the token set in the request's query params
// and returns the user ID claimed as subject.
// If no token is set, ErrNoUser returns.
func (j *JWTIdentity) UserID(r *http.Request) (uint, error) {
	reqToken := r.URL.Query().Get(j.param)
	if reqToken == "" {
		return 0, fmt.Errorf("no %s param set: %w", j.param, ErrNoUser)
	}

	claims := new(jwt.RegisteredClaims)
	if _, err := j.parser.ParseWithClaims(reqToken, claims, func(token *jwt.Token) (interface{}, error) {
		return j.key, nil
	}); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNotValid, err)
	}

	var id uint
	if _, err := fmt.Sscanf(claims.Subject, "%d", &id); err != nil {
		return 0, fmt.Errorf("%w: subject %q is not a user ID", ErrNotValid, claims.Subject)
	}

	return id, nil
}
