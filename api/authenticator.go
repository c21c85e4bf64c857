package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/vocdoni/payments-backend/errors"
)

const (
	roleClaim    = "role"
	operatorRole = "operator"

	// DefaultOperatorTokenTTL is the validity of a minted operator token.
	DefaultOperatorTokenTTL = 24 * time.Hour
)

// operatorAuthenticator is a middleware that lets through only requests that
// carry a valid JWT token with the operator role.
func (*API) operatorAuthenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			errors.ErrUnauthorized.Write(w)
			return
		}
		if jwt.Validate(token, jwt.WithRequiredClaim(roleClaim)) != nil {
			errors.ErrUnauthorized.Withf("role claim not found in JWT token").Write(w)
			return
		}
		if role, _ := claims[roleClaim].(string); role != operatorRole {
			errors.ErrForbidden.Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OperatorToken creates a JWT token with the operator role, signed with the
// API secret and valid for ttl from now.
func OperatorToken(secret string, ttl time.Duration, now time.Time) (string, time.Time, error) {
	expiration := now.Add(ttl)
	j := jwt.New()
	if err := j.Set(roleClaim, operatorRole); err != nil {
		return "", time.Time{}, err
	}
	if err := j.Set(jwt.IssuedAtKey, now); err != nil {
		return "", time.Time{}, err
	}
	if err := j.Set(jwt.ExpirationKey, expiration); err != nil {
		return "", time.Time{}, err
	}
	jmap, err := j.AsMap(context.Background())
	if err != nil {
		return "", time.Time{}, err
	}
	_, token, err := jwtauth.New("HS256", []byte(secret), nil).Encode(jmap)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiration, nil
}
