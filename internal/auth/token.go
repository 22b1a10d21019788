package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// ParseIdentity extracts the caller identity from a bearer token. With a
// secret configured the signature is verified; without one the claims are
// decoded as-is and trusted, matching the hosted setup where the gateway has
// already validated the token. The unverified path is logged on every use.
func ParseIdentity(tokenStr, secret string) (*Identity, error) {
	var claims jwt.MapClaims

	if secret != "" {
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return nil, ErrInvalidToken
		}
		mapClaims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return nil, ErrInvalidToken
		}
		claims = mapClaims
	} else {
		log.Warn("auth: no JWT secret configured, decoding token without signature verification")
		token, _, err := jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{})
		if err != nil {
			return nil, ErrInvalidToken
		}
		mapClaims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return nil, ErrInvalidToken
		}
		claims = mapClaims
	}

	sub, _ := claims["sub"].(string)
	if _, err := uuid.Parse(sub); err != nil {
		return nil, fmt.Errorf("%w: subject is not a valid UUID", ErrInvalidToken)
	}

	email, _ := claims["email"].(string)
	if email == "" {
		email = "unknown@example.com"
	}

	return &Identity{ID: sub, Email: email}, nil
}
