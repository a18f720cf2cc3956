// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Seat identities are carried in short JWTs so a reconnecting client lands back in the
// seat it held. The signing key lives only in memory; a restart invalidates every token,
// which is harmless because rooms do not survive a restart either.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenTTL of 0 means tokens carry no exp claim.
	tokenTTL time.Duration
)

var ErrInvalidToken = errors.New("invalid identity token")

// Init generates a fresh ed25519 key pair and sets the token lifetime.
func Init(ttl time.Duration) error {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	publicKey, privateKey = pub, priv
	tokenTTL = ttl
	return nil
}

// CreateJWT signs a token with "sub" = id.
func CreateJWT(id uuid.UUID) (string, error) {
	if privateKey == nil {
		return "", errors.New("auth: Init was not called")
	}
	claims := jwt.MapClaims{
		"sub": id.String(),
		"iat": time.Now().Unix(),
	}
	if tokenTTL != 0 {
		claims["exp"] = time.Now().Add(tokenTTL).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateJWT verifies a token and returns the identity in its "sub" claim.
func AuthenticateJWT(tokenString string) (uuid.UUID, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !t.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return id, nil
}

// EnsureIdentity returns the identity in tokenString when it is valid, otherwise a new
// identity with a freshly signed token. fresh reports whether a new token was issued.
func EnsureIdentity(tokenString string) (id uuid.UUID, token string, fresh bool, err error) {
	if tokenString != "" {
		if id, err := AuthenticateJWT(tokenString); err == nil {
			return id, tokenString, false, nil
		}
	}
	id, err = uuid.NewRandom()
	if err != nil {
		return uuid.Nil, "", false, err
	}
	token, err = CreateJWT(id)
	if err != nil {
		return uuid.Nil, "", false, err
	}
	return id, token, true, nil
}
