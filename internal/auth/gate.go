// Package auth implements the admin override gate. A supplied admin code is
// checked against a bcrypt hash; a successful check yields a short-lived
// capability token that the destructive order operations require.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const overrideScope = "admin-override"

// OverrideTTL is how long an issued override token stays valid.
const OverrideTTL = 2 * time.Minute

var ErrInvalidCredential = errors.New("invalid admin credential")

type overrideClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Gate validates admin codes and issues override tokens.
type Gate struct {
	codeHash string
	secret   string
	now      func() time.Time
}

func NewGate(codeHash, secret string) *Gate {
	return &Gate{codeHash: codeHash, secret: secret, now: time.Now}
}

// Authorize checks the admin code and returns an override token that stays
// valid for OverrideTTL.
func (g *Gate) Authorize(code string) (string, error) {
	if code == "" {
		return "", ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(g.codeHash), []byte(code)); err != nil {
		return "", ErrInvalidCredential
	}

	now := g.now()
	claims := overrideClaims{
		Scope: overrideScope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(OverrideTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(g.secret))
	if err != nil {
		return "", fmt.Errorf("sign override token: %w", err)
	}
	return signed, nil
}

// Verify checks that tokenStr is a live override token issued by Authorize.
func (g *Gate) Verify(tokenStr string) error {
	token, err := jwt.ParseWithClaims(tokenStr, &overrideClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(g.secret), nil
	})
	if err != nil {
		return ErrInvalidCredential
	}
	claims, ok := token.Claims.(*overrideClaims)
	if !ok || !token.Valid || claims.Scope != overrideScope {
		return ErrInvalidCredential
	}
	return nil
}
