// Package auth verifies the identity tokens issued by the frontend's
// OIDC provider and derives the anonymous user hash from the email.
package auth

import (
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// emailSalt is prepended to the lowercased email before hashing.
// It must never change or all stored user records become orphans.
const emailSalt = "bite-sized"

var ErrUnverifiedEmail = errors.New("email address not verified")

// Identity is a verified caller.
type Identity struct {
	// Email address from the token, lowercased.
	Email string
	// Hex hash of the salted email. Used as the author marker on
	// questions so records never carry the address itself.
	EmailHash string
}

type claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// Verifier validates RS256 identity tokens against a fixed public key.
type Verifier struct {
	key      *rsa.PublicKey
	audience string
}

// NewVerifier builds a Verifier from the raw JWK modulus and exponent
// (base64url, no padding) and the expected audience claim.
func NewVerifier(modulus, exponent, audience string) (*Verifier, error) {
	n, err := base64.RawURLEncoding.DecodeString(modulus)
	if err != nil {
		return nil, fmt.Errorf("decoding JWK modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(exponent)
	if err != nil {
		return nil, fmt.Errorf("decoding JWK exponent: %w", err)
	}

	key := &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}

	return &Verifier{key: key, audience: audience}, nil
}

// Identify validates the token and returns the caller's identity.
// Tokens with an unverified email are rejected.
func (v *Verifier) Identify(token string) (*Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(t *jwt.Token) (interface{}, error) { return v.key, nil },
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	)
	if err != nil {
		log.Info().Err(err).Msg("Token validation failed")
		return nil, err
	}

	if !c.EmailVerified {
		log.Info().Str("email", c.Email).Msg("Rejecting token with unverified email")
		return nil, ErrUnverifiedEmail
	}

	email := strings.ToLower(strings.TrimSpace(c.Email))
	if email == "" {
		return nil, errors.New("token carries no email claim")
	}

	return &Identity{Email: email, EmailHash: EmailHash(email)}, nil
}

// EmailHash returns the hex hash of the salted, lowercased email.
func EmailHash(email string) string {
	sum := sha256.Sum256([]byte(emailSalt + strings.ToLower(email)))
	return hex.EncodeToString(sum[:])
}
