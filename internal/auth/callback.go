package auth

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	callbackIssuer = "pixrelay"
	callbackTTL    = 24 * time.Hour
)

var ErrInvalidCallbackToken = errors.New("token de callback inválido")

// CallbackSigner signs the webhook URLs handed to payment providers so the
// receiver can tell our callbacks from forged ones. A signer with an empty
// secret is disabled: it signs nothing and accepts everything.
type CallbackSigner struct {
	secret []byte
	now    func() time.Time
}

func NewCallbackSigner(secret string) *CallbackSigner {
	return &CallbackSigner{secret: []byte(secret), now: time.Now}
}

// Enabled reports whether callbacks are signed and verified.
func (s *CallbackSigner) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

// Sign returns an HS256 token whose subject is the order external id.
func (s *CallbackSigner) Sign(externalID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    callbackIssuer,
		Subject:   externalID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(callbackTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign callback token: %w", err)
	}
	return token, nil
}

// Verify checks the token and returns the external id it was issued for.
func (s *CallbackSigner) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidCallbackToken
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(callbackIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidCallbackToken
	}
	return claims.Subject, nil
}

// CallbackURL builds base+path and appends a signed token when enabled.
// An empty base yields an empty URL.
func (s *CallbackSigner) CallbackURL(base, path, externalID string) (string, error) {
	if base == "" {
		return "", nil
	}
	u, err := url.Parse(base + path)
	if err != nil {
		return "", fmt.Errorf("parse webhook base url: %w", err)
	}
	if s.Enabled() {
		token, err := s.Sign(externalID)
		if err != nil {
			return "", err
		}
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
