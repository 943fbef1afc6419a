// Package auth verifies bearer tokens issued by the external identity provider.
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/industria/api/internal/config"
)

// defaultLeeway absorbs clock skew between this service and the identity provider.
const defaultLeeway = 30 * time.Second

var (
	// ErrInvalidToken is returned for tokens that fail parsing or verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNoVerificationKey is returned when neither an HMAC secret nor an
	// RSA public key is configured.
	ErrNoVerificationKey = errors.New("no token verification key configured")
)

// Claims are the token claims this service reads. Roles are collected from
// the top-level "roles" claim and from a realm_access.roles block.
type Claims struct {
	jwt.RegisteredClaims

	PreferredUsername string      `json:"preferred_username,omitempty"`
	Roles             []string    `json:"roles,omitempty"`
	RealmAccess       realmAccess `json:"realm_access"`
}

type realmAccess struct {
	Roles []string `json:"roles,omitempty"`
}

// AllRoles returns the union of every role claim.
func (c *Claims) AllRoles() []string {
	roles := make([]string, 0, len(c.Roles)+len(c.RealmAccess.Roles))
	roles = append(roles, c.Roles...)
	for _, r := range c.RealmAccess.Roles {
		if !slices.Contains(roles, r) {
			roles = append(roles, r)
		}
	}
	return roles
}

// HasRole reports whether the token grants role. Matching ignores case and
// an optional ROLE_ prefix.
func (c *Claims) HasRole(role string) bool {
	want := normalizeRole(role)
	for _, r := range c.AllRoles() {
		if normalizeRole(r) == want {
			return true
		}
	}
	return false
}

func normalizeRole(role string) string {
	role = strings.ToUpper(strings.TrimSpace(role))
	return strings.TrimPrefix(role, "ROLE_")
}

// Verifier validates signed bearer tokens.
type Verifier struct {
	hmacSecret []byte
	rsaKey     *rsa.PublicKey
	parser     *jwt.Parser
}

// NewVerifier builds a Verifier from auth configuration. When an RSA public
// key is configured only RS256/RS384/RS512 tokens are accepted; otherwise
// only HMAC-signed tokens are.
func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	v := &Verifier{}

	opts := []jwt.ParserOption{jwt.WithExpirationRequired(), jwt.WithLeeway(defaultLeeway)}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	switch {
	case cfg.RSAPublicKey != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(normalizePEM(cfg.RSAPublicKey)))
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
		}
		v.rsaKey = key
		opts = append(opts, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}))
	case cfg.HMACSecret != "":
		v.hmacSecret = []byte(cfg.HMACSecret)
		opts = append(opts, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	default:
		return nil, ErrNoVerificationKey
	}

	v.parser = jwt.NewParser(opts...)
	return v, nil
}

// Verify parses and validates a token string and returns its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &Claims{}, v.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}

	return claims, nil
}

func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodRSA:
		if v.rsaKey != nil {
			return v.rsaKey, nil
		}
	case *jwt.SigningMethodHMAC:
		if v.hmacSecret != nil {
			return v.hmacSecret, nil
		}
	}
	return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
}

// normalizePEM accepts keys passed through environment variables with
// escaped newlines, and bare base64 keys as published by identity providers.
func normalizePEM(key string) string {
	key = strings.ReplaceAll(strings.TrimSpace(key), `\n`, "\n")
	if strings.HasPrefix(key, "-----BEGIN") {
		return key
	}
	return "-----BEGIN PUBLIC KEY-----\n" + key + "\n-----END PUBLIC KEY-----\n"
}
