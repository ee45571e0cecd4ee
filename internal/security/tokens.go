package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when a token is malformed, unsigned, or
	// signed with an unknown key.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for a structurally valid token whose
	// expiry has passed.
	ErrTokenExpired = errors.New("token expired")
)

// AccessClaims holds JWT claims for the access token. The jti (RegisteredClaims.ID)
// is unique per issuance.
type AccessClaims struct {
	jwt.RegisteredClaims
}

// RefreshClaims holds JWT claims for the refresh token. SessionID binds the
// token to exactly one session record.
type RefreshClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// TokenProvider issues and verifies HS256-signed access and refresh tokens.
// Verification is purely cryptographic and temporal; it never consults
// session or user storage.
type TokenProvider struct {
	keys       *KeySet
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider signing with the key set's active
// key. Tokens signed by any key in the set verify by their kid header, which
// is how key rotation works: construct a provider with a new active key and
// keep the old keys in the set until outstanding tokens expire.
func NewTokenProvider(keys *KeySet, issuer string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		keys:       keys,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Algorithm returns the signing algorithm descriptor of the active key.
func (p *TokenProvider) Algorithm() string { return p.keys.Active().Alg }

// IssueAccess issues an access JWT for userID. Returns the signed token, its
// jti, and the expiry. Issuance has no side effects.
func (p *TokenProvider) IssueAccess(userID string) (token, jti string, expiresAt time.Time, err error) {
	jti = uuid.New().String()
	now := time.Now().UTC()
	expiresAt = now.Add(p.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err = p.sign(claims)
	return token, jti, expiresAt, err
}

// IssueRefresh issues a refresh JWT for userID bound to sessionID. The caller
// must ensure the session record exists before handing the token to a client.
func (p *TokenProvider) IssueRefresh(userID, sessionID string) (token string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(p.refreshTTL)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID: sessionID,
	}
	token, err = p.sign(claims)
	return token, expiresAt, err
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	key := p.keys.Active()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = key.KID
	return t.SignedString(key.Secret)
}

// VerifyAccess checks signature, issuer, and expiry of an access token and
// returns its claims. Returns ErrTokenExpired for a structurally valid but
// expired token and ErrInvalidToken for every other failure.
func (p *TokenProvider) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := p.verify(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh checks signature, issuer, and expiry of a refresh token and
// returns its claims, including the bound session id.
func (p *TokenProvider) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := p.verify(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *TokenProvider) verify(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := p.keys.Lookup(kid)
		if !ok {
			return nil, ErrInvalidToken
		}
		return key.Secret, nil
	},
		jwt.WithValidMethods([]string{AlgHS256}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
