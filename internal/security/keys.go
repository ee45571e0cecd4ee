package security

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey is returned when signing key configuration cannot be parsed.
var ErrInvalidKey = errors.New("invalid signing key")

// AlgHS256 is the only signing algorithm currently issued. The key carries
// the algorithm tag so verification can support additional algorithms later.
const AlgHS256 = "HS256"

const minSecretLen = 32

// SigningKey is one symmetric signing key. Keys are explicit configuration
// values passed into the TokenProvider at construction, never read from
// ambient process state.
type SigningKey struct {
	KID    string
	Alg    string
	Secret []byte
}

// KeySet holds the active signing key plus older keys kept for verification.
// Rotation introduces a new active key while tokens signed with previous keys
// keep verifying by their kid header until they expire.
type KeySet struct {
	active SigningKey
	byKID  map[string]SigningKey
}

// NewKeySet returns a KeySet with the first key active and every key
// available for verification. Keys must have unique, non-empty kids and
// secrets of at least 32 bytes.
func NewKeySet(keys ...SigningKey) (*KeySet, error) {
	if len(keys) == 0 {
		return nil, ErrInvalidKey
	}
	byKID := make(map[string]SigningKey, len(keys))
	for _, k := range keys {
		if k.KID == "" || len(k.Secret) < minSecretLen {
			return nil, ErrInvalidKey
		}
		if k.Alg == "" {
			k.Alg = AlgHS256
		}
		if k.Alg != AlgHS256 {
			return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidKey, k.Alg)
		}
		if _, dup := byKID[k.KID]; dup {
			return nil, fmt.Errorf("%w: duplicate kid %q", ErrInvalidKey, k.KID)
		}
		byKID[k.KID] = k
	}
	active := keys[0]
	if active.Alg == "" {
		active.Alg = AlgHS256
	}
	return &KeySet{active: active, byKID: byKID}, nil
}

// ParseKeySet parses signing key configuration of the form
// "kid1:base64secret,kid2:base64secret". The first entry becomes the active
// signing key; the rest are verification-only.
func ParseKeySet(s string) (*KeySet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	var keys []SigningKey
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kid, encoded, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%w: entry %q must be kid:base64secret", ErrInvalidKey, part)
		}
		secret, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
		if err != nil {
			return nil, fmt.Errorf("%w: secret for kid %q is not base64", ErrInvalidKey, kid)
		}
		keys = append(keys, SigningKey{KID: strings.TrimSpace(kid), Alg: AlgHS256, Secret: secret})
	}
	return NewKeySet(keys...)
}

// Active returns the key used to sign new tokens.
func (ks *KeySet) Active() SigningKey { return ks.active }

// Lookup returns the key for kid and whether it exists.
func (ks *KeySet) Lookup(kid string) (SigningKey, bool) {
	k, ok := ks.byKID[kid]
	return k, ok
}
