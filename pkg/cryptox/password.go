package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for newly hashed passwords. Verification reads the
// parameters back out of the stored hash.
const (
	argonMemory  = 19 * 1024 // KiB
	argonTime    = 2
	argonThreads = 1
	argonKeyLen  = 32
	argonSaltLen = 16
)

// ErrPasswordMismatch is returned by VerifyPassword for a well-formed hash
// that does not match the supplied password.
var ErrPasswordMismatch = errors.New("password does not match")

// Hasher hashes and verifies passwords with Argon2id. The pepper is appended
// to every password before hashing; it is injected by the caller rather than
// read from the environment.
type Hasher struct {
	Pepper string
}

// argonHash is a decoded $argon2id$v=19$m=..,t=..,p=..$salt$key string.
type argonHash struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func (a argonHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.memory, a.time, a.threads,
		base64.RawStdEncoding.EncodeToString(a.salt),
		base64.RawStdEncoding.EncodeToString(a.key),
	)
}

func decodeArgonHash(encoded string) (argonHash, error) {
	// ["", "argon2id", "v=19", "m=..,t=..,p=..", salt, key]
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return argonHash{}, errors.New("invalid hash format: expected 6 parts")
	}
	if parts[1] != "argon2id" {
		return argonHash{}, errors.New("invalid hash format: not argon2id")
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return argonHash{}, errors.New("invalid hash format: wrong version")
	}

	var h argonHash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memory, &h.time, &h.threads); err != nil {
		return argonHash{}, fmt.Errorf("invalid hash format: failed to parse parameters: %w", err)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return argonHash{}, fmt.Errorf("invalid hash format: failed to decode salt: %w", err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return argonHash{}, fmt.Errorf("invalid hash format: failed to decode hash: %w", err)
	}
	return h, nil
}

// HashPassword returns a PHC-format Argon2id hash with a fresh random salt.
func (h Hasher) HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	return argonHash{
		memory:  argonMemory,
		time:    argonTime,
		threads: argonThreads,
		salt:    salt,
		key:     argon2.IDKey([]byte(password+h.Pepper), salt, argonTime, argonMemory, argonThreads, argonKeyLen),
	}.String(), nil
}

// VerifyPassword checks password against an encoded hash. A malformed hash
// is an error distinct from ErrPasswordMismatch.
func (h Hasher) VerifyPassword(password, encodedHash string) error {
	stored, err := decodeArgonHash(encodedHash)
	if err != nil {
		return err
	}

	computed := argon2.IDKey(
		[]byte(password+h.Pepper),
		stored.salt,
		stored.time,
		stored.memory,
		stored.threads,
		uint32(len(stored.key)), // #nosec G115 - key length comes from our own encoding
	)

	if subtle.ConstantTimeCompare(computed, stored.key) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}
