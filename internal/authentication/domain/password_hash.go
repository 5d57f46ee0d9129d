package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters fixed by policy: m=15000 KiB, t=2, p=1, random salt per
// hash, version 0x13 (19).
const (
	argonMemoryKiB  = 15000
	argonIterations = 2
	argonThreads    = 1
	argonSaltLen    = 16
	argonKeyLen     = 32
)

// PasswordHash is an opaque Argon2id PHC string
// ($argon2id$v=19$m=...,t=...,p=...$salt$hash). Its string representation is
// always the PHC hash, never the plaintext that produced it.
type PasswordHash struct {
	phc string
}

// ParsePassword validates plaintext against the password policy (length
// 12-255, at least one upper/lower/digit/special byte) and, on success,
// hashes it with Argon2id.
func ParsePassword(plaintext Secret[string]) (PasswordHash, error) {
	p := plaintext.Expose()

	if len(p) < 12 {
		return PasswordHash{}, ValidationErr("password", "password must be at least 12 characters")
	}
	if len(p) > 255 {
		return PasswordHash{}, ValidationErr("password", "password must be at most 255 characters")
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for i := 0; i < len(p); i++ {
		b := p[i]
		switch {
		case b >= 'A' && b <= 'Z':
			hasUpper = true
		case b >= 'a' && b <= 'z':
			hasLower = true
		case b >= '0' && b <= '9':
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return PasswordHash{}, ValidationErr("password", "password must contain an uppercase letter, a lowercase letter, a digit, and a special character")
	}

	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return PasswordHash{}, InternalErr(fmt.Errorf("generate salt: %w", err))
	}
	return PasswordHash{phc: hashToPHC(p, salt)}, nil
}

// PasswordHashFromPHC wraps an already-encoded PHC string loaded back from
// storage, without re-validating the plaintext policy.
func PasswordHashFromPHC(phc string) PasswordHash {
	return PasswordHash{phc: phc}
}

func (h PasswordHash) String() string { return h.phc }

// Verify checks plaintext against this PHC hash in constant time. A
// malformed stored hash is reported as a verification failure, not a
// separate error.
func (h PasswordHash) Verify(plaintext Secret[string]) bool {
	salt, key, memKiB, iterations, threads, ok := parsePHC(h.phc)
	if !ok {
		return false
	}
	candidate := argon2.IDKey([]byte(plaintext.Expose()), salt, iterations, memKiB, threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(candidate, key) == 1
}

// DummyVerify runs a full Argon2id computation against a constant,
// never-matching hash so a miss on user lookup costs the same wall-clock
// time as a real verification, per validation-vs-oracle note.
func DummyVerify(plaintext Secret[string]) {
	PasswordHashFromPHC(dummyPHC).Verify(plaintext)
}

// dummyPHC is a fixed, valid-shaped PHC string with a salt and hash that no
// real password will ever satisfy; used only for timing parity.
const dummyPHC = "$argon2id$v=19$m=15000,t=2,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func hashToPHC(plaintext string, salt []byte) string {
	key := argon2.IDKey([]byte(plaintext), salt, argonIterations, argonMemoryKiB, argonThreads, argonKeyLen)
	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemoryKiB, argonIterations, argonThreads,
		b64.EncodeToString(salt), b64.EncodeToString(key))
}

// parsePHC decodes a $argon2id$v=..$m=..,t=..,p=..$salt$hash string.
func parsePHC(phc string) (salt, key []byte, memKiB uint32, iterations uint32, threads uint8, ok bool) {
	parts := strings.Split(phc, "$")
	// parts[0] == "" because phc starts with '$'
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, 0, 0, 0, false
	}
	var m, t, p int
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return nil, nil, 0, 0, 0, false
	}
	b64 := base64.RawStdEncoding
	s, err := b64.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, 0, 0, false
	}
	k, err := b64.DecodeString(parts[5])
	if err != nil {
		return nil, nil, 0, 0, 0, false
	}
	return s, k, uint32(m), uint32(t), uint8(p), true
}
