package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// stretchIterations follows the reference's intent of making offline
// guessing of a leaked hash expensive; tuned for a server login path
// rather than an interactive one.
const stretchIterations = 100_000

const saltLen = 16

// StretchPassword derives a PwHash from a plaintext password, generating a
// fresh random salt. This happens once, client-side conceptually, at
// enrollment: the server never sees the plaintext password, only this
// stretched hash (sent over the already-established transport encryption).
func StretchPassword(password string) (PwHash, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return PwHash{}, fmt.Errorf("generating password salt: %w", err)
	}
	hash := pbkdf2.Key([]byte(password), salt, stretchIterations, sha256.Size, sha256.New)
	return PwHash{Salt: salt, Hash: hash}, nil
}

// VerifyStretch reports whether password stretches to the same hash under
// pwh's salt. Used only by tests; live logins go through the SRP exchange in srp.go, which never sees the
// plaintext password at all.
func VerifyStretch(password string, pwh PwHash) bool {
	hash := pbkdf2.Key([]byte(password), pwh.Salt, stretchIterations, sha256.Size, sha256.New)
	if len(hash) != len(pwh.Hash) {
		return false
	}
	for i := range hash {
		if hash[i] != pwh.Hash[i] {
			return false
		}
	}
	return true
}
