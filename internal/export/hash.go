package export

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/crypto/argon2"
)

// ErrUnsupportedHashType is returned for an unknown hash algorithm name.
var ErrUnsupportedHashType = errors.New("unsupported hash type")

// HashType represents the different hashing algorithms available.
type HashType string

const (
	// HashTypeArgon2id uses the Argon2id algorithm for hashing.
	HashTypeArgon2id HashType = "argon2id"
	// HashTypeSHA256 uses the SHA256 algorithm for hashing.
	HashTypeSHA256 HashType = "sha256"
)

// ParseHashType validates a hash algorithm name.
func ParseHashType(name string) (HashType, error) {
	switch HashType(name) {
	case HashTypeArgon2id, HashTypeSHA256:
		return HashType(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedHashType, name)
	}
}

// HashValue hashes an identifier with the salt. Memory is in MiB and only
// used by Argon2id.
func HashValue(value []byte, salt string, hashType HashType, iterations, memory uint32) string {
	var hash []byte

	switch hashType {
	case HashTypeArgon2id:
		hash = argon2.IDKey(value, []byte(salt), iterations, memory*1024, 1, 32)
	case HashTypeSHA256:
		// Iterative SHA256 hashing with salt
		hash = []byte(salt)

		h := sha256.New()
		for range iterations {
			h.Reset()
			h.Write(value)
			h.Write(hash)
			hash = h.Sum(nil)
		}
	}

	return hex.EncodeToString(hash)
}

// hashValues hashes every value using at most concurrency goroutines.
// The result is index aligned with values.
func hashValues(values [][]byte, salt string, hashType HashType, concurrency int, iterations, memory uint32) []string {
	hashes := make([]string, len(values))
	if len(values) == 0 {
		return hashes
	}

	p := pool.New().WithMaxGoroutines(min(max(concurrency, 1), len(values)))
	for i, value := range values {
		p.Go(func() {
			hashes[i] = HashValue(value, salt, hashType, iterations, memory)
		})
	}
	p.Wait()

	return hashes
}
