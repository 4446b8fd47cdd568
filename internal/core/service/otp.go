package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

// generateOTP returns a uniformly random numeric code of the given length and
// its sha256 hex digest. Only the digest is ever persisted.
func generateOTP(length int) (code, digest string, err error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", "", fmt.Errorf("generate otp: %w", err)
	}
	code = fmt.Sprintf("%0*d", length, n)
	return code, hashOTP(code), nil
}

// hashOTP computes the stored form of a code.
func hashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// verifyOTP compares a submitted code against a stored digest without
// short-circuiting on the first differing byte.
func verifyOTP(code, storedDigest string) bool {
	return subtle.ConstantTimeCompare([]byte(hashOTP(code)), []byte(storedDigest)) == 1
}
