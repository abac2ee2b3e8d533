package impl

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

var otpMax = big.NewInt(1000000)

// GenerateOtp returns a uniformly random 6-digit code, zero-padded.
func GenerateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, otpMax)
	if err != nil {
		return "", fmt.Errorf("read otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// NewResetToken returns the raw token that goes into the reset link and the
// hash that goes into storage. Only the hash is ever persisted.
func NewResetToken() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("read token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, HashSecret(raw), nil
}

// HashSecret is the fast one-way hash used for OTPs and reset tokens.
func HashSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func secretsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
