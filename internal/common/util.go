package common

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandBytes returns n bytes read from crypto/rand.
func GenerateRandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// MakeRandHexString generates a random hexadecimal string of the given size.
// The result is twice as long as size since each byte is encoded as two hex
// characters.
func MakeRandHexString(size int) (string, error) {
	b, err := GenerateRandBytes(size)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray overwrites the contents of b with zeros. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
