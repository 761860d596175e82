package project

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const (
	idLength   = 7
	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var idPattern = regexp.MustCompile(`^[a-z0-9]{7}$`)

// ValidID reports whether id has the shape of a generated project id.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// NewID returns a random 7-character lowercase alphanumeric identifier.
func NewID() (string, error) {
	buf := make([]byte, idLength)
	limit := big.NewInt(int64(len(idAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate project id: %w", err)
		}
		buf[i] = idAlphabet[n.Int64()]
	}
	return string(buf), nil
}
