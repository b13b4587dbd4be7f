package services

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLen  = 6
	recoveryCodeLen = 6
	digits          = "0123456789"
)

// HashPassword returns a bcrypt hash. Do not log the plain password.
func HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(h), nil
}

// CheckPassword reports whether plain matches a bcrypt hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// GenerateRecoveryCode returns a 6-digit code from crypto/rand.
func GenerateRecoveryCode() (string, error) {
	result := make([]byte, recoveryCodeLen)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", errors.Wrap(err, "recovery code")
		}
		result[i] = digits[n.Int64()]
	}
	return string(result), nil
}
