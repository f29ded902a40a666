package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/cuido/cuidosvc/domain"
)

// ErrPasswordTooLong is returned for passwords bcrypt would silently truncate.
var ErrPasswordTooLong = domain.NewValidationError("password must be at most 72 bytes")

// BcryptHasher hashes account passwords with bcrypt.
type BcryptHasher struct {
	cost int
}

func NewPasswordService() *BcryptHasher {
	return NewPasswordServiceWithCost(bcrypt.DefaultCost)
}

// NewPasswordServiceWithCost falls back to bcrypt.DefaultCost when cost is
// out of range. Tests use bcrypt.MinCost.
func NewPasswordServiceWithCost(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. Malformed hashes never match.
func (h *BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var _ domain.PasswordService = (*BcryptHasher)(nil)
