package services

import (
	"errors"

	"martinspocos/config"

	logger "github.com/Bparsons0904/goLogger"
	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordMismatch = errors.New("password mismatch")

type PasswordService struct {
	cost int
	log  logger.Logger
}

func NewPasswordService(config config.Config) *PasswordService {
	cost := config.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordService{
		cost: cost,
		log:  logger.New("PasswordService"),
	}
}

func (s *PasswordService) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", s.log.Function("Hash").Err("failed to hash password", err)
	}
	return string(hash), nil
}

// Compare returns ErrPasswordMismatch for a wrong password and for a
// malformed hash alike.
func (s *PasswordService) Compare(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.log.Function("Compare").Warn("stored password hash is unusable", "error", err)
		}
		return ErrPasswordMismatch
	}
	return nil
}
