package services

import (
	"fmt"
	"time"

	"martinspocos/config"
	"martinspocos/internal/apperrors"
	. "martinspocos/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "martinspocos"

type TokenClaims struct {
	UserID   string `json:"id"`
	Name     string `json:"name"`
	Whatsapp string `json:"whatsapp"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
	log    logger.Logger
}

func NewTokenService(config config.Config) *TokenService {
	return &TokenService{
		secret: []byte(config.JWTSecret),
		expiry: time.Duration(config.JWTExpiryHours) * time.Hour,
		now:    time.Now,
		log:    logger.New("TokenService"),
	}
}

func (s *TokenService) Issue(principal *Principal) (string, error) {
	log := s.log.Function("Issue")

	now := s.now().UTC()
	claims := &TokenClaims{
		UserID:   principal.ID.String(),
		Name:     principal.Name,
		Whatsapp: principal.Whatsapp,
		Role:     principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   principal.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", log.Err("failed to sign token", err, "principalID", principal.ID)
	}

	return signed, nil
}

// Verify returns an unauthorized AppError for any token that is malformed,
// expired or signed with anything but our HMAC secret.
func (s *TokenService) Verify(tokenString string) (*Principal, error) {
	log := s.log.Function("Verify")

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		log.Debug("token rejected", "error", err)
		return nil, apperrors.NewUnauthorizedError("Invalid or expired token")
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Invalid or expired token")
	}

	switch claims.Role {
	case RoleUser, RoleSales, RoleSupervisor:
	default:
		return nil, apperrors.NewUnauthorizedError("Invalid or expired token")
	}

	return &Principal{
		ID:       id,
		Name:     claims.Name,
		Whatsapp: claims.Whatsapp,
		Role:     claims.Role,
	}, nil
}
