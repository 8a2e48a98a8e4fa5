package utils

import (
	"errors"
	"time"

	"github.com/civicfix/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID     uuid.UUID   `json:"user_id"`
	Phone      string      `json:"phone"`
	Role       models.Role `json:"role"`
	Department string      `json:"department"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secret     []byte
	expireHour int
}

func NewJWTManager(secret string, expireHour int) *JWTManager {
	return &JWTManager{
		secret:     []byte(secret),
		expireHour: expireHour,
	}
}

func (m *JWTManager) AccessTokenTTL() time.Duration {
	return time.Duration(m.expireHour) * time.Hour
}

func (m *JWTManager) GenerateToken(user *models.User) (string, error) {
	return m.generate(user, m.AccessTokenTTL())
}

// GenerateRefreshToken issues a longer-lived token with the same claims.
func (m *JWTManager) GenerateRefreshToken(user *models.User) (string, error) {
	return m.generate(user, 7*24*time.Hour)
}

func (m *JWTManager) generate(user *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:     user.ID,
		Phone:      user.Phone,
		Role:       user.Role,
		Department: user.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
