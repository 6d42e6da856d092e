package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers unknown admins and bad passwords alike;
// callers get no hint which one it was.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service issues and verifies the admin bearer token. Admin identity
// comes from configuration: a single email plus a bcrypt password
// hash. An empty hash disables login entirely.
type Service struct {
	secret     []byte
	ttl        time.Duration
	adminEmail string
	adminHash  string
}

// NewService creates an auth service.
func NewService(secret string, ttl time.Duration, adminEmail, adminHash string) *Service {
	return &Service{
		secret:     []byte(secret),
		ttl:        ttl,
		adminEmail: adminEmail,
		adminHash:  adminHash,
	}
}

// Login checks credentials and returns a signed token.
func (s *Service) Login(email, password string) (string, error) {
	if s.adminHash == "" || email != s.adminEmail {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"sub":  email,
		"role": "admin",
		"exp":  time.Now().Add(s.ttl).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses the token and returns the admin identity.
func (s *Service) Verify(tokenString string) (string, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidCredentials
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidCredentials
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidCredentials
	}
	return sub, nil
}

// HashPassword produces a bcrypt hash for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
