package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("invalid token")
)

type Service struct {
	JWTSecret     []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func (s *Service) IssueAccess(userID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(s.AccessTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.JWTSecret)
}

func (s *Service) IssueRefresh(userID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(s.RefreshTTL).Unix(),
		"typ": "refresh",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.RefreshSecret)
}

// ParseAccess returns the user id carried by a valid access token. Expired
// tokens are reported as ErrExpired so the middleware can answer with a
// distinguished reason.
func (s *Service) ParseAccess(raw string) (uuid.UUID, error) {
	return parse(raw, s.JWTSecret, "")
}

func (s *Service) ParseRefresh(raw string) (uuid.UUID, error) {
	return parse(raw, s.RefreshSecret, "refresh")
}

func parse(raw string, secret []byte, wantTyp string) (uuid.UUID, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrExpired
		}
		return uuid.Nil, ErrInvalid
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok || !t.Valid {
		return uuid.Nil, ErrInvalid
	}
	if wantTyp != "" {
		if typ, _ := claims["typ"].(string); typ != wantTyp {
			return uuid.Nil, ErrInvalid
		}
	}

	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrInvalid
	}
	return id, nil
}
