package web

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const sessionCookie = "bunker_session"

var errNoSession = errors.New("web: no usable session cookie")

// issueCookie binds the store key to the browser via a signed token so a
// forged cookie cannot name someone else's portal session.
func (s *Server) issueCookie(c *fiber.Ctx, sid string) error {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return fmt.Errorf("web: sign session cookie: %w", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    signed,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  now.Add(s.ttl),
	})
	return nil
}

func (s *Server) sessionID(c *fiber.Ctx) (string, error) {
	raw := c.Cookies(sessionCookie)
	if raw == "" {
		return "", errNoSession
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", errNoSession
	}
	return claims.Subject, nil
}

func (s *Server) clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		HTTPOnly: true,
		Expires:  time.Now().Add(-time.Hour),
	})
}
