package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/dwaller/dicentis-bridge/pkg/hasher"
)

const tokenLifetime = 24 * time.Hour

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// postToken exchanges the configured API credentials for a bearer token.
// Only available when an API secret is configured; without one the API is
// open and the endpoint has nothing to mint.
func (s *server) postToken(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Secret == "" {
		http.Error(w, "authentication is not configured", http.StatusNotFound)
		return
	}
	payload, err := unmarshalPayload[tokenRequest](r)
	if err != nil {
		handleError(w, err)
		return
	}
	if payload.Username != s.cfg.Username ||
		!hasher.PasswordCorrect(payload.Password, s.cfg.PasswordHash) {
		s.logger.Warn("rejected token request", zap.String("username", payload.Username))
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	claims := jwt.RegisteredClaims{
		Subject:   payload.Username,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// authMiddleware enforces bearer auth when a secret is configured and is a
// pass-through otherwise.
func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Secret == "" {
			next.ServeHTTP(w, r)
			return
		}
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		_, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(s.cfg.Secret), nil
		})
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
