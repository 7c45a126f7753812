package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const userIDKey contextKey = "userId"

// authMiddleware validates the bearer token and stores the user id in the
// request context. User accounts themselves live in an external system; only
// the signed claim is trusted here.
func authMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := userIDFromToken(bearerToken(r), secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Websocket clients can't set headers from the browser; allow the token
	// as a query parameter there.
	return r.URL.Query().Get("token")
}

func userIDFromToken(tokenString, secret string) (int64, error) {
	if tokenString == "" {
		return 0, fmt.Errorf("missing token")
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("invalid token claims")
	}
	rawUserID, ok := claims["userId"].(float64)
	if !ok {
		return 0, fmt.Errorf("token missing userId claim")
	}
	return int64(rawUserID), nil
}

// userIDFrom returns the authenticated user id placed by authMiddleware.
func userIDFrom(r *http.Request) int64 {
	userID, _ := r.Context().Value(userIDKey).(int64)
	return userID
}
