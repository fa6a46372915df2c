package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/regalator/wms/pkg/auth"
	"github.com/regalator/wms/pkg/httpx"
	"github.com/regalator/wms/pkg/logger"
)

type contextKey string

const (
	OperatorIDKey contextKey = "operator_id"
	UsernameKey   contextKey = "username"
	RoleKey       contextKey = "role"
)

// AuthMiddleware validates the bearer token and puts the operator identity
// into the request context
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httpx.RespondError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httpx.RespondError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			logger.Warn(r.Context()).Err(err).Msg("Invalid token")
			httpx.RespondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), OperatorIDKey, claims.OperatorID)
		ctx = context.WithValue(ctx, UsernameKey, claims.Username)
		ctx = context.WithValue(ctx, RoleKey, claims.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OperatorIDFromContext returns the authenticated operator id, or 0
func OperatorIDFromContext(ctx context.Context) uint {
	if id, ok := ctx.Value(OperatorIDKey).(uint); ok {
		return id
	}
	return 0
}
