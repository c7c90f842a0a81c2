package middleware

import (
	"context"
	"net/http"
	"strings"

	"projex/backend/logging"
	"projex/backend/utils"
)

// ContextKey is the type for context keys in this package.
type ContextKey string

// AccountIDKey is the context key for the authenticated account id.
const AccountIDKey ContextKey = "account_id"

// AccountFromContext retrieves the authenticated account id from the request
// context. Returns empty string if not set.
func AccountFromContext(ctx context.Context) string {
	if v := ctx.Value(AccountIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// JWTAuthMiddleware rejects requests without a valid bearer token and injects
// the token's account id into the request context for ownership checks.
func JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
			http.Error(w, "Authorization header missing", http.StatusUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateToken(tokenStr)
		if err != nil {
			logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), AccountIDKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
