package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/settlement-go/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// MerchantIDKey is the context key for the authenticated merchant.
const MerchantIDKey contextKey = "merchant_id"

// GetMerchantID extracts the merchant ID from the context.
// Returns empty string if not found.
func GetMerchantID(ctx context.Context) string {
	merchantID, _ := ctx.Value(MerchantIDKey).(string)
	return merchantID
}

// WithMerchantID returns ctx carrying merchantID.
func WithMerchantID(ctx context.Context, merchantID string) context.Context {
	return context.WithValue(ctx, MerchantIDKey, merchantID)
}

// RequireAuth rejects requests without a valid bearer token with 401 and adds
// the token's merchant to the request context.
func RequireAuth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, auth.ErrMissingToken.Error(), http.StatusUnauthorized)
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || scheme != "Bearer" || token == "" {
				http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.Validate(token)
			if err != nil {
				slog.Debug("Rejected bearer token", "path", r.URL.Path, "error", err)
				http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithMerchantID(r.Context(), claims.MerchantID)))
		})
	}
}
