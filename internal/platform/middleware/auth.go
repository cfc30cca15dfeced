package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
)

// TokenValidator validates issuer-side bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*IssuerClaims, error)
}

// IssuerClaims are the claims the issuer routes rely on.
type IssuerClaims struct {
	Subject string
	Scopes  []string
}

// HasScope reports whether the claims grant scope.
func (c *IssuerClaims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

type issuerKey struct{}

// GetIssuer retrieves the authenticated issuer subject from the context.
func GetIssuer(ctx context.Context) string {
	if sub, ok := ctx.Value(issuerKey{}).(string); ok {
		return sub
	}
	return ""
}

// RequireIssuer guards issuer-side routes (exchange management and review).
// A nil validator disables the check.
func RequireIssuer(validator TokenValidator, scope string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if validator == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			if scope != "" && !claims.HasScope(scope) {
				logger.WarnContext(ctx, "forbidden - missing scope",
					"scope", scope,
					"subject", claims.Subject,
					"request_id", requestID,
				)
				writeAuthError(w, http.StatusForbidden, "forbidden", "Token lacks required scope")
				return
			}

			ctx = context.WithValue(ctx, issuerKey{}, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + code + `","error_description":"` + description + `","errors":["` + description + `"]}`))
}
