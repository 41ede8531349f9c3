package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"taskhive.org/internal/access"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/login",
	"/v1/auth/refresh",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.issuer == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="taskhive"`)
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := a.issuer.VerifyAccess(token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="taskhive", error="invalid_token"`)
			writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		role, ok := access.ParseRole(claims.Role)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="taskhive", error="invalid_token"`)
			writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		caller := access.Caller{
			ID:         claims.Subject,
			Role:       role,
			Department: claims.Department,
		}
		ctx := access.ContextWithCaller(r.Context(), caller)
		ctx = access.ContextWithSessionID(ctx, claims.SessionID)

		// Any authenticated request counts as activity. The touch is
		// coalesced inside the clock and must not fail the request.
		if a.clock != nil && claims.SessionID != "" {
			_ = a.clock.Observe(ctx, claims.SessionID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a handler on an exact role. It runs after withAuth and
// trusts the caller placed in the context.
func RequireRole(role access.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := access.CallerFromContext(r.Context())
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="taskhive"`)
				writeError(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			if caller.Role != role {
				w.Header().Set("WWW-Authenticate", `Bearer realm="taskhive", error="insufficient_scope"`)
				writeError(w, r, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
