package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/sheetscribe/internal/api/response"
	"golang.org/x/crypto/bcrypt"
)

// Auth checks the bearer token of trigger requests against a bcrypt hash.
type Auth struct {
	tokenHash []byte
}

// NewAuth creates a new Auth middleware. tokenHash is the bcrypt hash of the
// shared trigger token.
func NewAuth(tokenHash string) *Auth {
	return &Auth{tokenHash: []byte(tokenHash)}
}

// Authenticate validates the Bearer token and records the caller in the
// request context for rate limiting.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized,
				response.CodeInvalidToken, "Missing or invalid Authorization header", nil)
			return
		}

		if len(a.tokenHash) == 0 || bcrypt.CompareHashAndPassword(a.tokenHash, []byte(token)) != nil {
			response.Error(w, http.StatusUnauthorized,
				response.CodeInvalidToken, "Invalid trigger token", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(setCaller(r.Context(), clientHost(r))))
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
