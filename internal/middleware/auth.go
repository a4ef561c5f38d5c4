package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/timevault-dev/timevault/internal/domain"
	"github.com/timevault-dev/timevault/internal/logger"
)

// Key to store the viewer id in the request context
type key int

const ViewerKey key = 0

// Auth verifies externally-issued access tokens and extracts the viewer
// identity. Token issuance and rotation live in the external auth
// service; this middleware only decodes.
type Auth struct {
	secretKey string
}

func NewAuth(secretKey string) *Auth {
	return &Auth{secretKey: secretKey}
}

// RequireAuth rejects requests without a valid token.
func (a *Auth) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, err := a.extractViewer(r)
			if err != nil {
				http.Error(w, "Please sign-in", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ViewerKey, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth populates the viewer when a valid token is present but
// lets anonymous requests through.
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if viewer, err := a.extractViewer(r); err == nil {
				ctx := context.WithValue(r.Context(), ViewerKey, viewer)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Auth) extractViewer(r *http.Request) (domain.UserId, error) {
	// Cookie first (browser clients), then Authorization header
	var tokenString string
	accessCookie, err := r.Cookie("accessToken")
	if err == nil {
		tokenString = accessCookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}

	if tokenString == "" {
		return "", errNoToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidClaims
		}
		return []byte(a.secretKey), nil
	})
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		logger.Log.Error("invalid jwt claims")
		return "", errInvalidClaims
	}

	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return "", errInvalidClaims
	}

	return uid, nil
}

var (
	errNoToken       = errorString("no token")
	errInvalidToken  = errorString("invalid token")
	errInvalidClaims = errorString("invalid claims")
)

type errorString string

func (e errorString) Error() string { return string(e) }

// GetViewerFromContext returns the authenticated viewer id, or nil for
// anonymous requests.
func GetViewerFromContext(r *http.Request) *domain.UserId {
	viewer, ok := r.Context().Value(ViewerKey).(domain.UserId)
	if !ok {
		return nil
	}
	return &viewer
}
