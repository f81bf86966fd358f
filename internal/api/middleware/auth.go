package middleware

import (
	"context"
	"net/http"

	"trackmate/internal/api/util"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserIDFrom returns the authenticated user set by Authenticate.
func UserIDFrom(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

type AuthMiddleware struct {
	secret string
}

// NewAuthMiddleware verifies HS256 bearer tokens signed with secret. An
// empty secret switches to pass-through mode where the token is taken as
// the user ID directly; that mode exists for tests only.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: secret}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := util.BearerToken(r)
		if err != nil {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		userID := token
		if m.secret != "" {
			userID, err = util.ParseUserID(token, m.secret)
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
