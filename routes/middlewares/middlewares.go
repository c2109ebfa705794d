package middlewares

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/oauth"
)

// Authenticated validates the bearer token and loads its claims into the
// request context.
func Authenticated(tokenSecret string) func(http.Handler) http.Handler {
	return oauth.Authorize(tokenSecret, nil)
}

// Admin gates a route on the 'admin' role claim. It must run after
// Authenticated.
func Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !HasRole(r, "admin") {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserID resolves the calling user's id from the token claims.
func UserID(r *http.Request) (int, bool) {
	claims, ok := r.Context().Value(oauth.ClaimsContext).(map[string]string)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(claims["user_id"])
	if err != nil {
		return 0, false
	}
	return id, true
}

func HasRole(r *http.Request, role string) bool {
	claims, ok := r.Context().Value(oauth.ClaimsContext).(map[string]string)
	if !ok {
		return false
	}
	for _, have := range strings.Split(claims["roles"], ",") {
		if have == role {
			return true
		}
	}
	return false
}
