package server

import (
	"context"
	"net/http"
)

type ctxKey int

const ctxKeyUser ctxKey = iota

// authMiddleware resolves the session cookie to a user and stores it in
// the request context. Routes behind it can rely on userFrom.
func authMiddleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := userFromRequest(r, store)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userFrom(r *http.Request) userSession {
	return r.Context().Value(ctxKeyUser).(userSession)
}
