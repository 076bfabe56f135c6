package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ChutneyCheeseball/blabber/internal/common"
	"github.com/ChutneyCheeseball/blabber/internal/server/auth"
	"github.com/ChutneyCheeseball/blabber/internal/server/models"
)

type ctxKey string

const verifiedUserKey ctxKey = "verifiedUser"

// UserFromContext returns the identity the guard attached to the request.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(verifiedUserKey).(*models.User)
	return u, ok
}

// guard authenticates a request before any protected handler runs. Three
// stages: bearer token extraction and verification, then re-resolving the
// token's subject against the store. Claims alone are not trusted as proof
// of current account validity; the account could have been removed after
// the token was issued, so the guard always performs this one extra lookup.
//
// Every rejection writes the response and returns without calling next:
// a rejected request must never reach the handler or cause side effects.
func (s *Server) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			writeMessage(w, http.StatusUnauthorized, "Authentication error")
			return
		}

		claims, err := auth.ParseToken(strings.TrimPrefix(header, common.BearerPrefix), s.jwtSecret)
		if err != nil {
			s.logger.Warn(r.Context(), "token rejected", "error", err)
			writeMessage(w, http.StatusUnauthorized, "Authentication error")
			return
		}

		// Bounded lookup: a slow store must not stall request handling
		// indefinitely.
		ctx, cancel := context.WithTimeout(r.Context(), s.lookupTimeout)
		defer cancel()

		user, err := s.identities.GetByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				s.logger.Warn(r.Context(), "token subject no longer exists", "user_id", claims.UserID)
				writeMessage(w, http.StatusUnauthorized, "Unknown user")
				return
			}
			s.logger.Error(r.Context(), "guard identity lookup failed", "error", err)
			writeMessage(w, http.StatusInternalServerError, "Database error")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), verifiedUserKey, user)))
	})
}
