package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/dmitrijs2005/kbcenter/internal/common"
	"github.com/dmitrijs2005/kbcenter/internal/server/models"
)

type ctxKey string

const sessionKey ctxKey = "session"

// SessionFromContext returns the session stored by the auth middleware.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*models.Session)
	return s, ok && s != nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(common.AuthorizationHeaderName)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requireSession rejects requests without a valid bearer token.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(r.Context(), w, s.logger, oops.
				Code("TOKEN_MISSING").
				Wrap(common.ErrFailTokenDecryption))
			return
		}

		session, err := s.accounts.Authenticate(token)
		if err != nil {
			writeError(r.Context(), w, s.logger, err)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// instrument records status and latency per route pattern and logs each
// request at debug level.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		s.metrics.ObserveRequest(route, r.Method, status, elapsed)
		s.logger.Debug(r.Context(), "http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"elapsed", elapsed,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
