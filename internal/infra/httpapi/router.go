package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Deps is everything the HTTP surface talks to.
type Deps struct {
	Hook          EntryHook
	FollowUps     FollowUps
	Subscriptions SubscriptionSaver
	HookSecret    string // empty disables the X-Hook-Secret check
	Logger        *logrus.Entry
}

func NewRouter(d Deps) http.Handler {
	h := &handlers{
		hook:       d.Hook,
		followUps:  d.FollowUps,
		subs:       d.Subscriptions,
		hookSecret: d.HookSecret,
		logger:     d.Logger.WithField("component", "http"),
		now:        time.Now,
	}
	return newRouter(h)
}

func newRouter(h *handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(h.logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", h.health)
	router.Post("/hooks/entry-created", h.entryCreated)
	router.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/follow-ups/next", h.nextFollowUp)
		r.Get("/follow-ups/cancelled", h.followUpsCancelled)
		r.Post("/follow-ups/cancel", h.cancelFollowUps)
		r.Post("/push-subscriptions", h.subscribe)
	})

	return router
}

// requestLogger logs one line per request through logrus.
func requestLogger(logger *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.WithFields(logrus.Fields{
					"request_id":  middleware.GetReqID(r.Context()),
					"method":      r.Method,
					"path":        r.URL.Path,
					"status":      ww.Status(),
					"bytes":       ww.BytesWritten(),
					"duration_ms": time.Since(start).Milliseconds(),
				}).Debug("HTTP request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
