package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/watchwallet/gateway/internal/chainrouter"
	"github.com/watchwallet/gateway/internal/priceagg"
	"github.com/watchwallet/gateway/internal/ratelimiter"
	"github.com/watchwallet/gateway/internal/registry"
)

// Version is the static app-version descriptor served at GET /version.
type Version struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Server holds everything the HTTP handlers dispatch through. It is built
// once at composition-root time from already-wired components; no field
// is lazily initialized.
type Server struct {
	Router    *chainrouter.Router
	Registry  *registry.Registry
	Prices    *priceagg.Aggregator
	Limiter   ratelimiter.Limiter
	Logger    *zap.Logger
	Version   Version
	Docs      map[string]map[string]string // type -> lang -> markdown
}

// NewHTTPServer builds the *http.Server, with chi routing and the full
// middleware chain (request logging, recovery, rate limiting).
func (s *Server) NewHTTPServer(addr string) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(zapRequestLogger(s.Logger))
	r.Use(ratelimiter.Middleware(s.Limiter))

	s.routes(r)

	return &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func zapRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
