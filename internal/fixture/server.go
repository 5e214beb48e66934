// Package fixture serves a local replica of the home and about pages so the
// suite can run without reaching the public site.
package fixture

import (
	"embed"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

//go:embed pages/*.html
var pages embed.FS

// NewRouter returns the replica's routes. "/about" redirects to "/about/"
// the way the public site does.
func NewRouter(logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter().StrictSlash(true)
	r.HandleFunc("/", page("pages/home.html")).Methods(http.MethodGet)
	r.HandleFunc("/about/", page("pages/about.html")).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	r.Use(logRequests(logger))
	return r
}

// NewServer wraps the replica router in an http.Server listening on addr.
func NewServer(addr string, logger *zap.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := pages.ReadFile(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(body)
	}
}

func logRequests(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("fixture request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
