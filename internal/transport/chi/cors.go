package chi

import "net/http"

// CORSConfig holds the values of the Access-Control-Allow-* headers.
type CORSConfig struct {
	AllowOrigin  string
	AllowHeaders string
	AllowMethods string
}

// DefaultCORSConfig allows browser clients from any origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigin:  "*",
		AllowHeaders: "authorization, x-client-info, apikey, content-type",
		AllowMethods: "GET, POST, OPTIONS",
	}
}

// CORSMiddleware sets CORS headers on every response and answers preflight
// requests with 200 before auth and routing run.
func CORSMiddleware(cfg CORSConfig) func(http.Handler) http.Handler {
	def := DefaultCORSConfig()
	if cfg.AllowOrigin == "" {
		cfg.AllowOrigin = def.AllowOrigin
	}
	if cfg.AllowHeaders == "" {
		cfg.AllowHeaders = def.AllowHeaders
	}
	if cfg.AllowMethods == "" {
		cfg.AllowMethods = def.AllowMethods
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", cfg.AllowOrigin)
			h.Set("Access-Control-Allow-Headers", cfg.AllowHeaders)
			h.Set("Access-Control-Allow-Methods", cfg.AllowMethods)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
