package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
	// MaxUploadBytes caps the total request body size for uploads.
	// Zero means no explicit cap beyond the multipart memory limit.
	MaxUploadBytes int64
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
		MaxUploadBytes: 256 << 20,
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	// Register routes with method-based patterns (Go 1.22+)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /videos", h.CreateVideo)
	mux.HandleFunc("GET /videos/{id}", h.GetVideo)
	mux.HandleFunc("GET /videos/{id}/download", h.DownloadVideo)

	// Apply middleware chain
	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		MaxBytesMiddleware(cfg.MaxUploadBytes),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
