package main

import (
	"net/http"

	"github.com/rs/zerolog"

	"cinetrack/internal/http/middleware"
)

// newHandler wraps routes in the process-wide middleware. CORS sits outside
// the router so preflight requests never reach route matching.
func newHandler(allowedOrigins []string, logger zerolog.Logger, routes http.Handler) http.Handler {
	handler := middleware.Recovery(logger)(routes)
	handler = middleware.RequestLogging(logger)(handler)
	return middleware.CORS(allowedOrigins)(handler)
}
