// Package restapi serves built timetables as JSON.
package restapi

import (
	"net/http"
	"time"

	"timetables.bustimes.org/internal/app"
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI creates a RestAPI limiting each API key to the configured
// requests per second.
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second),
	}
}

// Handler is the full server handler: routes behind request logging,
// security headers, compression and rate limiting.
func (api *RestAPI) Handler() http.Handler {
	var handler http.Handler = api.SetRoutes()
	if api.rateLimiter != nil {
		handler = api.rateLimiter.Handler(handler)
	}
	handler = CompressionMiddleware(handler)
	handler = securityHeaders(handler)
	return NewRequestLoggingMiddleware(api.Logger)(handler)
}

// Shutdown stops background work owned by the API.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}
