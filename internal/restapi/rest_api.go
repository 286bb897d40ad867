package restapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/mideind/straeto/internal/app"
	"github.com/mideind/straeto/internal/logging"
)

type RestAPI struct {
	*app.Application
	rateLimiter func(http.Handler) http.Handler
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter.
// A configured rate limit of zero turns limiting off.
func NewRestAPI(app *app.Application) *RestAPI {
	limit := app.Config.RateLimit
	if limit == 0 {
		limit = -1
	}
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(limit, time.Second, app.Config.RateLimitExemptKeys...),
	}
}

func (api *RestAPI) logger(r *http.Request) *slog.Logger {
	if api.Logger != nil {
		return api.Logger
	}
	return logging.FromContext(r.Context())
}

// Handler routes the API and wraps it in the middleware chain: security
// headers, request logging, rate limiting and compression. extra registers
// additional routes, such as the debug pages.
func (api *RestAPI) Handler(extra ...func(*httprouter.Router)) http.Handler {
	router := httprouter.New()
	api.SetRoutes(router)
	for _, register := range extra {
		register(router)
	}

	var handler http.Handler = router
	handler = CompressionMiddleware(handler)
	if api.rateLimiter != nil {
		handler = api.rateLimiter(handler)
	}

	logger := api.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var observers []func(int)
	if api.Metrics != nil {
		observers = append(observers, api.Metrics.RequestServed)
	}
	handler = NewRequestLoggingMiddleware(logger, observers...)(handler)

	return api.WithSecurityHeaders(handler)
}
