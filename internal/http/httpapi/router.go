package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"mediadetect/internal/http/handlers"
	"mediadetect/internal/middleware"
)

// Options carries the router's non-handler dependencies.
type Options struct {
	Logger          zerolog.Logger
	CORSOrigins     []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
	// PublishedDir is served read-only under PublicPrefix.
	PublishedDir string
	PublicPrefix string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		r.Post("/predict", app.Predict)
		r.Post("/predict/", app.Predict)
	})

	if opts.PublishedDir != "" {
		prefix := "/" + strings.Trim(opts.PublicPrefix, "/")
		files := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(opts.PublishedDir)))
		r.Get(prefix+"/*", files.ServeHTTP)
		r.Head(prefix+"/*", files.ServeHTTP)
	}

	return r
}
