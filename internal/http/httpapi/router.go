package httpapi

import (
	"net/http"
	"time"

	"chefconsole/internal/http/handlers"
	"chefconsole/internal/i18n"
	"chefconsole/internal/infra"
	appmw "chefconsole/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options configures the shared middleware stack.
type Options struct {
	Logger          *infra.Logger
	CORSOrigins     []string
	RateLimitPerMin int
	Translator      *i18n.Translator
	CountryLookup   appmw.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	logger := infra.LoggerOrDiscard(opts.Logger)

	r := chi.NewRouter()
	r.Use(
		appmw.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		appmw.CORS(opts.CORSOrigins),
		appmw.I18N(opts.Translator, opts.CountryLookup),
		appmw.Logger(*logger),
		appmw.RateLimit(opts.RateLimitPerMin, time.Minute),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Post("/v1/plans/{planID}/generations", app.StartGeneration)
	r.Route("/v1/generations", func(r chi.Router) {
		r.Get("/", app.ListGenerations)
		r.Get("/{jobID}", app.GetGeneration)
		r.Get("/{jobID}/wait", app.WaitGeneration)
	})

	r.Route("/v1/notifications", func(r chi.Router) {
		r.Get("/", app.ListNotifications)
		r.Delete("/", app.ClearAll)
		r.Get("/unread-count", app.UnreadCount)
		r.Get("/latest-unread", app.LatestUnread)
		r.Post("/read-all", app.MarkAllRead)
		r.Post("/{id}/read", app.MarkRead)
		r.Post("/{id}/open", app.OpenNotification)
		r.Delete("/{id}", app.ClearNotification)
	})

	r.Route("/v1/toast", func(r chi.Router) {
		r.Get("/", app.ToastView)
		r.Post("/dismiss", app.ToastDismiss)
		r.Post("/click", app.ToastClick)
	})

	return r
}
