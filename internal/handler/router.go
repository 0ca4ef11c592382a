package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bookshelf/bookshelf-go/internal/middleware"
	"github.com/bookshelf/bookshelf-go/internal/service"
)

// Deps holds everything the HTTP surface needs.
type Deps struct {
	Auth   *service.AuthService
	Books  *service.BookService
	Tags   *service.TagService
	Search *service.SearchService
	DB     Pinger

	JWTSecret    string
	TokenTTL     time.Duration
	SecureCookie bool
	ClientURL    string

	RateLimitStore    middleware.CounterStore
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter builds the API router.
func NewRouter(d Deps) http.Handler {
	authHandler := NewAuthHandler(d.Auth, d.TokenTTL, d.SecureCookie)
	bookHandler := NewBookHandler(d.Books)
	tagHandler := NewTagHandler(d.Tags)
	searchHandler := NewSearchHandler(d.Search)

	store := d.RateLimitStore
	if store == nil {
		store = middleware.NewMemoryStore()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{d.ClientURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse("Not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse("Method not allowed"))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", HandleHealth(d.DB))

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(store, d.RateLimitRequests, d.RateLimitWindow))
				r.Post("/register", authHandler.HandleRegister)
				r.Post("/login", authHandler.HandleLogin)
				r.Post("/logout", authHandler.HandleLogout)
			})
			r.With(middleware.Auth(d.JWTSecret)).Get("/me", authHandler.HandleMe)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.JWTSecret))

			r.Get("/books", bookHandler.HandleList)
			r.Post("/books", bookHandler.HandleCreate)
			r.Get("/books/{id}", bookHandler.HandleGet)
			r.Put("/books/{id}", bookHandler.HandleUpdate)
			r.Delete("/books/{id}", bookHandler.HandleDelete)

			r.Get("/tags", tagHandler.HandleList)
			r.Post("/tags", tagHandler.HandleCreate)
			r.Put("/tags/{id}", tagHandler.HandleUpdate)
			r.Delete("/tags/{id}", tagHandler.HandleDelete)

			r.Get("/search", searchHandler.HandleSearch)
			r.Get("/search/isbn/{isbn}", searchHandler.HandleISBN)
		})
	})

	return r
}
