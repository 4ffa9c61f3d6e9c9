package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// Options wires the HTTP surface to its collaborators
type Options struct {
	Service  simpleblog.Service
	Accounts Accounts
	Session  *Session
	Logger   *slog.Logger

	// SignInRatePerMinute limits sign-in attempts per client IP. Zero
	// disables the limit.
	SignInRatePerMinute int
}

// Routes registers every blog route on r. Routes are added inside a group so
// r may already carry routes of its own, such as health checks.
func Routes(r chi.Router, opts Options) {
	var limiter *RateLimiter
	if opts.SignInRatePerMinute > 0 {
		limiter = NewRateLimiter(opts.SignInRatePerMinute)
	}

	posts := NewPostHandler(opts.Service)
	comments := NewCommentHandler(opts.Service)
	accounts := NewAccountHandler(opts.Accounts, opts.Session, limiter)

	r.Group(func(r chi.Router) {
		r.Use(RequestIDMiddleware)
		r.Use(RecoveryMiddleware)
		r.Use(opts.Session.Load)
		r.Use(LoggingMiddleware(opts.Logger))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/posts", http.StatusFound)
		})

		accounts.Register(r)
		r.Mount("/posts", posts.Routes())
		r.Mount("/tags", posts.TagRoutes())
		r.Mount("/comments", comments.Routes())
	})
}

// NewRouter returns a router serving the blog routes
func NewRouter(opts Options) chi.Router {
	r := chi.NewRouter()
	Routes(r, opts)
	return r
}
