// internal/server/router.go
package server

import (
	"context"
	"net/http"
	"time"

	"libraryweb/internal/catalog"
	"libraryweb/internal/circulation"
	"libraryweb/internal/config"
	"libraryweb/internal/dashboard"
	"libraryweb/internal/membership"
	"libraryweb/internal/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"golang.org/x/time/rate"
)

// NewRouter wires every service and handler onto one chi router.
func NewRouter(cfg *config.Config, db *sqlx.DB) (http.Handler, error) {
	view, err := web.NewRenderer(web.NewFlasher(cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	books := catalog.NewService(db)
	members := membership.NewService(db)
	loans := circulation.NewService(db, cfg.LoanDays)
	stats := dashboard.NewService(db)

	bookHandler := catalog.NewHandler(books, view)
	memberHandler := membership.NewHandler(members, view)
	loanHandler := circulation.NewHandler(loans, books, members, view)
	dashboardHandler := dashboard.NewHandler(stats, loans, view)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(web.RequestID)
	r.Use(web.Logger)
	r.Use(middleware.Recoverer)
	r.Use(web.Trace)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(web.RateLimit(limiter))

	r.Get("/", dashboardHandler.HandleIndex)

	r.Get("/books", bookHandler.HandleList)
	r.HandleFunc("/books/add", bookHandler.HandleAdd)
	r.HandleFunc("/books/update/{id}", bookHandler.HandleUpdate)
	r.Get("/books/delete/{id}", bookHandler.HandleDelete)
	r.Get("/books/view/{id}", bookHandler.HandleView)

	r.Get("/members", memberHandler.HandleList)
	r.HandleFunc("/members/add", memberHandler.HandleAdd)
	r.HandleFunc("/members/update/{id}", memberHandler.HandleUpdate)
	r.Get("/members/delete/{id}", memberHandler.HandleDelete)
	r.Get("/members/view/{id}", memberHandler.HandleView)

	r.Get("/borrowings", loanHandler.HandleList)
	r.HandleFunc("/borrow", loanHandler.HandleBorrow)
	r.Get("/return/{book_id}/{member_id}", loanHandler.HandleReturn)
	r.Get("/overdue", loanHandler.HandleOverdue)

	r.Get("/api/books", bookHandler.HandleAPIList)
	r.Get("/api/members", memberHandler.HandleAPIList)

	// Old bookmarks from before members and borrowings had their own pages.
	r.HandleFunc("/add", redirect(func(*http.Request) string { return "/books/add" }))
	r.HandleFunc("/update/{id}", redirect(func(r *http.Request) string { return "/books/update/" + chi.URLParam(r, "id") }))
	r.HandleFunc("/delete/{id}", redirect(func(r *http.Request) string { return "/books/delete/" + chi.URLParam(r, "id") }))

	r.Get("/healthz", healthz(db))
	r.NotFound(view.NotFound)

	return r, nil
}

func redirect(target func(*http.Request) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target(r), http.StatusFound)
	}
}

func healthz(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			web.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		web.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
