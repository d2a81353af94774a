package main

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/caddieworks/myloopcount/internal/accounts"
	"github.com/caddieworks/myloopcount/internal/auth"
	"github.com/caddieworks/myloopcount/internal/handlers"
	"github.com/caddieworks/myloopcount/internal/ledger"
	"github.com/caddieworks/myloopcount/internal/mail"
	"github.com/caddieworks/myloopcount/internal/shack"
	"github.com/caddieworks/myloopcount/internal/social"
)

// App is the main application handler that wires services and routes.
type App struct {
	mux *http.ServeMux
	db  *gorm.DB
}

// NewApp builds the services and configures all routes.
func NewApp(db *gorm.DB, mailer mail.Mailer, baseURL string) *App {
	app := &App{mux: http.NewServeMux(), db: db}

	accountsSvc := accounts.NewService(db, mailer, baseURL)
	socialSvc := social.NewService(db)
	ledgerSvc := ledger.NewService(db)
	shackSvc := shack.NewService(db)

	ah := handlers.NewAuthHandler(accountsSvc)
	lh := handlers.NewLoopHandler(ledgerSvc, accountsSvc, socialSvc)
	fh := handlers.NewFriendsHandler(socialSvc, accountsSvc)
	sh := handlers.NewSettingsHandler(accountsSvc)
	ck := handlers.NewShackHandler(shackSvc)

	mux := app.mux

	// Public routes
	mux.HandleFunc("GET /signup", ah.Signup)
	mux.HandleFunc("POST /signup", ah.Signup)
	mux.HandleFunc("GET /activate", ah.Activate)
	mux.HandleFunc("GET /login", ah.Login)
	mux.HandleFunc("POST /login", ah.Login)
	mux.HandleFunc("POST /logout", ah.Logout)

	// Loop ledger
	mux.Handle("GET /{$}", requireAuth(http.HandlerFunc(lh.Dashboard)))
	mux.Handle("GET /loops", requireAuth(http.HandlerFunc(lh.List)))
	mux.Handle("GET /loops/new", requireAuth(http.HandlerFunc(lh.New)))
	mux.Handle("POST /loops", requireAuth(http.HandlerFunc(lh.Create)))
	mux.Handle("GET /loops/{id}", requireAuth(http.HandlerFunc(lh.View)))
	mux.Handle("GET /loops/{id}/edit", requireAuth(http.HandlerFunc(lh.Edit)))
	mux.Handle("POST /loops/{id}", requireAuth(http.HandlerFunc(lh.Update)))
	mux.Handle("POST /loops/{id}/delete", requireAuth(http.HandlerFunc(lh.Delete)))

	// Social graph
	mux.Handle("GET /friends", requireAuth(http.HandlerFunc(fh.List)))
	mux.Handle("POST /friends", requireAuth(http.HandlerFunc(fh.Follow)))
	mux.Handle("POST /friends/{id}/unfollow", requireAuth(http.HandlerFunc(fh.Unfollow)))
	mux.Handle("GET /followers", requireAuth(http.HandlerFunc(fh.Followers)))

	// Settings
	mux.Handle("GET /settings", requireAuth(http.HandlerFunc(sh.Show)))
	mux.Handle("GET /settings/password", requireAuth(http.HandlerFunc(sh.ChangePassword)))
	mux.Handle("POST /settings/password", requireAuth(http.HandlerFunc(sh.ChangePassword)))
	mux.Handle("GET /settings/email", requireAuth(http.HandlerFunc(sh.ChangeEmail)))
	mux.Handle("POST /settings/email", requireAuth(http.HandlerFunc(sh.ChangeEmail)))
	mux.Handle("GET /settings/email/verify", requireAuth(http.HandlerFunc(sh.VerifyEmail)))

	// Caddy master module
	mux.Handle("GET /shacks", requireAuth(http.HandlerFunc(ck.List)))
	mux.Handle("POST /shacks", requireAuth(http.HandlerFunc(ck.Create)))
	mux.Handle("POST /shacks/{id}/caddys/{caddy_id}", requireAuth(http.HandlerFunc(ck.AssignCaddy)))
	mux.Handle("POST /shacks/{id}/caddys/{caddy_id}/remove", requireAuth(http.HandlerFunc(ck.RemoveCaddy)))

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	return app
}

// ServeHTTP implements http.Handler with the session middleware applied.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	auth.Middleware(a.mux).ServeHTTP(w, r)
}

func requireAuth(next http.Handler) http.Handler {
	return auth.RequireAuth(next)
}
