package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/caddieworks/myloopcount/internal/accounts"
	"github.com/caddieworks/myloopcount/internal/auth"
	"github.com/caddieworks/myloopcount/internal/httpx"
)

type AuthHandler struct {
	Accounts *accounts.Service
}

func NewAuthHandler(svc *accounts.Service) *AuthHandler { return &AuthHandler{Accounts: svc} }

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "signup", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	in := accounts.RegisterInput{
		Username:  r.FormValue("username"),
		Email:     r.FormValue("email"),
		Password1: r.FormValue("password1"),
		Password2: r.FormValue("password2"),
	}
	err := h.Accounts.Register(in)
	var verr *accounts.ValidationError
	switch {
	case errors.As(err, &verr):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", verr.Violations)
			return
		}
		renderTemplate(w, r, "signup", map[string]any{"Errors": verr.Violations, "Username": in.Username, "Email": in.Email})
	case errors.Is(err, accounts.ErrMailSend):
		// The mail never left, so no account was created. Tell the user to retry.
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusServiceUnavailable, "mail_send_failed", nil)
			return
		}
		renderTemplate(w, r, "signup", map[string]any{"Message": "Unable to send email verification. Please try again"})
	case err != nil:
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, "signup_failed", nil)
			return
		}
		renderTemplate(w, r, "signup", map[string]any{"Message": "Could not create account"})
	default:
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusCreated, map[string]any{"status": "pending_activation"})
			return
		}
		msg := url.QueryEscape("Account created! Please activate your account by clicking on the link sent to your email.")
		http.Redirect(w, r, "/signup?msg="+msg, statusSeeOther)
	}
}

func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if err := h.Accounts.Activate(key); err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		http.NotFound(w, r)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "activated"})
		return
	}
	renderTemplate(w, r, "activated", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if uid, ok := auth.UserIDFromContext(r.Context()); ok && uid != 0 {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, "login", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	user, err := h.Accounts.Authenticate(r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
			return
		}
		renderTemplate(w, r, "login", map[string]any{"Message": "invalid credentials"})
		return
	}
	auth.CreateSession(w, user.ID)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
		return
	}
	http.Redirect(w, r, "/", statusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	auth.ClearSession(w)
	http.Redirect(w, r, "/login", statusSeeOther)
}
