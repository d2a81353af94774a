package handlers

import (
	"errors"
	"net/http"

	"github.com/caddieworks/myloopcount/internal/accounts"
	"github.com/caddieworks/myloopcount/internal/auth"
	"github.com/caddieworks/myloopcount/internal/httpx"
)

type SettingsHandler struct {
	Accounts *accounts.Service
}

func NewSettingsHandler(a *accounts.Service) *SettingsHandler { return &SettingsHandler{Accounts: a} }

func (h *SettingsHandler) Show(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "settings", nil)
}

func (h *SettingsHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "change_password", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	err := h.Accounts.ChangePassword(uid,
		r.FormValue("old_password"), r.FormValue("new_password1"), r.FormValue("new_password2"))
	var verr *accounts.ValidationError
	switch {
	case errors.Is(err, accounts.ErrBadPassword):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "password_incorrect", nil)
			return
		}
		renderTemplate(w, r, "change_password", map[string]any{"Message": "password is incorrect"})
	case errors.As(err, &verr):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", verr.Violations)
			return
		}
		renderTemplate(w, r, "change_password", map[string]any{"Errors": verr.Violations})
	case err != nil:
		httpx.JSONError(w, http.StatusInternalServerError, "password_change_failed", nil)
	default:
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
			return
		}
		http.Redirect(w, r, "/settings?msg=Password+successfully+changed", statusSeeOther)
	}
}

func (h *SettingsHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "change_email", nil)
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	err := h.Accounts.RequestEmailChange(uid, r.FormValue("password"), r.FormValue("new_email"))
	var verr *accounts.ValidationError
	switch {
	case errors.Is(err, accounts.ErrBadPassword):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "password_incorrect", nil)
			return
		}
		renderTemplate(w, r, "change_email", map[string]any{"Message": "password is incorrect"})
	case errors.As(err, &verr):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", verr.Violations)
			return
		}
		renderTemplate(w, r, "change_email", map[string]any{"Errors": verr.Violations})
	case errors.Is(err, accounts.ErrMailSend):
		// Pending email is already recorded at this point; only the key is
		// missing, so the user must retry to get a working link.
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusServiceUnavailable, "mail_send_failed", nil)
			return
		}
		http.Redirect(w, r, "/settings?msg=Unable+to+send+email+verification.+Please+try+again", statusSeeOther)
	case err != nil:
		httpx.JSONError(w, http.StatusInternalServerError, "email_change_failed", nil)
	default:
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusOK, map[string]any{"status": "pending_verification"})
			return
		}
		http.Redirect(w, r, "/settings?msg=Please+verify+your+new+email+by+clicking+on+the+link+sent+to+the+new+address.", statusSeeOther)
	}
}

func (h *SettingsHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if err := h.Accounts.VerifyEmailChange(key); err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		http.NotFound(w, r)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "email_changed"})
		return
	}
	renderTemplate(w, r, "settings", map[string]any{"Message": "email successfully changed!"})
}
