package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/caddieworks/myloopcount/internal/auth"
	"github.com/caddieworks/myloopcount/internal/httpx"
	"github.com/caddieworks/myloopcount/internal/shack"
)

type ShackHandler struct {
	Shacks *shack.Service
}

func NewShackHandler(s *shack.Service) *ShackHandler { return &ShackHandler{Shacks: s} }

func (h *ShackHandler) master(w http.ResponseWriter, r *http.Request) (uint, bool) {
	uid, _ := auth.UserIDFromContext(r.Context())
	m, err := h.Shacks.MasterFor(uid)
	if err != nil {
		// Only caddy masters have a shack page.
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusForbidden, "not_a_caddy_master", nil)
			return 0, false
		}
		http.Error(w, "caddy masters only", http.StatusForbidden)
		return 0, false
	}
	return m.ID, true
}

func (h *ShackHandler) List(w http.ResponseWriter, r *http.Request) {
	masterID, ok := h.master(w, r)
	if !ok {
		return
	}
	shacks, err := h.Shacks.List(masterID)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_shacks", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": shacks, "total": len(shacks)})
		return
	}
	renderTemplate(w, r, "shacks", map[string]any{"Shacks": shacks})
}

func (h *ShackHandler) Create(w http.ResponseWriter, r *http.Request) {
	masterID, ok := h.master(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	date, err := time.Parse("2006-01-02", r.FormValue("date"))
	if err != nil {
		date = time.Now()
	}
	in := shack.ShackInput{
		Title:        r.FormValue("title"),
		Date:         date,
		GolferGroups: r.FormValue("golfer_groups"),
	}
	created, err := h.Shacks.Create(masterID, in)
	var verr *shack.ValidationError
	switch {
	case errors.As(err, &verr):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", verr.Violations)
			return
		}
		shacks, _ := h.Shacks.List(masterID)
		renderTemplate(w, r, "shacks", map[string]any{"Shacks": shacks, "Errors": verr.Violations})
	case err != nil:
		httpx.JSONError(w, http.StatusInternalServerError, "shack_create_failed", nil)
	default:
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusCreated, created)
			return
		}
		http.Redirect(w, r, "/shacks", statusSeeOther)
	}
}

func (h *ShackHandler) AssignCaddy(w http.ResponseWriter, r *http.Request) {
	masterID, ok := h.master(w, r)
	if !ok {
		return
	}
	shackID, ok1 := pathID(r, "id")
	caddyID, ok2 := pathID(r, "caddy_id")
	if !ok1 || !ok2 {
		http.NotFound(w, r)
		return
	}
	err := h.Shacks.AssignCaddy(masterID, shackID, caddyID)
	h.rosterResult(w, r, err)
}

func (h *ShackHandler) RemoveCaddy(w http.ResponseWriter, r *http.Request) {
	masterID, ok := h.master(w, r)
	if !ok {
		return
	}
	shackID, ok1 := pathID(r, "id")
	caddyID, ok2 := pathID(r, "caddy_id")
	if !ok1 || !ok2 {
		http.NotFound(w, r)
		return
	}
	err := h.Shacks.RemoveCaddy(masterID, shackID, caddyID)
	h.rosterResult(w, r, err)
}

func (h *ShackHandler) rosterResult(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shack.ErrForbidden):
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, shack.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case err != nil:
		httpx.JSONError(w, http.StatusInternalServerError, "roster_update_failed", nil)
	default:
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
			return
		}
		http.Redirect(w, r, "/shacks", statusSeeOther)
	}
}
