package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/caddieworks/myloopcount/internal/accounts"
	"github.com/caddieworks/myloopcount/internal/auth"
	"github.com/caddieworks/myloopcount/internal/httpx"
	"github.com/caddieworks/myloopcount/internal/ledger"
	"github.com/caddieworks/myloopcount/internal/social"
)

const loopsPerPage = 10

type LoopHandler struct {
	Ledger   *ledger.Service
	Accounts *accounts.Service
	Social   *social.Service
}

func NewLoopHandler(l *ledger.Service, a *accounts.Service, s *social.Service) *LoopHandler {
	return &LoopHandler{Ledger: l, Accounts: a, Social: s}
}

// Dashboard shows the five most recent loops, the cached loop count, total
// earnings and the top three followed caddies by loop count.
func (h *LoopHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	caddy, err := h.Accounts.CaddyFor(uid)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	recent, err := h.Ledger.Recent(uid, 5)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "dashboard_failed", nil)
		return
	}
	totalMoney, _ := h.Ledger.TotalMoney(uid)
	topFriends, _ := h.Social.TopFriends(caddy.ID, 3)

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"loop_count":  caddy.LoopCount,
			"total_money": totalMoney,
			"recent":      recent,
			"top_friends": topFriends,
		})
		return
	}
	renderTemplate(w, r, "index", map[string]any{
		"Caddy":      caddy,
		"LoopCount":  caddy.LoopCount,
		"TotalMoney": totalMoney,
		"Recent":     recent,
		"TopFriends": topFriends,
	})
}

func (h *LoopHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	page := queryInt(r, "page", 1)
	loops, total, err := h.Ledger.List(uid, page, loopsPerPage)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_loops", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": loops, "total": total, "page": page, "page_size": loopsPerPage})
		return
	}
	hasNext := int64(page*loopsPerPage) < total
	renderTemplate(w, r, "loop_list", map[string]any{
		"Loops": loops, "Total": total, "Page": page, "HasNext": hasNext,
	})
}

func (h *LoopHandler) View(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	loop, err := h.Ledger.Get(uid, id)
	if err != nil {
		// Scoped like the list: another user's loop reads as missing rather
		// than confirming it exists.
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		http.NotFound(w, r)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, loop)
		return
	}
	renderTemplate(w, r, "loop_detail", map[string]any{"Loop": loop})
}

func (h *LoopHandler) New(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "new_loop", map[string]any{"Today": time.Now().Format("2006-01-02")})
}

func (h *LoopHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	in, ok := parseLoopForm(w, r)
	if !ok {
		return
	}
	loop, err := h.Ledger.CreateLoop(uid, in)
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", verr.Violations)
			return
		}
		renderTemplate(w, r, "new_loop", map[string]any{"Errors": verr.Violations, "Input": in})
	case err != nil:
		httpx.JSONError(w, http.StatusInternalServerError, "loop_create_failed", nil)
	default:
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusCreated, loop)
			return
		}
		http.Redirect(w, r, "/loops?msg=New+loop+added%21", statusSeeOther)
	}
}

func (h *LoopHandler) Edit(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	loop, err := h.Ledger.Get(uid, id)
	if errors.Is(err, ledger.ErrForbidden) {
		http.Error(w, "You cannot edit what is not yours", http.StatusForbidden)
		return
	}
	if err != nil {
		http.NotFound(w, r)
		return
	}
	renderTemplate(w, r, "edit_loop", map[string]any{"Loop": loop})
}

func (h *LoopHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	in, okForm := parseLoopForm(w, r)
	if !okForm {
		return
	}
	err := h.Ledger.UpdateLoop(uid, id, in)
	var verr *ledger.ValidationError
	switch {
	case errors.Is(err, ledger.ErrForbidden):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
			return
		}
		http.Error(w, "You cannot edit what is not yours", http.StatusForbidden)
	case errors.Is(err, ledger.ErrNotFound):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		http.NotFound(w, r)
	case errors.As(err, &verr):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", verr.Violations)
			return
		}
		renderTemplate(w, r, "edit_loop", map[string]any{"Errors": verr.Violations, "Input": in})
	case err != nil:
		httpx.JSONError(w, http.StatusInternalServerError, "loop_update_failed", nil)
	default:
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusOK, map[string]any{"status": "updated"})
			return
		}
		http.Redirect(w, r, "/loops?msg=Loop+has+been+updated+successfully", statusSeeOther)
	}
}

func (h *LoopHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	err := h.Ledger.DeleteLoop(uid, id)
	switch {
	case errors.Is(err, ledger.ErrForbidden):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
			return
		}
		http.Error(w, "Loop does not exist", http.StatusForbidden)
	case errors.Is(err, ledger.ErrNotFound):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		http.NotFound(w, r)
	case err != nil:
		httpx.JSONError(w, http.StatusInternalServerError, "loop_delete_failed", nil)
	default:
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusOK, map[string]any{"status": "deleted"})
			return
		}
		http.Redirect(w, r, "/loops", statusSeeOther)
	}
}

func parseLoopForm(w http.ResponseWriter, r *http.Request) (ledger.LoopInput, bool) {
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return ledger.LoopInput{}, false
	}
	date, err := time.Parse("2006-01-02", r.FormValue("date"))
	if err != nil {
		date = time.Now()
	}
	numLoops, _ := strconv.Atoi(r.FormValue("num_loops"))
	money, _ := strconv.Atoi(r.FormValue("money"))
	return ledger.LoopInput{
		Title:    r.FormValue("title"),
		Date:     date,
		NumLoops: numLoops,
		Money:    money,
		Notes:    r.FormValue("notes"),
	}, true
}
