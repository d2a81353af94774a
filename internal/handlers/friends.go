package handlers

import (
	"errors"
	"net/http"

	"github.com/caddieworks/myloopcount/internal/accounts"
	"github.com/caddieworks/myloopcount/internal/auth"
	"github.com/caddieworks/myloopcount/internal/httpx"
	"github.com/caddieworks/myloopcount/internal/social"
)

type FriendsHandler struct {
	Social   *social.Service
	Accounts *accounts.Service
}

func NewFriendsHandler(s *social.Service, a *accounts.Service) *FriendsHandler {
	return &FriendsHandler{Social: s, Accounts: a}
}

func (h *FriendsHandler) caddy(w http.ResponseWriter, r *http.Request) (uint, bool) {
	uid, _ := auth.UserIDFromContext(r.Context())
	caddy, err := h.Accounts.CaddyFor(uid)
	if err != nil {
		http.NotFound(w, r)
		return 0, false
	}
	return caddy.ID, true
}

// List shows everyone the caddy follows plus the follow form.
func (h *FriendsHandler) List(w http.ResponseWriter, r *http.Request) {
	caddyID, ok := h.caddy(w, r)
	if !ok {
		return
	}
	friends, err := h.Social.Following(caddyID)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_friends", nil)
		return
	}
	total, _ := h.Social.CountFollowing(caddyID)
	if httpx.WantsJSON(r) {
		names := make([]string, 0, len(friends))
		for _, f := range friends {
			if f.User != nil {
				names = append(names, f.User.Username)
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"friends": names, "total_following": total})
		return
	}
	renderTemplate(w, r, "friends", map[string]any{"Friends": friends, "TotalFollowing": total})
}

// Follow adds a follow edge by username. Unknown usernames surface as a form
// error; staff targets succeed without following, indistinguishable from the
// normal success path.
func (h *FriendsHandler) Follow(w http.ResponseWriter, r *http.Request) {
	caddyID, ok := h.caddy(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	username := r.FormValue("caddy_to_follow")
	err := h.Social.Follow(caddyID, username)
	switch {
	case errors.Is(err, social.ErrNotFound):
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusNotFound, "username_does_not_exist", nil)
			return
		}
		friends, _ := h.Social.Following(caddyID)
		total, _ := h.Social.CountFollowing(caddyID)
		renderTemplate(w, r, "friends", map[string]any{
			"Friends": friends, "TotalFollowing": total,
			"Errors": map[string]string{"caddy_to_follow": "Username does not exist"},
		})
	case err != nil:
		httpx.JSONError(w, http.StatusInternalServerError, "follow_failed", nil)
	default:
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
			return
		}
		http.Redirect(w, r, "/friends?msg=Successfully+followed+caddy", statusSeeOther)
	}
}

func (h *FriendsHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	caddyID, ok := h.caddy(w, r)
	if !ok {
		return
	}
	targetID, okID := pathID(r, "id")
	if !okID {
		http.NotFound(w, r)
		return
	}
	if err := h.Social.Unfollow(caddyID, targetID); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "unfollow_failed", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
		return
	}
	http.Redirect(w, r, "/friends", statusSeeOther)
}

// Followers lists the usernames following this caddy (reverse lookup).
func (h *FriendsHandler) Followers(w http.ResponseWriter, r *http.Request) {
	caddyID, ok := h.caddy(w, r)
	if !ok {
		return
	}
	names, err := h.Social.Followers(caddyID)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_followers", nil)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"followers": names, "total": len(names)})
		return
	}
	renderTemplate(w, r, "followers", map[string]any{"Followers": names, "Total": len(names)})
}
