package handlers

import (
	"net/http"
	"strconv"

	"github.com/caddieworks/myloopcount/internal/view"
)

// Explicit constant for 303 See Other (Post/Redirect/Get)
const statusSeeOther = 303

// renderTemplate uses the shared view.Render to keep layout and funcs in one
// place; template failures degrade to a plain 500.
func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if msg := r.URL.Query().Get("msg"); msg != "" {
		data["Message"] = msg
	}
	if err := view.Render(w, r, name+".html", data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func pathID(r *http.Request, name string) (uint, bool) {
	id64, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id64), true
}

func queryInt(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
