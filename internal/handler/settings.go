package handler

import (
	"net/http"
	"time"
)

// SettingsHandler exposes the process configuration the UI needs: the
// calendar time zone and whether touch-friendly layout is on. Both come
// from the environment at startup, so this surface is read-only.
type SettingsHandler struct {
	loc       *time.Location
	touchMode bool
}

func NewSettingsHandler(loc *time.Location, touchMode bool) *SettingsHandler {
	return &SettingsHandler{loc: loc, touchMode: touchMode}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"time_zone":  h.loc.String(),
		"touch_mode": h.touchMode,
	})
}
