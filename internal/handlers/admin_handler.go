package handlers

import (
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type AdminHandler struct {
	app *pocketbase.PocketBase
}

func NewAdminHandler(app *pocketbase.PocketBase) *AdminHandler {
	return &AdminHandler{app: app}
}

// CheckinStats aggregates issued vs consumed passes per pass type for the
// organizer dashboard.
func (h *AdminHandler) CheckinStats(e *core.RequestEvent) error {
	if _, err := requireOrganizer(h.app, e); err != nil {
		return err
	}

	var rows []struct {
		PassType string `db:"pass_type" json:"pass_type"`
		Total    int    `db:"total" json:"total"`
		Used     int    `db:"used" json:"used"`
	}

	err := h.app.DB().
		NewQuery(`
			SELECT pass_type,
			       COUNT(*) AS total,
			       SUM(CASE WHEN status = 'used' THEN 1 ELSE 0 END) AS used
			FROM passes
			WHERE status IN ('paid', 'used')
			GROUP BY pass_type`).
		All(&rows)
	if err != nil {
		slog.Error("CheckinStats query", "error", err)
		return apis.NewInternalServerError("internal error", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"stats": rows})
}
