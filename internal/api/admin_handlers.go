package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/stridestats/stridestats/internal/activity"
	"github.com/stridestats/stridestats/internal/artifacts"
	"github.com/stridestats/stridestats/internal/database"
	"github.com/stridestats/stridestats/internal/models"
)

// AdminHandler serves admin-only maintenance endpoints.
type AdminHandler struct {
	db     *sql.DB
	store  artifacts.Store
	log    *activity.Log
	logger *slog.Logger
}

func NewAdminHandler(db *sql.DB, store artifacts.Store, log *activity.Log, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{db: db, store: store, log: log, logger: logger}
}

// PurgeAthlete handles DELETE /api/admin/athletes/:id, removing every cached
// artifact and raw activity log for the athlete.
func (h *AdminHandler) PurgeAthlete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/admin/athletes/")
	athleteID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || athleteID <= 0 {
		http.Error(w, "Athlete ID required", http.StatusBadRequest)
		return
	}

	for _, tier := range []models.Tier{models.TierSummary, models.TierDetailed} {
		if err := h.store.DeleteAll(r.Context(), athleteID, tier); err != nil {
			h.logger.Error("failed to purge artifacts", "athlete_id", athleteID, "tier", tier, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if err := h.log.Delete(athleteID, tier); err != nil {
			h.logger.Error("failed to purge activity log", "athlete_id", athleteID, "tier", tier, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}

	h.logger.Info("athlete data purged", "athlete_id", athleteID)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusNoContent)
}

// DatabaseStats handles GET /api/admin/db-stats
func (h *AdminHandler) DatabaseStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.db == nil {
		http.Error(w, "Database not configured", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, database.Stats(h.db))
}
