package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/stridestats/stridestats/internal/artifacts"
	"github.com/stridestats/stridestats/internal/auth"
	"github.com/stridestats/stridestats/internal/database"
	"github.com/stridestats/stridestats/internal/jobs"
	"github.com/stridestats/stridestats/internal/models"
)

type Handler struct {
	pipeline  *jobs.Pipeline
	store     artifacts.Store
	logger    *slog.Logger
	startTime time.Time
}

func NewHandler(pipeline *jobs.Pipeline, store artifacts.Store, logger *slog.Logger) *Handler {
	return &Handler{
		pipeline:  pipeline,
		store:     store,
		logger:    logger,
		startTime: time.Now(),
	}
}

// RefreshHandler handles POST /api/refresh/:tier
func (h *Handler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	athleteID, ok := auth.AthleteIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Athlete session required", http.StatusUnauthorized)
		return
	}

	tier, ok := tierFromPath(r.URL.Path, "/api/refresh/")
	if !ok {
		http.Error(w, "Unknown data tier", http.StatusBadRequest)
		return
	}

	status, err := h.pipeline.RequestRefresh(r.Context(), athleteID, tier)
	if err != nil {
		h.logger.Error("refresh request failed", "athlete_id", athleteID, "tier", tier, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	code := http.StatusAccepted
	if !status.RefreshAccepted {
		code = http.StatusOK
	}
	writeJSON(w, code, status)
}

// StatusHandler handles GET /api/status/:tier, polled by the frontend while
// a refresh runs.
func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	athleteID, ok := auth.AthleteIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Athlete session required", http.StatusUnauthorized)
		return
	}

	tier, ok := tierFromPath(r.URL.Path, "/api/status/")
	if !ok {
		http.Error(w, "Unknown data tier", http.StatusBadRequest)
		return
	}

	status, err := h.pipeline.PollStatus(r.Context(), athleteID, tier)
	if err != nil {
		h.logger.Error("status poll failed", "athlete_id", athleteID, "tier", tier, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// ArtifactHandler handles GET /api/data/:tier/:name, serving one cached
// artifact envelope.
func (h *Handler) ArtifactHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	athleteID, ok := auth.AthleteIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Athlete session required", http.StatusUnauthorized)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/data/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		http.Error(w, "Tier and artifact name required", http.StatusBadRequest)
		return
	}

	tier := models.Tier(parts[0])
	if !tier.Valid() {
		http.Error(w, "Unknown data tier", http.StatusBadRequest)
		return
	}

	key := artifacts.Key{AthleteID: athleteID, Name: parts[1], Tier: tier}
	body, err := h.store.Get(r.Context(), key)
	if err != nil {
		h.logger.Error("artifact lookup failed", "key", key.String(), "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if body == nil {
		writeJSON(w, http.StatusOK, ArtifactResponse{Available: false})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write artifact body", "error", err)
	}
}

// ListArtifactsHandler handles GET /api/data/:tier, listing the artifact
// names the tier can produce.
func (h *Handler) ListArtifactsHandler(w http.ResponseWriter, r *http.Request, tier models.Tier) {
	writeJSON(w, http.StatusOK, ArtifactListResponse{
		Tier:  tier,
		Names: artifacts.Names(tier),
	})
}

// HealthHandler handles GET /health
func (h *Handler) HealthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:        "ok",
			UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		}

		if db != nil {
			if err := database.HealthCheck(r.Context(), db); err != nil {
				h.logger.Error("database health check failed", "error", err)
				resp.Status = "degraded"
				resp.Database = "unreachable"
				writeJSON(w, http.StatusServiceUnavailable, resp)
				return
			}
			resp.Database = "ok"
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func tierFromPath(path, prefix string) (models.Tier, bool) {
	tier := models.Tier(strings.TrimPrefix(path, prefix))
	return tier, tier.Valid()
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Response types
type ArtifactResponse struct {
	Available bool `json:"available"`
}

type ArtifactListResponse struct {
	Tier  models.Tier `json:"tier"`
	Names []string    `json:"names"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Database      string `json:"database,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
