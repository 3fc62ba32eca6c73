package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/stridestats/stridestats/internal/activity"
	"github.com/stridestats/stridestats/internal/artifacts"
	"github.com/stridestats/stridestats/internal/auth"
	"github.com/stridestats/stridestats/internal/jobs"
)

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, db *sql.DB, pipeline *jobs.Pipeline, store artifacts.Store, activityLog *activity.Log, oauth *activity.OAuthClient, tokens activity.TokenStore, authConfig auth.Config, logger *slog.Logger) {
	handler := NewHandler(pipeline, store, logger)
	authHandler := NewAuthHandler(authConfig, oauth, tokens, logger)
	adminHandler := NewAdminHandler(db, store, activityLog, logger)

	athleteMiddleware := auth.AthleteMiddleware(authConfig)
	adminMiddleware := auth.AdminMiddleware(authConfig)

	// Authentication routes (public)
	mux.HandleFunc("/api/auth/connect", authHandler.Connect)
	mux.HandleFunc("/api/auth/admin/login", authHandler.AdminLogin)
	mux.HandleFunc("/api/auth/validate", func(w http.ResponseWriter, r *http.Request) {
		athleteMiddleware(http.HandlerFunc(authHandler.Validate)).ServeHTTP(w, r)
	})

	// Refresh and status routes (athlete only)
	mux.HandleFunc("/api/refresh/", func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, "POST, OPTIONS") {
			return
		}
		athleteMiddleware(http.HandlerFunc(handler.RefreshHandler)).ServeHTTP(w, r)
	})

	mux.HandleFunc("/api/status/", func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, "GET, OPTIONS") {
			return
		}
		athleteMiddleware(http.HandlerFunc(handler.StatusHandler)).ServeHTTP(w, r)
	})

	// Artifact routes (athlete only)
	mux.HandleFunc("/api/data/", func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, "GET, OPTIONS") {
			return
		}

		// /api/data/:tier lists names; /api/data/:tier/:name serves one.
		if tier, ok := tierFromPath(r.URL.Path, "/api/data/"); ok {
			athleteMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handler.ListArtifactsHandler(w, r, tier)
			})).ServeHTTP(w, r)
			return
		}
		athleteMiddleware(http.HandlerFunc(handler.ArtifactHandler)).ServeHTTP(w, r)
	})

	// Admin routes
	mux.HandleFunc("/api/admin/athletes/", func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, "DELETE, OPTIONS") {
			return
		}
		adminMiddleware(http.HandlerFunc(adminHandler.PurgeAthlete)).ServeHTTP(w, r)
	})

	mux.HandleFunc("/api/admin/db-stats", func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, "GET, OPTIONS") {
			return
		}
		adminMiddleware(http.HandlerFunc(adminHandler.DatabaseStats)).ServeHTTP(w, r)
	})

	// Health route (public)
	mux.HandleFunc("/health", handler.HealthHandler(db))

	// CORS preflight catch-all
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if preflight(w, r, "GET, POST, PUT, DELETE, OPTIONS") {
			return
		}
		http.NotFound(w, r)
	})
}

func preflight(w http.ResponseWriter, r *http.Request, methods string) bool {
	if r.Method != http.MethodOptions {
		return false
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.WriteHeader(http.StatusOK)
	return true
}
