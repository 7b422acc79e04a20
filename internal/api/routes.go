// Package api implements the reference feed server: an OData v2 endpoint set
// backed by the Postgres catalog, plus push and login endpoints for
// publishers. Setting DISABLE_GET_UPDATES makes the batched update endpoint
// answer 404, which exercises the client's per-package fallback.
package api

import (
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"nufeed/internal/auth"
	"nufeed/internal/config"
	"nufeed/internal/db"
)

// Server holds dependencies for API handlers
type Server struct {
	DB     *db.DB
	Config config.Config
	JWT    *auth.JWTManager
	Log    *zap.Logger
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(r *mux.Router, database *db.DB, cfg config.Config, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		DB:     database,
		Config: cfg,
		JWT:    auth.NewJWTManager(cfg.JWTSecret, auth.DefaultTokenDuration),
		Log:    log,
	}

	// Middleware in order, outermost first
	r.Use(s.panicRecoveryMiddleware)
	r.Use(s.securityHeadersMiddleware)
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/health", s.healthHandler).Methods("GET")

	v2 := r.PathPrefix("/v2").Subrouter()
	v2.HandleFunc("/FindPackagesById()", s.findPackagesByIDHandler).Methods("GET")
	v2.HandleFunc("/Search()", s.searchHandler).Methods("GET")
	v2.HandleFunc("/GetUpdates()", s.getUpdatesHandler).Methods("GET")
	v2.HandleFunc("/Packages({args})", s.specificPackageHandler).Methods("GET")
	v2.HandleFunc("/package/{id}/{version}", s.downloadHandler).Methods("GET")
	v2.HandleFunc("/package", s.pushHandler).Methods("PUT")
	v2.HandleFunc("/users/login", s.loginHandler).Methods("POST")
}
