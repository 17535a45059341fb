package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/undercurrent/river/internal/agent"
	"github.com/undercurrent/river/internal/store"
)

// Server is the river HTTP API server: the inbox the community writes into
// and the window onto the agent's state.
type Server struct {
	db      *store.DB
	engine  *agent.Engine
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server with the given database, engine, and version string.
func New(db *store.DB, eng *agent.Engine, version string) *Server {
	s := &Server{
		db:      db,
		engine:  eng,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Community inbox
		r.Post("/inbox", s.handleInbox)
		r.Post("/notifications", s.handleAddNotification)
		r.Get("/feed", s.handleFeed)

		// Agent introspection
		r.Get("/state", s.handleState)
		r.Get("/memories", s.handleMemories)
		r.Get("/relationships", s.handleRelationships)
		r.Get("/identity", s.handleIdentity)

		// Aspirations
		r.Post("/goals", s.handleAddGoal)
		r.Post("/wonderings", s.handleAddWondering)

		// Conversations (entity variant)
		r.Post("/sessions", s.handleOpenSession)
		r.Post("/sessions/{sessionID}/messages", s.handleSessionMessage)
		r.Post("/sessions/{sessionID}/close", s.handleCloseSession)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}
