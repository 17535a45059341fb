package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/undercurrent/river/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func limitParam(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			return n
		}
	}
	return fallback
}

// handleInbox accepts a community message. When mention is set the message is
// addressed to the agent and will be answered at most once.
func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Channel string `json:"channel"`
		Author  string `json:"author"`
		Content string `json:"content"`
		Mention string `json:"mention"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Author == "" || req.Content == "" {
		http.Error(w, `{"error":"author and content required"}`, http.StatusBadRequest)
		return
	}
	if req.Channel == "" {
		req.Channel = store.ChannelWire
	}

	id, err := s.db.AppendFeedMessage(req.Channel, req.Author, req.Content, req.Mention)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) handleAddNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Agent   string `json:"agent"`
		Kind    string `json:"kind"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Agent == "" || req.Content == "" {
		http.Error(w, `{"error":"agent and content required"}`, http.StatusBadRequest)
		return
	}

	id, err := s.db.AddNotification(req.Agent, req.Kind, req.Content)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.db.RecentFeedMessages(limitParam(r, 50))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, map[string]any{
			"id":         m.ID,
			"channel":    m.Channel,
			"author":     m.Author,
			"content":    m.Content,
			"mention_of": m.MentionOf,
			"created_at": m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := s.db.GetAgentState(s.engine.Name)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if state == nil {
		http.Error(w, `{"error":"agent not yet born"}`, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":              state.Name,
		"mood":              state.Mood,
		"energy":            state.Energy,
		"focus":             state.Focus,
		"last_spoke_at":     state.LastSpokeAt,
		"message_count_24h": state.MessageCount24h,
		"current_location":  state.CurrentLocation,
		"birth_at":          state.BirthAt,
		"heartbeat_count":   state.HeartbeatCount,
	})
}

func (s *Server) handleMemories(w http.ResponseWriter, r *http.Request) {
	memories, err := s.db.RecentVivid(s.engine.Name, limitParam(r, 20))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(memories))
	for _, m := range memories {
		out = append(out, map[string]any{
			"id":                m.ID,
			"content":           m.Content,
			"type":              m.Type,
			"salience":          m.Salience,
			"tags":              m.Tags,
			"counterpart":       m.Counterpart,
			"created_at":        m.CreatedAt,
			"last_revisited_at": m.LastRevisitedAt,
			"revisit_count":     m.RevisitCount,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRelationships(w http.ResponseWriter, r *http.Request) {
	rels, err := s.db.ListRelationships(s.engine.Name, limitParam(r, 50))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(rels))
	for _, rel := range rels {
		out = append(out, map[string]any{
			"counterpart":       rel.Counterpart,
			"first_seen":        rel.FirstSeen,
			"last_seen":         rel.LastSeen,
			"interaction_count": rel.InteractionCount,
			"recent_topic":      rel.RecentTopic,
			"shared_history":    rel.SharedHistory,
			"what_matters":      rel.WhatMatters,
			"how_i_feel":        rel.HowIFeel,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	id, err := s.db.GetIdentity(s.engine.Name)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"content":       id.Content,
		"version":       id.Version,
		"last_updated":  id.LastUpdated,
		"update_reason": id.UpdateReason,
	})
}

func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Description == "" {
		http.Error(w, `{"error":"description required"}`, http.StatusBadRequest)
		return
	}

	id, err := s.db.AddGoal(s.engine.Name, req.Description)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleAddWondering(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		http.Error(w, `{"error":"question required"}`, http.StatusBadRequest)
		return
	}

	id, err := s.db.AddWondering(s.engine.Name, req.Question)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Counterpart string `json:"counterpart"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Counterpart == "" {
		http.Error(w, `{"error":"counterpart required"}`, http.StatusBadRequest)
		return
	}

	sess, err := s.db.OpenSession(s.engine.Name, req.Counterpart)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": sess.ID, "started_at": sess.StartedAt})
}

func (s *Server) handleSessionMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		http.Error(w, `{"error":"content required"}`, http.StatusBadRequest)
		return
	}
	if req.Role != "counterpart" && req.Role != "agent" {
		http.Error(w, `{"error":"role must be counterpart or agent"}`, http.StatusBadRequest)
		return
	}

	sess, err := s.db.GetSession(sessionID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if sess == nil || sess.EndedAt != nil {
		http.Error(w, `{"error":"no open session"}`, http.StatusNotFound)
		return
	}

	if err := s.db.AppendSessionMessage(sessionID, req.Role, req.Content); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

// handleCloseSession closes a session and kicks off its single reflection
// pass in the background.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := s.db.GetSession(sessionID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if sess == nil {
		http.Error(w, `{"error":"no such session"}`, http.StatusNotFound)
		return
	}

	if err := s.db.CloseSession(sessionID); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		if err := s.engine.ReflectOnSession(ctx, sessionID); err != nil {
			log.Printf("reflect: session %s: %v", sessionID, err)
		}
	}()

	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}
