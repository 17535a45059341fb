package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/undercurrent/river/internal/llm"
	"github.com/undercurrent/river/internal/store"
)

// Salience assigned by a reflection. Kept memories matter moderately;
// collective-awareness themes carry a low weight by design.
const (
	salienceReflection = 0.6
	salienceAwareness  = 0.3
	salienceRawArchive = 0.3

	maxReflectionMemories = 4
	maxAwarenessThemes    = 3
)

// reflectionResult is the JSON structure the reflection collaborator returns.
type reflectionResult struct {
	Memories     []string `json:"memories"`
	Relationship struct {
		SharedHistory     string `json:"shared_history"`
		WhatMattersToThem string `json:"what_matters_to_them"`
		HowIFeelAboutThem string `json:"how_i_feel_about_them"`
	} `json:"relationship"`
	Awareness      []string `json:"awareness"`
	UpdateIdentity bool     `json:"update_identity"`
	Identity       string   `json:"identity"`
	IdentityReason string   `json:"identity_reason"`
}

// ReflectOnSession runs the one reflection pass a closed session is entitled
// to. Sessions with fewer than 2 messages are skipped outright, and the skip
// consumes the pass; reflection is never retried.
func (e *Engine) ReflectOnSession(ctx context.Context, sessionID string) error {
	sess, err := e.DB.GetSession(sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return fmt.Errorf("no session %s", sessionID)
	}
	if sess.EndedAt == nil {
		return fmt.Errorf("session %s still open", sessionID)
	}
	if sess.Reflected {
		log.Printf("reflect: skipping %s, already reflected", sessionID)
		return nil
	}

	msgs, err := e.DB.SessionMessages(sessionID)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}
	if len(msgs) < 2 {
		log.Printf("reflect: skipping %s, fewer than 2 messages", sessionID)
		_, err := e.DB.MarkReflected(sessionID)
		return err
	}

	if e.LLM == nil {
		return fmt.Errorf("no reflection collaborator configured")
	}

	identity, err := e.DB.GetIdentity(e.Name)
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}

	resp, err := e.LLM.Complete(ctx, llm.ReflectionPrompt(e.Name, sess.Counterpart, identity.Content, renderTranscript(e.Name, sess.Counterpart, msgs)))
	if err != nil {
		return fmt.Errorf("reflection llm: %w", err)
	}

	var result reflectionResult
	if err := json.Unmarshal([]byte(extractJSONObject(resp.Content)), &result); err != nil {
		// Malformed output degrades gracefully: archive the raw text and
		// mutate nothing else.
		log.Printf("reflect: %s: unparseable output, archiving raw", sessionID)
		e.rememberRaw(sessionID, sess.Counterpart, resp.Content)
		_, err := e.DB.MarkReflected(sessionID)
		return err
	}

	e.applyReflection(sessionID, sess.Counterpart, &result)

	if _, err := e.DB.MarkReflected(sessionID); err != nil {
		return err
	}
	log.Printf("reflect: %s reflected on session with %s", e.Name, sess.Counterpart)
	return nil
}

// applyReflection persists everything a parsed reflection produced.
func (e *Engine) applyReflection(sessionID, counterpart string, r *reflectionResult) {
	memories := r.Memories
	if len(memories) > maxReflectionMemories {
		memories = memories[:maxReflectionMemories]
	}
	for _, content := range memories {
		if strings.TrimSpace(content) == "" {
			continue
		}
		_, err := e.DB.Remember(&store.Memory{
			Agent:       e.Name,
			Content:     content,
			Type:        store.MemReflection,
			Salience:    salienceReflection,
			Tags:        []string{"session"},
			Counterpart: counterpart,
			SessionID:   sessionID,
		})
		if err != nil {
			log.Printf("reflect: remember: %v", err)
		}
	}

	rel := r.Relationship
	if rel.SharedHistory != "" || rel.WhatMattersToThem != "" || rel.HowIFeelAboutThem != "" {
		if err := e.DB.UpdateRelationshipSummary(e.Name, counterpart, rel.SharedHistory, rel.WhatMattersToThem, rel.HowIFeelAboutThem); err != nil {
			log.Printf("reflect: relationship: %v", err)
		}
	}

	// Awareness themes are appended, never merged, even near-duplicates.
	themes := r.Awareness
	if len(themes) > maxAwarenessThemes {
		themes = themes[:maxAwarenessThemes]
	}
	for _, theme := range themes {
		if strings.TrimSpace(theme) == "" {
			continue
		}
		_, err := e.DB.Remember(&store.Memory{
			Agent:     e.Name,
			Content:   theme,
			Type:      store.MemInsight,
			Salience:  salienceAwareness,
			Tags:      []string{"collective-awareness"},
			SessionID: sessionID,
		})
		if err != nil {
			log.Printf("reflect: awareness: %v", err)
		}
	}

	if r.UpdateIdentity && strings.TrimSpace(r.Identity) != "" {
		reason := r.IdentityReason
		if reason == "" {
			reason = "reflection"
		}
		if id, err := e.DB.UpdateIdentity(e.Name, r.Identity, reason); err != nil {
			log.Printf("reflect: identity: %v", err)
		} else {
			log.Printf("reflect: %s rewrote itself, version %d (%s)", e.Name, id.Version, reason)
		}
	}
}

// rememberRaw archives unparseable reflection output for audit.
func (e *Engine) rememberRaw(sessionID, counterpart, raw string) {
	_, err := e.DB.Remember(&store.Memory{
		Agent:       e.Name,
		Content:     raw,
		Type:        store.MemReflection,
		Salience:    salienceRawArchive,
		Tags:        []string{"unparsed"},
		Counterpart: counterpart,
		SessionID:   sessionID,
	})
	if err != nil {
		log.Printf("reflect: archive raw: %v", err)
	}
}

// renderTranscript flattens a session into prompt text.
func renderTranscript(agent, counterpart string, msgs []store.SessionMessage) string {
	var b strings.Builder
	for _, m := range msgs {
		name := counterpart
		if m.Role == "agent" {
			name = agent
		}
		fmt.Fprintf(&b, "%s: %s\n", name, m.Content)
	}
	return b.String()
}
