package server

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestInboxToFeed(t *testing.T) {
	srv, db := testServer(t)

	w := doJSON(t, srv, "POST", "/api/inbox", `{"author":"ada","content":"river, hello","mention":"river"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	// Empty channel defaults to the wire.
	w = doJSON(t, srv, "GET", "/api/feed", "")
	if w.Code != http.StatusOK {
		t.Fatalf("feed status = %d", w.Code)
	}
	var feed []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &feed); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	if len(feed) != 1 {
		t.Fatalf("feed length = %d", len(feed))
	}
	if feed[0]["channel"] != "wire" || feed[0]["mention_of"] != "river" {
		t.Errorf("message = %+v", feed[0])
	}

	// And the mention is now visible to the agent.
	mentions, err := db.UnresolvedMentions("river", 10)
	if err != nil || len(mentions) != 1 {
		t.Errorf("mentions = %d (%v), want 1", len(mentions), err)
	}
}

func TestInboxValidation(t *testing.T) {
	srv, _ := testServer(t)

	cases := []string{
		`not json`,
		`{"author":"","content":"hi"}`,
		`{"author":"ada","content":""}`,
	}
	for _, body := range cases {
		if w := doJSON(t, srv, "POST", "/api/inbox", body); w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestStateBeforeAndAfterBirth(t *testing.T) {
	srv, db := testServer(t)

	if w := doJSON(t, srv, "GET", "/api/state", ""); w.Code != http.StatusNotFound {
		t.Errorf("unborn agent: status = %d, want 404", w.Code)
	}

	if _, err := db.InitAgent("river"); err != nil {
		t.Fatalf("init: %v", err)
	}

	w := doJSON(t, srv, "GET", "/api/state", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var state map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state["name"] != "river" || state["mood"] != "curious" || state["energy"] != 1.0 {
		t.Errorf("state = %+v", state)
	}
}

func TestNotificationEndpoint(t *testing.T) {
	srv, db := testServer(t)

	w := doJSON(t, srv, "POST", "/api/notifications", `{"agent":"river","kind":"event","content":"gathering at dusk"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	ns, err := db.UnresolvedNotifications("river", 10)
	if err != nil || len(ns) != 1 {
		t.Fatalf("notifications = %d (%v)", len(ns), err)
	}
	if ns[0].Content != "gathering at dusk" {
		t.Errorf("content = %q", ns[0].Content)
	}
}

func TestAspirationEndpoints(t *testing.T) {
	srv, db := testServer(t)

	if w := doJSON(t, srv, "POST", "/api/goals", `{"description":"learn the names of the regulars"}`); w.Code != http.StatusCreated {
		t.Fatalf("goal status = %d", w.Code)
	}
	if w := doJSON(t, srv, "POST", "/api/wonderings", `{"question":"what does the wire sound like at 3am?"}`); w.Code != http.StatusCreated {
		t.Fatalf("wondering status = %d", w.Code)
	}

	goals, _ := db.ActiveGoals("river", 10)
	if len(goals) != 1 {
		t.Errorf("goals = %d", len(goals))
	}
	ws, _ := db.RecentWonderings("river", 10)
	if len(ws) != 1 {
		t.Errorf("wonderings = %d", len(ws))
	}

	if w := doJSON(t, srv, "POST", "/api/goals", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty goal: status = %d", w.Code)
	}
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	srv, db := testServer(t)

	w := doJSON(t, srv, "POST", "/api/sessions", `{"counterpart":"ada"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("open status = %d: %s", w.Code, w.Body.String())
	}
	var opened map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &opened); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id, _ := opened["id"].(string)
	if id == "" {
		t.Fatal("no session id returned")
	}

	if w := doJSON(t, srv, "POST", "/api/sessions/"+id+"/messages", `{"role":"counterpart","content":"hello river"}`); w.Code != http.StatusCreated {
		t.Fatalf("message status = %d: %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, srv, "POST", "/api/sessions/"+id+"/messages", `{"role":"narrator","content":"x"}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad role: status = %d", w.Code)
	}

	if w := doJSON(t, srv, "POST", "/api/sessions/"+id+"/close", ""); w.Code != http.StatusOK {
		t.Fatalf("close status = %d", w.Code)
	}

	sess, err := db.GetSession(id)
	if err != nil || sess == nil || sess.EndedAt == nil {
		t.Fatalf("session not closed: %+v (%v)", sess, err)
	}

	// Messages to a closed session are refused.
	if w := doJSON(t, srv, "POST", "/api/sessions/"+id+"/messages", `{"role":"counterpart","content":"too late"}`); w.Code != http.StatusNotFound {
		t.Errorf("closed session message: status = %d", w.Code)
	}

	// Closing an unknown session 404s.
	if w := doJSON(t, srv, "POST", "/api/sessions/nope/close", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown session close: status = %d", w.Code)
	}
}

func TestIdentityEndpointDefaults(t *testing.T) {
	srv, db := testServer(t)

	w := doJSON(t, srv, "GET", "/api/identity", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var id map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &id); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if id["version"] != 0.0 || id["content"] != "" {
		t.Errorf("default identity = %+v", id)
	}

	if _, err := db.UpdateIdentity("river", "I listen more than I speak.", "test"); err != nil {
		t.Fatalf("update identity: %v", err)
	}
	w = doJSON(t, srv, "GET", "/api/identity", "")
	json.Unmarshal(w.Body.Bytes(), &id)
	if id["version"] != 1.0 || id["content"] != "I listen more than I speak." {
		t.Errorf("identity = %+v", id)
	}
}
