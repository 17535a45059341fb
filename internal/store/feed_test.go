package store

import (
	"testing"
	"time"
)

func TestMentionExclusionSet(t *testing.T) {
	db := testDB(t)

	first, err := db.AppendFeedMessage(ChannelWire, "ada", "hey river, you there?", "river")
	if err != nil {
		t.Fatalf("AppendFeedMessage: %v", err)
	}
	second, err := db.AppendFeedMessage(ChannelWire, "bea", "river what do you think", "river")
	if err != nil {
		t.Fatalf("AppendFeedMessage: %v", err)
	}

	mentions, err := db.UnresolvedMentions("river", 10)
	if err != nil {
		t.Fatalf("UnresolvedMentions: %v", err)
	}
	if len(mentions) != 2 {
		t.Fatalf("mentions = %d, want 2", len(mentions))
	}
	// Oldest first, so handling is deterministic.
	if mentions[0].ID != first {
		t.Errorf("first mention id = %d, want %d", mentions[0].ID, first)
	}

	if err := db.MarkResponded("river", first); err != nil {
		t.Fatalf("MarkResponded: %v", err)
	}
	// Marking again is a no-op.
	if err := db.MarkResponded("river", first); err != nil {
		t.Fatalf("second MarkResponded: %v", err)
	}

	mentions, err = db.UnresolvedMentions("river", 10)
	if err != nil {
		t.Fatalf("UnresolvedMentions: %v", err)
	}
	if len(mentions) != 1 || mentions[0].ID != second {
		t.Errorf("after responding, mentions = %v", mentions)
	}
}

func TestMentionsScopedToAgent(t *testing.T) {
	db := testDB(t)

	if _, err := db.AppendFeedMessage(ChannelAgora, "ada", "entity, a question", "entity"); err != nil {
		t.Fatal(err)
	}

	mentions, err := db.UnresolvedMentions("river", 10)
	if err != nil {
		t.Fatalf("UnresolvedMentions: %v", err)
	}
	if len(mentions) != 0 {
		t.Errorf("river sees %d mentions addressed to entity", len(mentions))
	}
}

func TestNotifications(t *testing.T) {
	db := testDB(t)

	id, err := db.AddNotification("river", "system", "someone followed you")
	if err != nil {
		t.Fatalf("AddNotification: %v", err)
	}

	pending, err := db.UnresolvedNotifications("river", 10)
	if err != nil {
		t.Fatalf("UnresolvedNotifications: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id {
		t.Fatalf("pending = %v", pending)
	}

	if err := db.ResolveNotification(id); err != nil {
		t.Fatalf("ResolveNotification: %v", err)
	}
	pending, _ = db.UnresolvedNotifications("river", 10)
	if len(pending) != 0 {
		t.Errorf("still pending after resolve: %v", pending)
	}
}

func TestPublishAppendsEvent(t *testing.T) {
	db := testDB(t)

	if _, err := db.AppendFeedMessage(ChannelSignal, "river", "a long thought", ""); err != nil {
		t.Fatalf("AppendFeedMessage: %v", err)
	}

	events, err := db.RecentEvents(time.Now().Add(-time.Minute), 10)
	if err != nil {
		t.Fatalf("RecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Kind != "message" || events[0].Actor != "river" {
		t.Errorf("event = %s/%s", events[0].Kind, events[0].Actor)
	}
}

func TestRelationshipLedger(t *testing.T) {
	db := testDB(t)

	if err := db.RecordInteraction("river", "ada", "midnight quiet"); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	if err := db.RecordInteraction("river", "ada", "morning light"); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	r, err := db.GetRelationship("river", "ada")
	if err != nil {
		t.Fatalf("GetRelationship: %v", err)
	}
	if r == nil {
		t.Fatal("expected relationship")
	}
	if r.InteractionCount != 2 {
		t.Errorf("interaction_count = %d, want 2", r.InteractionCount)
	}
	if r.RecentTopic != "morning light" {
		t.Errorf("recent_topic = %q (last write wins)", r.RecentTopic)
	}
	if r.FirstSeen > r.LastSeen {
		t.Errorf("first_seen %d after last_seen %d", r.FirstSeen, r.LastSeen)
	}

	// Reflection overwrites the summary fields wholesale, counters untouched.
	if err := db.UpdateRelationshipSummary("river", "ada", "we met at night", "quiet things", "warm"); err != nil {
		t.Fatalf("UpdateRelationshipSummary: %v", err)
	}
	r, _ = db.GetRelationship("river", "ada")
	if r.SharedHistory != "we met at night" || r.HowIFeel != "warm" {
		t.Errorf("summary = %q / %q", r.SharedHistory, r.HowIFeel)
	}
	if r.InteractionCount != 2 {
		t.Errorf("interaction_count disturbed by summary: %d", r.InteractionCount)
	}
}

func TestAspirations(t *testing.T) {
	db := testDB(t)

	gid, err := db.AddGoal("river", "understand why the agora empties at dusk")
	if err != nil {
		t.Fatalf("AddGoal: %v", err)
	}
	if _, err := db.AddWondering("river", "do the others dream?"); err != nil {
		t.Fatalf("AddWondering: %v", err)
	}

	goals, err := db.ActiveGoals("river", 5)
	if err != nil {
		t.Fatalf("ActiveGoals: %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("goals = %d, want 1", len(goals))
	}

	if err := db.ResolveGoal(gid); err != nil {
		t.Fatalf("ResolveGoal: %v", err)
	}
	goals, _ = db.ActiveGoals("river", 5)
	if len(goals) != 0 {
		t.Errorf("resolved goal still active")
	}

	ws, err := db.RecentWonderings("river", 5)
	if err != nil {
		t.Fatalf("RecentWonderings: %v", err)
	}
	if len(ws) != 1 || ws[0].Question != "do the others dream?" {
		t.Errorf("wonderings = %v", ws)
	}
}
