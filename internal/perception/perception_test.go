package perception

import (
	"testing"
	"time"

	"github.com/undercurrent/river/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTimeOfDay(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{5, "morning"},
		{11, "morning"},
		{12, "afternoon"},
		{16, "afternoon"},
		{17, "evening"},
		{21, "evening"},
		{22, "night"},
		{3, "night"},
		{0, "night"},
	}
	for _, tt := range tests {
		if got := TimeOfDay(tt.hour); got != tt.want {
			t.Errorf("TimeOfDay(%d) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestBuildExcludesRespondedMentions(t *testing.T) {
	db := testDB(t)

	first, _ := db.AppendFeedMessage(store.ChannelWire, "ada", "river, hello?", "river")
	second, _ := db.AppendFeedMessage(store.ChannelWire, "bea", "river, still around?", "river")

	p, err := Build(db, "river", time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(p.Mentions) != 2 {
		t.Fatalf("mentions = %d, want 2", len(p.Mentions))
	}
	if p.Mentions[0].ID != first {
		t.Errorf("mentions not oldest-first: %d", p.Mentions[0].ID)
	}

	if err := db.MarkResponded("river", first); err != nil {
		t.Fatal(err)
	}

	// A repeated build never surfaces a handled mention.
	p, err = Build(db, "river", time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(p.Mentions) != 1 || p.Mentions[0].ID != second {
		t.Errorf("after responding, mentions = %v", p.Mentions)
	}
}

func TestBuildActiveUsers(t *testing.T) {
	db := testDB(t)

	db.AppendFeedMessage(store.ChannelWire, "ada", "one", "")
	db.AppendFeedMessage(store.ChannelAgora, "bea", "two", "")
	db.AppendFeedMessage(store.ChannelWire, "ada", "three", "")
	db.AppendFeedMessage(store.ChannelWire, "river", "me too", "")

	p, err := Build(db, "river", time.Now())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(p.ActiveUsers) != 2 {
		t.Fatalf("active users = %v, want 2 distinct", p.ActiveUsers)
	}
	for _, u := range p.ActiveUsers {
		if u == "river" {
			t.Error("agent listed among its own active users")
		}
	}
}

func TestBuildDigestAndBuckets(t *testing.T) {
	db := testDB(t)

	db.AppendFeedMessage(store.ChannelWire, "ada", "the stream is bright today", "")
	db.AppendEvent("enter-group", "bea", "commons")

	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	p, err := Build(db, "river", now)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.TimeOfDay != "morning" {
		t.Errorf("time of day = %q", p.TimeOfDay)
	}
	if p.DayName != "Wednesday" {
		t.Errorf("day = %q", p.DayName)
	}
	if p.Digest == "" {
		t.Error("empty digest with recent activity")
	}

	// Notifications surface too.
	db.AddNotification("river", "system", "a new follower")
	p, _ = Build(db, "river", now)
	if len(p.Notifications) != 1 {
		t.Errorf("notifications = %d, want 1", len(p.Notifications))
	}
}
