package store

import (
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRememberAndGet(t *testing.T) {
	db := testDB(t)

	id, err := db.Remember(&Memory{
		Agent:       "river",
		Content:     "The wire went quiet around midnight",
		Type:        MemExperience,
		Salience:    0.4,
		Tags:        []string{"night"},
		Counterpart: "ada",
	})
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}

	m, err := db.GetMemory(id)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if m == nil {
		t.Fatal("expected memory")
	}
	if m.Content != "The wire went quiet around midnight" {
		t.Errorf("content = %q", m.Content)
	}
	if m.RevisitCount != 0 {
		t.Errorf("revisit_count = %d, want 0", m.RevisitCount)
	}
	if m.CreatedAt != m.LastRevisitedAt {
		t.Errorf("created_at %d != last_revisited_at %d on fresh memory", m.CreatedAt, m.LastRevisitedAt)
	}
	if len(m.Tags) != 1 || m.Tags[0] != "night" {
		t.Errorf("tags = %v", m.Tags)
	}
	if m.Counterpart != "ada" {
		t.Errorf("counterpart = %q", m.Counterpart)
	}
}

func TestRecentVividOrdersByRevisit(t *testing.T) {
	db := testDB(t)

	oldID, err := db.Remember(&Memory{Agent: "river", Content: "old", Type: MemExperience, Salience: 0.5})
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}
	// Push the old memory's revisit time into the past, then add a newer one.
	if _, err := db.Exec(`UPDATE memories SET last_revisited_at = last_revisited_at - 100000 WHERE id = ?`, oldID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Remember(&Memory{Agent: "river", Content: "new", Type: MemExperience, Salience: 0.5}); err != nil {
		t.Fatalf("Remember: %v", err)
	}

	vivid, err := db.RecentVivid("river", 10)
	if err != nil {
		t.Fatalf("RecentVivid: %v", err)
	}
	if len(vivid) != 2 {
		t.Fatalf("expected 2 memories, got %d", len(vivid))
	}
	if vivid[0].Content != "new" {
		t.Errorf("expected new memory first, got %q", vivid[0].Content)
	}

	// Revisiting the old memory makes it the most vivid again.
	if err := db.Revisit(oldID); err != nil {
		t.Fatalf("Revisit: %v", err)
	}
	vivid, err = db.RecentVivid("river", 10)
	if err != nil {
		t.Fatalf("RecentVivid: %v", err)
	}
	if vivid[0].Content != "old" {
		t.Errorf("expected revisited old memory first, got %q", vivid[0].Content)
	}
	if vivid[0].RevisitCount != 1 {
		t.Errorf("revisit_count = %d, want 1", vivid[0].RevisitCount)
	}
}

func TestFadingCandidateConjunction(t *testing.T) {
	now := time.Now()
	old := now.Add(-40 * 24 * time.Hour).UnixMilli()

	tests := []struct {
		name string
		mem  Memory
		want bool
	}{
		{
			name: "old faint untouched fades",
			mem:  Memory{Salience: 0.1, LastRevisitedAt: old, RevisitCount: 0},
			want: true,
		},
		{
			name: "salience 0.5 blocks regardless of age",
			mem:  Memory{Salience: 0.5, LastRevisitedAt: old, RevisitCount: 0},
			want: false,
		},
		{
			name: "one revisit preserves forever",
			mem:  Memory{Salience: 0.1, LastRevisitedAt: old, RevisitCount: 1},
			want: false,
		},
		{
			name: "recent memory never fades",
			mem:  Memory{Salience: 0.1, LastRevisitedAt: now.UnixMilli(), RevisitCount: 0},
			want: false,
		},
		{
			name: "salience exactly 0.3 blocks",
			mem:  Memory{Salience: 0.3, LastRevisitedAt: old, RevisitCount: 0},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FadingCandidate(&tt.mem, now); got != tt.want {
				t.Errorf("FadingCandidate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFadingCandidatesQuery(t *testing.T) {
	db := testDB(t)

	fadeID, _ := db.Remember(&Memory{Agent: "river", Content: "faint", Type: MemExperience, Salience: 0.1})
	keepID, _ := db.Remember(&Memory{Agent: "river", Content: "strong", Type: MemExperience, Salience: 0.8})

	// Age both past the cutoff.
	old := time.Now().Add(-40 * 24 * time.Hour).UnixMilli()
	if _, err := db.Exec(`UPDATE memories SET last_revisited_at = ?`, old); err != nil {
		t.Fatal(err)
	}

	candidates, err := db.FadingCandidates("river", time.Now())
	if err != nil {
		t.Fatalf("FadingCandidates: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].ID != fadeID {
		t.Errorf("candidate = %s, want %s", candidates[0].ID, fadeID)
	}
	_ = keepID
}

func TestForgetIdempotent(t *testing.T) {
	db := testDB(t)

	id, err := db.Remember(&Memory{Agent: "river", Content: "fleeting", Type: MemFeeling, Salience: 0.1})
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}

	if err := db.Forget(id, "faded"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	// Second forget is a no-op, not an error.
	if err := db.Forget(id, "faded"); err != nil {
		t.Fatalf("second Forget: %v", err)
	}

	m, err := db.GetMemory(id)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if m != nil {
		t.Error("memory still active after forget")
	}

	// Archived exactly once, content verbatim.
	var count int
	var content, reason string
	if err := db.QueryRow(`SELECT COUNT(*) FROM forgotten_memories WHERE id = ?`, id).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("archive rows = %d, want 1", count)
	}
	if err := db.QueryRow(`SELECT content, reason FROM forgotten_memories WHERE id = ?`, id).Scan(&content, &reason); err != nil {
		t.Fatal(err)
	}
	if content != "fleeting" {
		t.Errorf("archived content = %q", content)
	}
	if reason != "faded" {
		t.Errorf("archived reason = %q", reason)
	}
}
