// Package perception builds the bounded snapshot of world state an agent
// sees when it wakes. Pure read and transform: nothing here writes.
package perception

import (
	"fmt"
	"strings"
	"time"

	"github.com/undercurrent/river/internal/store"
)

// Default bounds for a snapshot. Every read is limited; the feed itself is
// unbounded but a perception never is.
const (
	eventLookback     = time.Hour
	maxRecentMessages = 20
	maxMentions       = 10
	maxNotifications  = 10
	maxEvents         = 30
)

// Perception is what one wake cycle gets to see.
type Perception struct {
	Digest        string
	Mentions      []store.FeedMessage
	Notifications []store.Notification
	ActiveUsers   []string
	TimeOfDay     string
	DayName       string
}

// Build assembles a perception for the agent as of now.
// Mentions already in the responded set are excluded, which is what makes
// mention handling at-most-once.
func Build(db *store.DB, agent string, now time.Time) (*Perception, error) {
	messages, err := db.RecentFeedMessages(maxRecentMessages)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}

	mentions, err := db.UnresolvedMentions(agent, maxMentions)
	if err != nil {
		return nil, fmt.Errorf("unresolved mentions: %w", err)
	}

	notifications, err := db.UnresolvedNotifications(agent, maxNotifications)
	if err != nil {
		return nil, fmt.Errorf("unresolved notifications: %w", err)
	}

	events, err := db.RecentEvents(now.Add(-eventLookback), maxEvents)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}

	return &Perception{
		Digest:        digest(messages, events),
		Mentions:      mentions,
		Notifications: notifications,
		ActiveUsers:   activeUsers(messages, agent),
		TimeOfDay:     TimeOfDay(now.Hour()),
		DayName:       now.Weekday().String(),
	}, nil
}

// TimeOfDay buckets a wall-clock hour.
func TimeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

// activeUsers returns the distinct authors in the recent messages,
// excluding the perceiving agent itself, in first-seen order.
func activeUsers(messages []store.FeedMessage, agent string) []string {
	seen := make(map[string]bool)
	var users []string
	for _, m := range messages {
		if m.Author == agent || seen[m.Author] {
			continue
		}
		seen[m.Author] = true
		users = append(users, m.Author)
	}
	return users
}

// digest renders recent activity as a compact free-text summary for prompts.
func digest(messages []store.FeedMessage, events []store.Event) string {
	var b strings.Builder
	for _, m := range messages {
		content := m.Content
		if len(content) > 160 {
			content = content[:160] + "…"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.Channel, m.Author, content)
	}
	for _, e := range events {
		if e.Kind == "message" {
			continue // already covered by the messages above
		}
		fmt.Fprintf(&b, "(%s) %s %s\n", e.Kind, e.Actor, e.Detail)
	}
	return strings.TrimSpace(b.String())
}
