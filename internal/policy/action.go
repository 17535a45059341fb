// Package policy decides what an agent does with one wake cycle and evolves
// its internal state afterward. Both halves are pure given an injected
// random source, so tests can force any branch.
package policy

import "github.com/undercurrent/river/internal/store"

// Kind is the closed set of things an agent can do with a wake cycle.
type Kind int

const (
	Rest Kind = iota
	RespondToMention
	ReplyToNotification
	Speak
	EnterGroup
	LeaveGroup
	Think
	Dream
)

// String returns the wire name of the action kind.
func (k Kind) String() string {
	switch k {
	case Rest:
		return "rest"
	case RespondToMention:
		return "respond-to-mention"
	case ReplyToNotification:
		return "reply-to-notification"
	case Speak:
		return "speak"
	case EnterGroup:
		return "enter-group"
	case LeaveGroup:
		return "leave-group"
	case Think:
		return "think"
	case Dream:
		return "dream"
	default:
		return "unknown"
	}
}

// Decision is one bounded action chosen for a wake cycle.
type Decision struct {
	Kind         Kind
	Channel      string              // set when Kind == Speak
	Mention      *store.FeedMessage  // set when Kind == RespondToMention
	Notification *store.Notification // set when Kind == ReplyToNotification
	Rationale    string              // set by the reasoned variant
}

// Rand is the injected randomness the policy draws from. *math/rand.Rand
// satisfies it; tests use a scripted source.
type Rand interface {
	Float64() float64
	Intn(n int) int
}
