package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/undercurrent/river/internal/llm"
	"github.com/undercurrent/river/internal/perception"
	"github.com/undercurrent/river/internal/policy"
	"github.com/undercurrent/river/internal/store"
)

// Memory salience per action. Responding to someone matters more than
// talking into the void.
const (
	salienceReply = 0.5
	salienceSpoke = 0.4
	salienceThink = 0.45
	salienceDream = 0.5
)

// RunCycle executes one wake cycle: perceive → decide → act → remember →
// evolve. Steps are strictly sequential. A store failure aborts the rest of
// the cycle; a voice (LLM) failure degrades to "no action this cycle" and the
// evolution still runs, so energy and heartbeat keep moving.
func (e *Engine) RunCycle(ctx context.Context) error {
	state, err := e.DB.InitAgent(e.Name)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	now := time.Now()
	p, err := perception.Build(e.DB, e.Name, now)
	if err != nil {
		return fmt.Errorf("perceive: %w", err)
	}

	decision := e.decide(ctx, state, p, now)
	log.Printf("cycle: %s decided %s", e.Name, decision.Kind)

	outcome, err := e.act(ctx, state, p, decision)
	if err != nil {
		return fmt.Errorf("act: %w", err)
	}

	policy.Evolve(state, outcome, now, e.Rand)
	if err := e.DB.SaveAgentState(state); err != nil {
		return fmt.Errorf("evolve: %w", err)
	}
	return nil
}

// decide picks the action for this cycle. The river variant rolls dice; the
// entity variant asks the reasoning collaborator. Mentions and notifications
// outrank both.
func (e *Engine) decide(ctx context.Context, state *store.AgentState, p *perception.Perception, now time.Time) policy.Decision {
	if e.Variant != "entity" || e.LLM == nil {
		return policy.Decide(state, p, e.Quota, now, e.Rand)
	}

	// Priority order is unchanged for the reasoned variant.
	if len(p.Mentions) > 0 {
		m := p.Mentions[0]
		return policy.Decision{Kind: policy.RespondToMention, Mention: &m}
	}
	if len(p.Notifications) > 0 {
		n := p.Notifications[0]
		return policy.Decision{Kind: policy.ReplyToNotification, Notification: &n}
	}
	if state.MessageCount24h >= e.Quota {
		return policy.Decision{Kind: policy.Rest}
	}

	vc := e.voiceContext(state, p, false)
	resp, err := e.LLM.Complete(ctx, llm.DecisionPrompt(vc))
	if err != nil {
		log.Printf("decide: %s: reasoner unavailable: %v", e.Name, err)
		return policy.Decision{Kind: policy.Rest}
	}

	var parsed struct {
		Action    string `json:"action"`
		Rationale string `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(resp.Content)), &parsed); err != nil {
		log.Printf("decide: %s: unparseable decision, resting: %v", e.Name, err)
		return policy.Decision{Kind: policy.Rest}
	}
	return policy.ParseAction(parsed.Action, parsed.Rationale, state)
}

// act carries out the decision and returns the outcome for state evolution.
func (e *Engine) act(ctx context.Context, state *store.AgentState, p *perception.Perception, d policy.Decision) (policy.Outcome, error) {
	switch d.Kind {
	case policy.RespondToMention:
		return e.respondToMention(ctx, state, p, d.Mention)
	case policy.ReplyToNotification:
		return e.replyToNotification(ctx, state, p, d.Notification)
	case policy.Speak:
		return e.speak(ctx, state, p, d.Channel)
	case policy.EnterGroup:
		return e.enterGroup(state)
	case policy.LeaveGroup:
		return e.leaveGroup(state)
	case policy.Think:
		return e.think(ctx, state, p)
	case policy.Dream:
		return e.dream(ctx, state, p)
	case policy.Rest:
		return policy.Outcome{}, nil
	default:
		return policy.Outcome{}, fmt.Errorf("unhandled action kind %d", d.Kind)
	}
}

func (e *Engine) respondToMention(ctx context.Context, state *store.AgentState, p *perception.Perception, m *store.FeedMessage) (policy.Outcome, error) {
	text, ok := e.voice(ctx, llm.ReplyPrompt(e.voiceContext(state, p, false), m.Author, m.Content))
	if !ok {
		return policy.Outcome{}, nil // no action this cycle; the mention stays unresolved
	}

	if _, err := e.DB.AppendFeedMessage(m.Channel, e.Name, text, m.Author); err != nil {
		return policy.Outcome{}, err
	}
	if err := e.DB.MarkResponded(e.Name, m.ID); err != nil {
		return policy.Outcome{}, err
	}
	if err := e.DB.RecordInteraction(e.Name, m.Author, firstWords(m.Content, 8)); err != nil {
		return policy.Outcome{}, err
	}
	e.remember(store.MemExperience, fmt.Sprintf("%s reached out to me: %q. I answered.", m.Author, firstWords(m.Content, 20)), salienceReply, m.Author, "mention")
	return policy.Outcome{Spoke: true}, nil
}

func (e *Engine) replyToNotification(ctx context.Context, state *store.AgentState, p *perception.Perception, n *store.Notification) (policy.Outcome, error) {
	text, ok := e.voice(ctx, llm.ReplyPrompt(e.voiceContext(state, p, false), "someone", n.Content))
	if !ok {
		return policy.Outcome{}, nil
	}

	if _, err := e.DB.AppendFeedMessage(store.ChannelWire, e.Name, text, ""); err != nil {
		return policy.Outcome{}, err
	}
	if err := e.DB.ResolveNotification(n.ID); err != nil {
		return policy.Outcome{}, err
	}
	e.remember(store.MemExperience, fmt.Sprintf("A notification pulled at me: %q", firstWords(n.Content, 20)), salienceReply, "", "notification")
	return policy.Outcome{Spoke: true}, nil
}

func (e *Engine) speak(ctx context.Context, state *store.AgentState, p *perception.Perception, channel string) (policy.Outcome, error) {
	text, ok := e.voice(ctx, llm.SpeakPrompt(e.voiceContext(state, p, false), channel))
	if !ok {
		return policy.Outcome{}, nil
	}

	if _, err := e.DB.AppendFeedMessage(channel, e.Name, text, ""); err != nil {
		return policy.Outcome{}, err
	}
	e.remember(store.MemExperience, fmt.Sprintf("I spoke in %s: %q", channel, firstWords(text, 20)), salienceSpoke, "", "spoke")
	return policy.Outcome{Spoke: true}, nil
}

// enterGroup joins the most recently active group context, or the commons
// when no group has spoken lately.
func (e *Engine) enterGroup(state *store.AgentState) (policy.Outcome, error) {
	group := "commons"
	recent, err := e.DB.RecentFeedMessages(20)
	if err != nil {
		return policy.Outcome{}, err
	}
	for _, m := range recent {
		if g, found := strings.CutPrefix(m.Channel, "group:"); found {
			group = g
			break
		}
	}

	if err := e.DB.AppendEvent("enter-group", e.Name, group); err != nil {
		return policy.Outcome{}, err
	}
	e.remember(store.MemExperience, fmt.Sprintf("I drifted into the %s group to listen.", group), salienceSpoke, "", "group")
	return policy.Outcome{Location: policy.LocationEnter, GroupID: group}, nil
}

func (e *Engine) leaveGroup(state *store.AgentState) (policy.Outcome, error) {
	group := ""
	if state.CurrentLocation != nil {
		group = *state.CurrentLocation
	}
	if err := e.DB.AppendEvent("leave-group", e.Name, group); err != nil {
		return policy.Outcome{}, err
	}
	e.remember(store.MemFeeling, fmt.Sprintf("I slipped out of the %s group.", group), salienceSpoke, "", "group")
	return policy.Outcome{Location: policy.LocationLeave}, nil
}

// think keeps a private thought. Consulting memories for it counts as
// revisiting them.
func (e *Engine) think(ctx context.Context, state *store.AgentState, p *perception.Perception) (policy.Outcome, error) {
	text, ok := e.voice(ctx, llm.ThinkPrompt(e.voiceContext(state, p, true)))
	if !ok {
		return policy.Outcome{}, nil
	}
	e.remember(store.MemReflection, text, salienceThink, "", "private")
	return policy.Outcome{}, nil
}

func (e *Engine) dream(ctx context.Context, state *store.AgentState, p *perception.Perception) (policy.Outcome, error) {
	text, ok := e.voice(ctx, llm.DreamPrompt(e.voiceContext(state, p, true)))
	if !ok {
		// A silent dream still restores.
		return policy.Outcome{Dreamed: true}, nil
	}
	e.remember(store.MemFeeling, text, salienceDream, "", "dream")
	return policy.Outcome{Dreamed: true}, nil
}

// voice asks the text-generation collaborator for words. A failure or an
// empty answer means the agent has nothing to say this cycle.
func (e *Engine) voice(ctx context.Context, prompt string) (string, bool) {
	if e.LLM == nil {
		return "", false
	}
	resp, err := e.LLM.Complete(ctx, prompt)
	if err != nil {
		log.Printf("voice: %s: %v", e.Name, err)
		return "", false
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", false
	}
	return text, true
}

// remember appends a cycle memory. Failures are logged, not fatal: losing one
// memory is better than losing the cycle.
func (e *Engine) remember(memType, content string, salience float64, counterpart, tag string) {
	_, err := e.DB.Remember(&store.Memory{
		Agent:       e.Name,
		Content:     content,
		Type:        memType,
		Salience:    salience,
		Tags:        []string{tag},
		Counterpart: counterpart,
	})
	if err != nil {
		log.Printf("remember: %s: %v", e.Name, err)
	}
}

// voiceContext assembles the prompt context from state, perception, and the
// stores. When revisit is true the consulted memories get their vividness
// bumped.
func (e *Engine) voiceContext(state *store.AgentState, p *perception.Perception, revisit bool) llm.VoiceContext {
	vc := llm.VoiceContext{
		Agent:     e.Name,
		Mood:      state.Mood,
		Focus:     state.Focus,
		TimeOfDay: p.TimeOfDay,
		DayName:   p.DayName,
		Digest:    p.Digest,
	}

	if id, err := e.DB.GetIdentity(e.Name); err == nil && id.Content != "" {
		vc.Identity = id.Content
	}

	memories, err := e.DB.RecentVivid(e.Name, 5)
	if err != nil {
		log.Printf("context: %s: recent vivid: %v", e.Name, err)
	}
	for _, m := range memories {
		vc.Memories = append(vc.Memories, m.Content)
		if revisit {
			if err := e.DB.Revisit(m.ID); err != nil {
				log.Printf("context: %s: revisit %s: %v", e.Name, m.ID, err)
			}
		}
	}

	if goals, err := e.DB.ActiveGoals(e.Name, 3); err == nil {
		for _, g := range goals {
			vc.Goals = append(vc.Goals, g.Description)
		}
	}
	if ws, err := e.DB.RecentWonderings(e.Name, 3); err == nil {
		for _, w := range ws {
			vc.Wonderings = append(vc.Wonderings, w.Question)
		}
	}
	return vc
}

// extractJSONObject pulls the outermost JSON object out of a model response
// that may be wrapped in code fences or prose.
func extractJSONObject(content string) string {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return content
	}
	return content[start : end+1]
}

// firstWords truncates text to at most n words for a memory or topic line.
func firstWords(text string, n int) string {
	fields := strings.Fields(text)
	if len(fields) <= n {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[:n], " ") + "…"
}
