package state

import (
	"errors"
	"maps"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Chative-Shopping-Assistant/agent/contract"
)

const (
	PreferredColor = "preferred_color"
	PreferredSize  = "preferred_size"

	contextLastTools = "last_tools"
	contextTurns     = "turns"
)

var (
	ErrStateNotFound   = errors.New("session state not found")
	ErrNilSessionState = errors.New("session state is nil")
	ErrInvalidSession  = errors.New("session id is empty")
)

// SessionState accumulates everything known about one shopping conversation.
type SessionState struct {
	SessionID string `json:"session_id"`

	SearchHistory []SearchEntry     `json:"search_history,omitempty"`
	Preferences   map[string]string `json:"preferences,omitempty"`
	ActiveFilters map[string]string `json:"active_filters,omitempty"`
	CartID        string            `json:"cart_id,omitempty"`
	Context       map[string]any    `json:"context,omitempty"`
	Messages      []*schema.Message `json:"messages,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchEntry is one user utterance together with the context it was said in.
type SearchEntry struct {
	Query     string                   `json:"query"`
	Timestamp time.Time                `json:"timestamp"`
	Context   contractx.SessionContext `json:"context"`
}

func NewSessionState(sessionID string, now time.Time) *SessionState {
	st := &SessionState{
		SessionID: sessionID,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	st.EnsureMaps()
	return st
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// EnsureMaps makes sure every map field is initialized.
func (s *SessionState) EnsureMaps() {
	if s.Preferences == nil {
		s.Preferences = make(map[string]string, 2)
	}
	if s.ActiveFilters == nil {
		s.ActiveFilters = make(map[string]string, 4)
	}
	if s.Context == nil {
		s.Context = make(map[string]any, 2)
	}
}

// Snapshot copies the part of the state the agent sees on a turn.
func (s *SessionState) Snapshot() contractx.SessionContext {
	return contractx.SessionContext{
		CartID:        s.CartID,
		Preferences:   maps.Clone(s.Preferences),
		ActiveFilters: maps.Clone(s.ActiveFilters),
	}
}

// RecordTurn appends the utterance to the search history and merges any
// color or size preference it mentions.
func (s *SessionState) RecordTurn(text string, now time.Time) {
	s.EnsureMaps()
	s.SearchHistory = append(s.SearchHistory, SearchEntry{
		Query:     text,
		Timestamp: now.UTC(),
		Context:   s.Snapshot(),
	})
	maps.Copy(s.Preferences, ExtractPreferences(text))

	turns, _ := s.Context[contextTurns].(float64)
	s.Context[contextTurns] = turns + 1
	s.Touch(now)
}

// ApplyEffects folds the structured side information of tool calls into the state.
func (s *SessionState) ApplyEffects(results []contractx.ToolResult, now time.Time) {
	if len(results) == 0 {
		return
	}
	s.EnsureMaps()

	tools := make([]string, 0, len(results))
	for _, r := range results {
		tools = append(tools, r.Tool)
		if r.Error != "" || r.Effects == nil {
			continue
		}
		if r.Effects.CartID != "" {
			s.CartID = r.Effects.CartID
		}
		if r.Effects.Filters != nil {
			s.ActiveFilters = maps.Clone(r.Effects.Filters)
		}
	}
	s.Context[contextLastTools] = strings.Join(tools, ",")
	s.Touch(now)
}

func (s *SessionState) AppendMessages(msgs ...*schema.Message) {
	for _, m := range msgs {
		if m != nil {
			s.Messages = append(s.Messages, m)
		}
	}
}

// HistoryWindow returns at most limit trailing messages. The window always
// starts on a user message so tool calls are never separated from their results.
// A limit <= 0 returns the whole history.
func (s *SessionState) HistoryWindow(limit int) []*schema.Message {
	start := 0
	if limit > 0 && len(s.Messages) > limit {
		start = len(s.Messages) - limit
	}
	for start < len(s.Messages) && s.Messages[start].Role != schema.User {
		start++
	}
	if start >= len(s.Messages) {
		return nil
	}
	out := make([]*schema.Message, len(s.Messages)-start)
	copy(out, s.Messages[start:])
	return out
}

// LastActivity is the time of the most recent turn, or the creation time.
func (s *SessionState) LastActivity() time.Time {
	if n := len(s.SearchHistory); n > 0 {
		return s.SearchHistory[n-1].Timestamp
	}
	return s.UpdatedAt
}

func (s *SessionState) Validate() error {
	if s == nil {
		return ErrNilSessionState
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	for _, m := range s.Messages {
		if m == nil {
			return errors.New("session history contains a nil message")
		}
	}
	return nil
}
