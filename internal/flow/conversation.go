package flow

import (
	"sync"
	"time"

	"github.com/chris/zeroism/internal/llm"
)

// Conversation is the state kept for one chat identity.
type Conversation struct {
	mu sync.Mutex

	ID      string
	flow    *Definition
	step    int
	runID   string
	date    string
	started time.Time
	scratch Scratch
	pending []llm.Image
	history []llm.Message
}

func (c *Conversation) active() bool { return c.flow != nil }

// reset drops the active flow and everything it accumulated. History is
// kept.
func (c *Conversation) reset() {
	c.flow = nil
	c.step = 0
	c.runID = ""
	c.date = ""
	c.scratch = Scratch{}
	c.pending = nil
}

// Conversations is the keyed store of conversation state. Entries are
// created lazily on first access.
type Conversations struct {
	mu        sync.Mutex
	byID      map[string]*Conversation
	limit     int
	maxTokens int
}

// NewConversations bounds every free-chat history to limit messages and
// maxTokens estimated tokens.
func NewConversations(limit, maxTokens int) *Conversations {
	if maxTokens <= 0 {
		maxTokens = 50000
	}
	return &Conversations{byID: map[string]*Conversation{}, limit: limit, maxTokens: maxTokens}
}

func (s *Conversations) Get(id string) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		c = &Conversation{ID: id}
		s.byID[id] = c
	}
	return c
}

// History returns a copy of the conversation's free-chat history.
func (s *Conversations) History(id string) []llm.Message {
	c := s.Get(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]llm.Message(nil), c.history...)
}

// SaveHistory replaces the history, evicting the oldest messages past the
// bounds.
func (s *Conversations) SaveHistory(id string, history []llm.Message) {
	c := s.Get(id)
	bounded := llm.Window(history, s.limit, s.maxTokens)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append([]llm.Message(nil), bounded...)
}

// ClearHistory forgets the free-chat history.
func (s *Conversations) ClearHistory(id string) {
	c := s.Get(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}
