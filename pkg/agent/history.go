package agent

import (
	"sync"

	"github.com/research-copilot/copilot/pkg/llms"
)

// HistoryService keeps a bounded per-session conversation transcript.
// Only user turns and final answers are stored; intermediate tool
// traffic is transient.
type HistoryService struct {
	mu       sync.RWMutex
	maxSize  int
	sessions map[string][]llms.Message
}

// NewHistoryService creates a history service keeping at most maxSize
// messages per session.
func NewHistoryService(maxSize int) *HistoryService {
	if maxSize <= 0 {
		maxSize = 20
	}
	return &HistoryService{
		maxSize:  maxSize,
		sessions: make(map[string][]llms.Message),
	}
}

// Append records a message, evicting the oldest when over capacity.
func (h *HistoryService) Append(sessionID string, msg llms.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := append(h.sessions[sessionID], msg)
	if len(msgs) > h.maxSize {
		msgs = msgs[len(msgs)-h.maxSize:]
	}
	h.sessions[sessionID] = msgs
}

// Get returns a copy of the session's transcript.
func (h *HistoryService) Get(sessionID string) []llms.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msgs := h.sessions[sessionID]
	out := make([]llms.Message, len(msgs))
	copy(out, msgs)
	return out
}

// Clear drops the session's transcript.
func (h *HistoryService) Clear(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, sessionID)
}

// Len returns the number of stored messages for a session.
func (h *HistoryService) Len(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
