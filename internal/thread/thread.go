package thread

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn. Append-only within a thread.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the persisted thread layout: an ordered message array plus the
// thread identity, stored as one JSON document under a fixed key.
type State struct {
	ThreadID  string    `json:"thread_id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Manager owns one conversation thread: an append-only log with a hard cap
// (FIFO eviction) and a smaller context window used for prompt assembly.
//
// Reads and writes go through the configured Store. Writes are
// read-modify-write without cross-process coordination; two concurrent
// writers race and the last write wins.
type Manager struct {
	store       Store
	maxMessages int
	maxContext  int

	mu    sync.Mutex
	state State
}

// NewManager loads the persisted thread from store. Corrupted or malformed
// stored state is discarded and replaced with a fresh empty thread; that is
// never an error.
func NewManager(ctx context.Context, store Store, maxMessages, maxContext int) (*Manager, error) {
	if maxMessages <= 0 {
		maxMessages = 50
	}
	if maxContext <= 0 || maxContext > maxMessages {
		maxContext = 20
		if maxContext > maxMessages {
			maxContext = maxMessages
		}
	}

	m := &Manager{store: store, maxMessages: maxMessages, maxContext: maxContext}

	raw, err := store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		var st State
		if err := json.Unmarshal(raw, &st); err != nil || st.ThreadID == "" {
			slog.WarnContext(ctx, "discarding corrupted thread state", "error", err)
		} else {
			if len(st.Messages) > maxMessages {
				st.Messages = st.Messages[len(st.Messages)-maxMessages:]
			}
			m.state = st
			return m, nil
		}
	}

	m.state = freshState()
	return m, nil
}

func freshState() State {
	now := time.Now().UTC()
	return State{ThreadID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
}

func (m *Manager) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ThreadID
}

// Append adds a message, evicting the oldest once the cap is exceeded, and
// persists the new state. Append itself always succeeds in memory; a store
// write failure is returned but the in-memory log already holds the message.
func (m *Manager) Append(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	m.state.Messages = append(m.state.Messages, msg)
	if len(m.state.Messages) > m.maxMessages {
		m.state.Messages = m.state.Messages[len(m.state.Messages)-m.maxMessages:]
	}
	m.state.UpdatedAt = time.Now().UTC()

	return m.persistLocked(ctx)
}

// History returns a copy of all retained messages, oldest first.
func (m *Manager) History() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.state.Messages))
	copy(out, m.state.Messages)
	return out
}

// ContextWindow returns the most recent slice used for prompt assembly,
// distinct from the persisted cap.
func (m *Manager) ContextWindow() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.state.Messages
	if len(msgs) > m.maxContext {
		msgs = msgs[len(msgs)-m.maxContext:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Clear drops all messages and assigns a new thread id.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = freshState()
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	return m.persistLocked(ctx)
}

func (m *Manager) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(m.state)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, raw)
}
