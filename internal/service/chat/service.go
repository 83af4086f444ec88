package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vaidikdevsen/friday-ai/backend/internal/model/chat"
	"github.com/vaidikdevsen/friday-ai/backend/internal/store"
)

var ErrConversationNotFound = errors.New("conversation not found")

// Service owns the conversation registry: the ordered set of
// conversations, the active conversation pointer and the per-conversation
// message logs. Every mutation is written through to the persistent store
// before it returns.
type Service struct {
	mu            sync.RWMutex
	st            *store.Store
	conversations []chat.Conversation
	activeID      string
}

// NewService loads the registry from the store. A missing snapshot yields
// an empty registry; callers restore the at-least-one-conversation
// invariant via EnsureActive.
func NewService(st *store.Store) (*Service, error) {
	s := &Service{st: st}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) load() error {
	raw, err := s.st.Get(store.KeyConversations)
	switch {
	case errors.Is(err, store.ErrKeyNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to load conversations: %w", err)
	}

	if err := json.Unmarshal(raw, &s.conversations); err != nil {
		return fmt.Errorf("failed to decode conversations: %w", err)
	}

	rawID, err := s.st.Get(store.KeyActiveID)
	if err == nil {
		s.activeID = string(rawID)
	} else if !errors.Is(err, store.ErrKeyNotFound) {
		return fmt.Errorf("failed to load active conversation id: %w", err)
	}

	// A stale pointer must never survive a load.
	if s.activeID != "" && s.indexOf(s.activeID) < 0 {
		s.activeID = ""
		if len(s.conversations) > 0 {
			s.activeID = s.conversations[0].ID
		}
	}
	return nil
}

// persist re-serializes the whole registry. Callers hold s.mu.
func (s *Service) persist() error {
	raw, err := json.Marshal(s.conversations)
	if err != nil {
		return fmt.Errorf("failed to encode conversations: %w", err)
	}
	if err := s.st.Put(store.KeyConversations, raw); err != nil {
		return fmt.Errorf("failed to persist conversations: %w", err)
	}
	if err := s.st.Put(store.KeyActiveID, []byte(s.activeID)); err != nil {
		return fmt.Errorf("failed to persist active conversation id: %w", err)
	}
	return nil
}

func (s *Service) indexOf(id string) int {
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

// Create provisions a conversation, prepends it to the registry and makes
// it active. An empty title gets the default one.
func (s *Service) Create(_ context.Context, title string) (chat.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = chat.DefaultTitle
	}

	now := time.Now().UTC()
	conv := chat.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		Messages:  make([]chat.Message, 0, 16),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = append([]chat.Conversation{conv}, s.conversations...)
	s.activeID = conv.ID
	if err := s.persist(); err != nil {
		return chat.Conversation{}, err
	}
	return cloneConversation(conv), nil
}

// EnsureActive restores the at-least-one-conversation invariant: when the
// registry is empty a default conversation is created and made active.
func (s *Service) EnsureActive(ctx context.Context) (chat.Conversation, error) {
	s.mu.RLock()
	empty := len(s.conversations) == 0
	s.mu.RUnlock()

	if empty {
		return s.Create(ctx, chat.DefaultTitle)
	}

	conv, ok := s.Active(ctx)
	if !ok {
		return chat.Conversation{}, ErrConversationNotFound
	}
	return conv, nil
}

// Delete removes a conversation. Deleting the active conversation
// promotes the first remaining one; when none remain the active pointer
// is cleared and the caller is expected to create a replacement.
func (s *Service) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return ErrConversationNotFound
	}

	s.conversations = append(s.conversations[:idx], s.conversations[idx+1:]...)
	if s.activeID == id {
		s.activeID = ""
		if len(s.conversations) > 0 {
			s.activeID = s.conversations[0].ID
		}
	}
	return s.persist()
}

// DeleteAll clears the registry and the active pointer. As with Delete,
// the caller creates the replacement conversation.
func (s *Service) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = nil
	s.activeID = ""
	return s.persist()
}

// Rename updates a conversation title. A blank title is a no-op.
func (s *Service) Rename(_ context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return ErrConversationNotFound
	}

	s.conversations[idx].Title = title
	s.conversations[idx].UpdatedAt = time.Now().UTC()
	return s.persist()
}

// SwitchActive makes the conversation with id the active one and returns
// it for display. An unknown id leaves the registry untouched.
func (s *Service) SwitchActive(_ context.Context, id string) (chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return chat.Conversation{}, ErrConversationNotFound
	}

	s.activeID = id
	if err := s.persist(); err != nil {
		return chat.Conversation{}, err
	}
	return cloneConversation(s.conversations[idx]), nil
}

// Active returns the active conversation, if any.
func (s *Service) Active(_ context.Context) (chat.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(s.activeID)
	if idx < 0 {
		return chat.Conversation{}, false
	}
	return cloneConversation(s.conversations[idx]), true
}

// List returns all conversations, newest first.
func (s *Service) List(_ context.Context) []chat.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.Conversation, len(s.conversations))
	for i, conv := range s.conversations {
		out[i] = cloneConversation(conv)
	}
	return out
}

// Search yields conversations whose title contains filter,
// case-insensitively. An empty filter yields everything in registry
// order. The sequence walks a snapshot lazily, so it is finite and
// restartable.
func (s *Service) Search(_ context.Context, filter string) iter.Seq[chat.Conversation] {
	s.mu.RLock()
	snapshot := make([]chat.Conversation, len(s.conversations))
	for i, conv := range s.conversations {
		snapshot[i] = cloneConversation(conv)
	}
	s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(filter))
	return func(yield func(chat.Conversation) bool) {
		for _, conv := range snapshot {
			if needle != "" && !strings.Contains(strings.ToLower(conv.Title), needle) {
				continue
			}
			if !yield(conv) {
				return
			}
		}
	}
}

// AppendMessage pushes a message onto a conversation's log and persists
// the registry. Append is the only per-message mutation; messages are
// never edited or removed individually.
func (s *Service) AppendMessage(_ context.Context, id string, msg chat.Message) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return chat.Message{}, ErrConversationNotFound
	}

	msg.ID = uuid.NewString()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	s.conversations[idx].Messages = append(s.conversations[idx].Messages, msg)
	s.conversations[idx].UpdatedAt = msg.CreatedAt

	if err := s.persist(); err != nil {
		return chat.Message{}, err
	}

	if id == s.activeID {
		s.mirrorLegacyTranscript(s.conversations[idx].Messages)
	}
	return msg, nil
}

// Transcript returns a copy of the stored messages for a conversation.
func (s *Service) Transcript(_ context.Context, id string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ErrConversationNotFound
	}

	messages := make([]chat.Message, len(s.conversations[idx].Messages))
	copy(messages, s.conversations[idx].Messages)
	return messages, nil
}

func cloneConversation(conv chat.Conversation) chat.Conversation {
	out := conv
	out.Messages = make([]chat.Message, len(conv.Messages))
	copy(out.Messages, conv.Messages)
	return out
}
