package chat

import (
	"encoding/json"
	"log"

	"github.com/vaidikdevsen/friday-ai/backend/internal/model/chat"
	"github.com/vaidikdevsen/friday-ai/backend/internal/store"
)

// Older clients read a flat transcript of the active conversation in the
// original {role, parts:[{text}]} wire shape. The registry is the source
// of truth; this mirror is write-only compatibility output and a failed
// write never fails the append that triggered it.
type legacyEntry struct {
	Role  string       `json:"role"`
	Parts []legacyPart `json:"parts"`
}

type legacyPart struct {
	Text string `json:"text"`
}

// mirrorLegacyTranscript is called with s.mu held.
func (s *Service) mirrorLegacyTranscript(messages []chat.Message) {
	entries := make([]legacyEntry, 0, len(messages))
	for _, msg := range messages {
		text := msg.Text
		if msg.Kind == chat.KindImage {
			text = msg.ImageRef
		}
		entries = append(entries, legacyEntry{
			Role:  string(msg.Role),
			Parts: []legacyPart{{Text: text}},
		})
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		log.Printf("[chat] failed to encode legacy transcript: %v", err)
		return
	}
	if err := s.st.Put(store.KeyLegacyTranscript, raw); err != nil {
		log.Printf("[chat] failed to mirror legacy transcript: %v", err)
	}
}
