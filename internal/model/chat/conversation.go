package chat

import "time"

// Conversation is a named, independently persisted message thread.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultTitle is assigned to conversations created without an explicit name.
const DefaultTitle = "New chat"
