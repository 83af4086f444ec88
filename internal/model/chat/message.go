package chat

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Kind discriminates the message payload.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Message is one turn in a conversation. Text messages carry Text only;
// image messages carry the embeddable reference plus attribution fields.
// The rendering layer decides how either is displayed, the model never
// stores markup.
type Message struct {
	ID          string    `json:"id"`
	Role        Role      `json:"role"`
	Kind        Kind      `json:"kind"`
	Text        string    `json:"text,omitempty"`
	ImageRef    string    `json:"imageRef,omitempty"`
	Attribution string    `json:"attribution,omitempty"`
	Source      string    `json:"source,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewTextMessage builds a text message for the given role.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Kind: KindText, Text: text}
}

// NewImageMessage builds a model-authored image message.
func NewImageMessage(imageRef, attribution, source string) Message {
	return Message{
		Role:        RoleModel,
		Kind:        KindImage,
		ImageRef:    imageRef,
		Attribution: attribution,
		Source:      source,
	}
}
