// Package chat defines the agent-chat event payloads accepted by the
// gateway, their normalized envelope, and request authentication.
package chat

import "time"

// Payload represents an inbound chat event from the agentchat backend
type Payload struct {
	Event        string       `json:"event"`
	Conversation Conversation `json:"conversation"`
	Message      Message      `json:"message"`
	Agent        Agent        `json:"agent"`
	Sender       User         `json:"sender"`
}

// Conversation describes the conversation an event belongs to
type Conversation struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Channel   string    `json:"channel"`
	CreatedAt time.Time `json:"created_at"`
}

// Message describes a single chat message
type Message struct {
	ID          string     `json:"id"`
	Role        string     `json:"role"`
	Content     string     `json:"content"`
	Tokens      int        `json:"tokens"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Agent describes the model agent participating in a conversation
type Agent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
}

// User identifies the human participant
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Envelope is the normalized message format published to Pub/Sub
type Envelope struct {
	EventType    string                 `json:"event_type"`
	Conversation ConversationInfo       `json:"conversation"`
	Message      MessageInfo            `json:"message"`
	Agent        Agent                  `json:"agent"`
	Sender       User                   `json:"sender"`
	Raw          map[string]interface{} `json:"raw"`
}

// ConversationInfo is the normalized conversation section of an Envelope
type ConversationInfo struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Channel      string    `json:"channel"`
	Organization string    `json:"organization"`
	CreatedAt    time.Time `json:"created_at"`
}

// MessageInfo is the normalized message section of an Envelope
type MessageInfo struct {
	ID           string    `json:"id"`
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	Tokens       int       `json:"tokens"`
	CreatedAt    time.Time `json:"created_at"`
	CompletedAt  time.Time `json:"completed_at"`
	GenerationMS float64   `json:"generation_ms"`
}
