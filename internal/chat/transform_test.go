package chat

import (
	"testing"
	"time"
)

func testPayload() Payload {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	completed := created.Add(1500 * time.Millisecond)

	return Payload{
		Event: "message.completed",
		Conversation: Conversation{
			ID:        "conv-123",
			URL:       "https://api.agentchat.dev/v1/organizations/acme/conversations/conv-123",
			Title:     "Deploy help",
			Channel:   "support",
			CreatedAt: created,
		},
		Message: Message{
			ID:          "msg-456",
			Role:        "assistant",
			Content:     "Run the migration first.",
			Tokens:      42,
			CreatedAt:   created,
			CompletedAt: &completed,
		},
		Agent: Agent{
			ID:       "agent-1",
			Name:     "helper",
			Model:    "gpt-4o",
			Provider: "openai",
		},
		Sender: User{
			ID:   "user-9",
			Name: "Sam",
		},
	}
}

func TestTransform(t *testing.T) {
	payload := testPayload()

	envelope, err := Transform(payload)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	if envelope.EventType != "message.completed" {
		t.Errorf("EventType = %q, want %q", envelope.EventType, "message.completed")
	}
	if envelope.Conversation.Organization != "acme" {
		t.Errorf("Organization = %q, want %q", envelope.Conversation.Organization, "acme")
	}
	if envelope.Conversation.ID != "conv-123" {
		t.Errorf("Conversation.ID = %q, want %q", envelope.Conversation.ID, "conv-123")
	}
	if envelope.Message.Role != "assistant" {
		t.Errorf("Message.Role = %q, want %q", envelope.Message.Role, "assistant")
	}
	if envelope.Message.Tokens != 42 {
		t.Errorf("Message.Tokens = %d, want 42", envelope.Message.Tokens)
	}
	if envelope.Message.GenerationMS != 1500.0 {
		t.Errorf("GenerationMS = %f, want 1500", envelope.Message.GenerationMS)
	}
	if envelope.Raw == nil {
		t.Error("Raw payload was not preserved")
	}
	if envelope.Raw["event"] != "message.completed" {
		t.Errorf("Raw[event] = %v, want message.completed", envelope.Raw["event"])
	}
}

func TestTransformStreamingMessage(t *testing.T) {
	payload := testPayload()
	payload.Event = "message.created"
	payload.Message.CompletedAt = nil

	envelope, err := Transform(payload)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	if !envelope.Message.CompletedAt.IsZero() {
		t.Errorf("CompletedAt = %v, want zero for streaming message", envelope.Message.CompletedAt)
	}
	if envelope.Message.GenerationMS != 0 {
		t.Errorf("GenerationMS = %f, want 0 for streaming message", envelope.Message.GenerationMS)
	}
}

func TestTransformOrganizationExtraction(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "standard url",
			url:  "https://api.agentchat.dev/v1/organizations/acme/conversations/c-1",
			want: "acme",
		},
		{
			name: "no organization segment",
			url:  "https://api.agentchat.dev/v1/conversations/c-1",
			want: "",
		},
		{
			name: "organizations at end of url",
			url:  "https://api.agentchat.dev/v1/organizations",
			want: "",
		},
		{
			name: "empty url",
			url:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := testPayload()
			payload.Conversation.URL = tt.url

			envelope, err := Transform(payload)
			if err != nil {
				t.Fatalf("Transform() error = %v", err)
			}
			if envelope.Conversation.Organization != tt.want {
				t.Errorf("Organization = %q, want %q", envelope.Conversation.Organization, tt.want)
			}
		})
	}
}
