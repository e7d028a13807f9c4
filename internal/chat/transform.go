package chat

import (
	"encoding/json"
	"strings"
)

// Transform normalizes an inbound chat event into the envelope published
// to Pub/Sub. The raw payload is preserved alongside the normalized fields
// so consumers can reach anything the normalization dropped.
func Transform(payload Payload) (Envelope, error) {
	// Extract organization from the conversation URL
	// URL format: https://api.agentchat.dev/v1/organizations/ORGNAME/conversations/...
	orgName := ""
	urlParts := strings.Split(payload.Conversation.URL, "/")
	for i, part := range urlParts {
		if part == "organizations" && i+1 < len(urlParts) {
			orgName = urlParts[i+1]
			break
		}
	}

	msg := MessageInfo{
		ID:        payload.Message.ID,
		Role:      payload.Message.Role,
		Content:   payload.Message.Content,
		Tokens:    payload.Message.Tokens,
		CreatedAt: payload.Message.CreatedAt,
	}

	// completed_at is null while a message is still streaming
	if payload.Message.CompletedAt != nil {
		msg.CompletedAt = *payload.Message.CompletedAt
		if msg.CompletedAt.After(msg.CreatedAt) {
			msg.GenerationMS = float64(msg.CompletedAt.Sub(msg.CreatedAt).Microseconds()) / 1000.0
		}
	}

	envelope := Envelope{
		EventType: payload.Event,
		Conversation: ConversationInfo{
			ID:           payload.Conversation.ID,
			Title:        payload.Conversation.Title,
			Channel:      payload.Conversation.Channel,
			Organization: orgName,
			CreatedAt:    payload.Conversation.CreatedAt,
		},
		Message: msg,
		Agent:   payload.Agent,
		Sender:  payload.Sender,
	}

	// Convert payload to map for raw storage
	rawJSON, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(rawJSON, &raw); err != nil {
		return Envelope{}, err
	}

	envelope.Raw = raw
	return envelope, nil
}
