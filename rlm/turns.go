package rlm

import (
	"time"

	"github.com/martinemde/rlm/llm"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single entry in the conversation history.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSystemTurn creates a Turn holding the system prompt.
func NewSystemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content, Timestamp: time.Now()}
}

// NewUserTurn creates a Turn holding a task, an observation or a re-prompt.
func NewUserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// NewAssistantTurn creates a Turn holding a model reply.
func NewAssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}

// NewObservationTurn wraps sandbox output as the user turn fed back to the
// model.
func NewObservationTurn(output string) Turn {
	return NewUserTurn(ObservationPrefix + output)
}

// ConvertHistoryToMessages converts the turn-based history into backend
// messages, preserving order.
func ConvertHistoryToMessages(history []Turn) []llm.Message {
	messages := make([]llm.Message, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case RoleSystem:
			messages = append(messages, llm.SystemMessage(turn.Content))
		case RoleUser:
			messages = append(messages, llm.UserMessage(turn.Content))
		case RoleAssistant:
			messages = append(messages, llm.AssistantMessage(turn.Content))
		}
	}
	return messages
}
