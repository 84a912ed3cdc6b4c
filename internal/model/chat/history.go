package chat

import (
	"encoding/json"

	"github.com/zhouzirui/gamebot/backend/internal/model/prompt"
)

// History is the read view of a session returned to the player.
type History struct {
	User     string           `json:"user"`
	Messages []HistoryMessage `json:"messages"`
	Prompt   PromptRef        `json:"prompt"`
}

// HistoryMessage carries a stored message with its selections re-derived.
type HistoryMessage struct {
	Role    Role    `json:"role"`
	Content Reply   `json:"content"`
	Image   *string `json:"image"`
	Audio   *string `json:"audio"`
}

// PromptRef is the prompt a session points at. When the prompt could not be
// loaded only the stored name is known and it encodes as a plain string.
type PromptRef struct {
	Name   string
	Prompt *prompt.Prompt
}

func (r PromptRef) MarshalJSON() ([]byte, error) {
	if r.Prompt != nil {
		return json.Marshal(r.Prompt)
	}
	return json.Marshal(r.Name)
}

// NewHistory builds the read view. p may be nil when the prompt is gone.
func NewHistory(session *Session, p *prompt.Prompt) History {
	messages := make([]HistoryMessage, 0, len(session.Messages))
	for _, m := range session.Messages {
		messages = append(messages, HistoryMessage{
			Role:    m.Role,
			Content: ExtractSelections(m.Content),
			Image:   m.Image,
			Audio:   m.Audio,
		})
	}
	return History{
		User:     session.UserID,
		Messages: messages,
		Prompt:   PromptRef{Name: session.PromptName, Prompt: p},
	}
}
