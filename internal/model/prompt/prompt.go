package prompt

import (
	"strings"
	"time"
)

// Prompt is a named system-prompt template that game sessions refer to.
type Prompt struct {
	Name             string    `json:"name"`
	Template         string    `json:"prompt"`
	FirstUserMessage *string   `json:"first_user_message"`
	CreatedAt        time.Time `json:"-"`
}

// Summary is the list view of a prompt.
type Summary struct {
	Name string `json:"name"`
}

// Update is a partial patch. Nil fields are left untouched. A JSON null
// decodes to nil as well, so first_user_message cannot be cleared once set.
type Update struct {
	Name             *string `json:"name"`
	Template         *string `json:"prompt"`
	FirstUserMessage *string `json:"first_user_message"`
}

// Empty reports whether the patch changes nothing.
func (u Update) Empty() bool {
	return u.Name == nil && u.Template == nil && u.FirstUserMessage == nil
}

// Renames reports whether the patch moves the prompt to a different name.
func (u Update) Renames(current string) bool {
	return u.Name != nil && *u.Name != current
}

// Apply copies the set fields onto p.
func (u Update) Apply(p *Prompt) {
	if u.Name != nil {
		p.Name = strings.TrimSpace(*u.Name)
	}
	if u.Template != nil {
		p.Template = *u.Template
	}
	if u.FirstUserMessage != nil {
		v := *u.FirstUserMessage
		p.FirstUserMessage = &v
	}
}
