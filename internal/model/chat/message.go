package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/gamebot/backend/internal/apperr"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole validates a stored role value.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleUser, RoleAssistant, RoleSystem:
		return Role(raw), nil
	}
	return "", fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, raw)
}

// Message is one turn of a game session. Audio and Image are references to
// media stored elsewhere and are nil when absent.
type Message struct {
	Role    Role    `json:"role"`
	Content string  `json:"content"`
	Image   *string `json:"image"`
	Audio   *string `json:"audio"`
}

// NewMessage builds a text-only message.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// Render replaces Content with the template rendered against vars.
// A nil vars map leaves the message untouched.
func (m *Message) Render(vars map[string]any) error {
	out, err := m.Rendered(vars)
	if err != nil {
		return err
	}
	m.Content = out
	return nil
}

// Rendered returns the rendered content without modifying the message.
func (m Message) Rendered(vars map[string]any) (string, error) {
	if vars == nil {
		return m.Content, nil
	}
	if missing := missingVariables(m.Content, vars); len(missing) > 0 {
		return "", fmt.Errorf("%w: unresolved template variables %v", apperr.ErrValidation, missing)
	}

	formatted, err := schema.UserMessage(m.Content).Format(context.Background(), vars, schema.Jinja2)
	if err != nil {
		return "", fmt.Errorf("%w: render template: %v", apperr.ErrValidation, err)
	}
	if len(formatted) == 0 {
		return "", nil
	}
	return formatted[0].Content, nil
}

// ToSchema converts the message into the shape sent to the language model.
// Media references are not forwarded.
func (m Message) ToSchema() *schema.Message {
	return &schema.Message{Role: schema.RoleType(m.Role), Content: m.Content}
}

var (
	placeholderPattern = regexp.MustCompile(`\{\{-?\s*([A-Za-z_][A-Za-z0-9_]*)`)

	forPattern   = regexp.MustCompile(`\{%-?\s*for\s+([A-Za-z_][A-Za-z0-9_]*(?:\s*,\s*[A-Za-z_][A-Za-z0-9_]*)*)\s+in\b`)
	setPattern   = regexp.MustCompile(`\{%-?\s*set\s+([A-Za-z_][A-Za-z0-9_]*(?:\s*,\s*[A-Za-z_][A-Za-z0-9_]*)*)`)
	macroPattern = regexp.MustCompile(`\{%-?\s*macro\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(([^)]*)\)`)
	identPattern = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)`)
)

// jinja literals and globals that look like identifiers.
var templateLiterals = map[string]struct{}{
	"true": {}, "false": {}, "none": {}, "True": {}, "False": {}, "None": {},
	"loop": {}, "range": {}, "caller": {}, "varargs": {}, "kwargs": {},
	"cycler": {}, "joiner": {}, "namespace": {}, "dict": {}, "lipsum": {},
}

// missingVariables lists the root names of {{ ... }} expressions that have
// no entry in vars and are not bound by the template itself through for,
// set or macro. The Jinja2 renderer prints undefined names as empty
// strings, so this check runs before rendering. Bindings are not scoped: a
// name bound anywhere in the template counts as bound everywhere.
func missingVariables(content string, vars map[string]any) []string {
	bound := boundNames(content)

	var missing []string
	seen := make(map[string]struct{})
	for _, match := range placeholderPattern.FindAllStringSubmatch(content, -1) {
		name := match[1]
		if _, ok := templateLiterals[name]; ok {
			continue
		}
		if _, ok := bound[name]; ok {
			continue
		}
		if _, ok := vars[name]; ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		missing = append(missing, name)
	}
	return missing
}

// boundNames collects loop targets, set targets, macro names and macro
// parameters declared in content.
func boundNames(content string) map[string]struct{} {
	bound := make(map[string]struct{})
	addList := func(list string) {
		for _, part := range strings.Split(list, ",") {
			// "x" or "x=default"
			if m := identPattern.FindStringSubmatch(part); m != nil {
				bound[m[1]] = struct{}{}
			}
		}
	}

	for _, m := range forPattern.FindAllStringSubmatch(content, -1) {
		addList(m[1])
	}
	for _, m := range setPattern.FindAllStringSubmatch(content, -1) {
		addList(m[1])
	}
	for _, m := range macroPattern.FindAllStringSubmatch(content, -1) {
		bound[m[1]] = struct{}{}
		addList(m[2])
	}
	return bound
}
