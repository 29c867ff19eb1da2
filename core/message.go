package core

import "strings"

// RoleType identifies one of the two fixed society roles.
type RoleType string

const (
	// RoleDirector issues instructions and never performs the task itself.
	RoleDirector RoleType = "director"
	// RoleExecutor carries out instructions, invoking tools as needed.
	RoleExecutor RoleType = "executor"
)

// String implements fmt.Stringer.
func (r RoleType) String() string { return string(r) }

// Valid reports whether r is one of the known roles.
func (r RoleType) Valid() bool { return r == RoleDirector || r == RoleExecutor }

// Message is a unit of conversation content attributed to a role. It is a
// value type: every modifying helper returns a new Message and leaves the
// receiver untouched.
type Message struct {
	RoleName string   `json:"role_name"`
	RoleType RoleType `json:"role_type"`
	Content  string   `json:"content"`
}

// NewMessage constructs a Message.
func NewMessage(roleType RoleType, roleName, content string) Message {
	return Message{RoleName: roleName, RoleType: roleType, Content: content}
}

// WithContent returns a copy of m carrying content.
func (m Message) WithContent(content string) Message {
	m.Content = content
	return m
}

// Append returns a copy of m whose content is suffixed with s.
func (m Message) Append(s string) Message {
	m.Content += s
	return m
}

// Contains reports whether the content contains substr.
func (m Message) Contains(substr string) bool { return strings.Contains(m.Content, substr) }

// IsZero reports whether m is the zero Message.
func (m Message) IsZero() bool { return m == Message{} }

// ToContent converts the message to model-facing content. Messages received
// by an agent are user turns; its own replies are assistant turns.
func (m Message) ToContent(role string) Content {
	return NewTextContent(role, m.Content)
}
