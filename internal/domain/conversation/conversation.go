// Package conversation holds the per-chat dialogue value objects.
package conversation

import "time"

// Role identifies who produced an entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// KindText is the only message kind currently delivered by the
// transport. The field exists so media kinds can be recorded later
// without changing the entry shape.
const KindText = "text"

// Entry is one message in a chat's dialogue log, ordered by append
// time.
type Entry struct {
	ChatID    int64     `json:"chat_id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
