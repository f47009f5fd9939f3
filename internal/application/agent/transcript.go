package agent

import (
	"strings"

	"secondbrain/agent/internal/domain/conversation"
)

// FormatTranscript renders history as a compact role-prefixed
// transcript for inclusion in prompts, oldest first.
func FormatTranscript(history []conversation.Entry) string {
	if len(history) == 0 {
		return "(no prior conversation)"
	}
	var b strings.Builder
	for i, e := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(e.Role))
		b.WriteString(": ")
		b.WriteString(e.Text)
	}
	return b.String()
}
