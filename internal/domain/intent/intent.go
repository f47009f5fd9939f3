// Package intent models the structured action extracted from free text
// and the relevancy verdict that gates it. Both are decoded from
// language-model output, which is untrusted text: everything here
// normalizes unexpected shapes instead of assuming them.
package intent

import (
	"encoding/json"
	"strings"
)

// Intent is the classified user goal driving dispatcher behavior.
type Intent string

const (
	IntentSave    Intent = "save"
	IntentUpdate  Intent = "update"
	IntentDelete  Intent = "delete"
	IntentQuery   Intent = "query"
	IntentUnknown Intent = "unknown"
)

// known reports whether s names an actionable intent.
func known(s string) bool {
	switch Intent(s) {
	case IntentSave, IntentUpdate, IntentDelete, IntentQuery:
		return true
	}
	return false
}

// Descriptor is the action extracted from a message. Transient,
// consumed once by the dispatcher. Err carries the extraction failure
// message when Intent is IntentUnknown because of one.
type Descriptor struct {
	Intent             Intent   `json:"intent"`
	Title              string   `json:"title"`
	Content            string   `json:"content"`
	Tags               []string `json:"tags"`
	SearchQuery        string   `json:"search_query"`
	NoteID             string   `json:"note_id"`
	ConfirmationNeeded bool     `json:"confirmation_needed"`
	Err                string   `json:"-"`
}

// Verdict is the relevance classification of an inbound message.
type Verdict struct {
	Relevant bool   `json:"relevant"`
	Reason   string `json:"reason"`
}

// Unknown returns the descriptor used when extraction failed: the
// system must never silently execute an action it could not parse, so
// confirmation is forced on.
func Unknown(reason string) Descriptor {
	return Descriptor{
		Intent:             IntentUnknown,
		ConfirmationNeeded: true,
		Err:                reason,
	}
}

// ParseVerdict decodes a relevancy verdict from raw model output.
// Callers treat any error as relevant=false.
func ParseVerdict(raw string) (Verdict, error) {
	var v Verdict
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &v); err != nil {
		return Verdict{}, err
	}
	return v, nil
}

// ParseDescriptor decodes an intent descriptor from raw model output.
// It never fails: unparseable payloads, wrong field types, and
// unrecognized intent values all normalize to the unknown descriptor
// with confirmation forced on.
func ParseDescriptor(raw string) Descriptor {
	var d Descriptor
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &d); err != nil {
		return Unknown(err.Error())
	}
	if !known(string(d.Intent)) {
		return Unknown("unrecognized intent " + strings.TrimSpace(string(d.Intent)))
	}
	return d
}

// ExtractJSON returns the JSON object embedded in raw model output.
// Models routinely wrap JSON in markdown code fences or surround it
// with prose; this slices from the first '{' to the last '}'. The
// result still has to survive json.Unmarshal, so a mangled payload
// fails there rather than here.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return strings.TrimSpace(s)
}
