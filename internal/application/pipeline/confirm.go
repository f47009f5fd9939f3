package pipeline

import "strings"

type confirmation int

const (
	confirmOther confirmation = iota
	confirmYes
	confirmNo
)

var affirmations = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true, "sure": true,
	"ok": true, "okay": true, "confirm": true, "confirmed": true,
	"do it": true, "go ahead": true, "please do": true,
}

var negations = map[string]bool{
	"no": true, "n": true, "nope": true, "cancel": true, "stop": true,
	"don't": true, "do not": true, "nevermind": true, "never mind": true,
}

// parseConfirmation matches short confirmation turns. Anything that is
// not a clear yes or no is treated as a new message and flows through
// the normal pipeline.
func parseConfirmation(text string) confirmation {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.TrimRight(s, ".!?,")
	switch {
	case affirmations[s]:
		return confirmYes
	case negations[s]:
		return confirmNo
	default:
		return confirmOther
	}
}
