// Package dispatch classifies one line of operator input into exactly one
// decision: exit, a capability invocation, a missing argument, an
// informational command, or freeform conversation.
package dispatch

import (
	"fmt"
	"strings"

	"personabot/internal/capability"
	"personabot/internal/logging"
	"personabot/internal/types"
)

// Kind tags a Decision.
type Kind int

const (
	KindFreeform Kind = iota
	KindExit
	KindCapability
	KindMissingArgument
	KindInfo
)

func (k Kind) String() string {
	switch k {
	case KindExit:
		return "exit"
	case KindCapability:
		return "capability"
	case KindMissingArgument:
		return "missing_argument"
	case KindInfo:
		return "info"
	default:
		return "freeform"
	}
}

// Decision is the result of classifying one input.
//
//	KindExit            no fields
//	KindCapability      Capability, Argument (topic for research)
//	KindMissingArgument Capability
//	KindInfo            Info
//	KindFreeform        Capability=freeform, Argument=original input
type Decision struct {
	Kind       Kind
	Capability capability.ID
	Argument   string
	Info       types.InfoKind
}

func (d Decision) String() string {
	switch d.Kind {
	case KindCapability, KindFreeform:
		if d.Argument != "" {
			return fmt.Sprintf("%s(%s, %q)", d.Kind, d.Capability, d.Argument)
		}
		return fmt.Sprintf("%s(%s)", d.Kind, d.Capability)
	case KindMissingArgument:
		return fmt.Sprintf("%s(%s)", d.Kind, d.Capability)
	case KindInfo:
		return fmt.Sprintf("%s(%s)", d.Kind, d.Info)
	default:
		return d.Kind.String()
	}
}

var (
	exitWords      = set("quit", "exit", "bye", "6")
	introduceWords = set("intro", "introduction", "1")
	musicWords     = set("music", "music recommendations", "3")
	helpWords      = set("help", "5")
	aboutWords     = set("about", "4")

	researchPrefixes = []string{"research", "2"}
)

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Normalize trims, lower-cases and strips one layer of matching quotes.
func Normalize(raw string) string {
	return strings.ToLower(unquote(raw))
}

// unquote trims and strips one layer of matching surrounding quotes,
// preserving case.
func unquote(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

// Classify maps raw to exactly one decision. It is total: every string has
// a classification.
func Classify(raw string) Decision {
	d := classify(raw)
	logging.DispatchDebug("classify %q -> %s", raw, d)
	return d
}

func classify(raw string) Decision {
	norm := Normalize(raw)

	if _, ok := exitWords[norm]; ok {
		return Decision{Kind: KindExit}
	}
	if _, ok := introduceWords[norm]; ok {
		return Decision{Kind: KindCapability, Capability: capability.Introduce}
	}
	if _, ok := musicWords[norm]; ok {
		return Decision{Kind: KindCapability, Capability: capability.Music}
	}
	if topic, ok := researchTopic(raw, norm); ok {
		if topic == "" {
			return Decision{Kind: KindMissingArgument, Capability: capability.Research}
		}
		return Decision{Kind: KindCapability, Capability: capability.Research, Argument: topic}
	}
	if _, ok := helpWords[norm]; ok {
		return Decision{Kind: KindInfo, Info: types.InfoHelp}
	}
	if _, ok := aboutWords[norm]; ok {
		return Decision{Kind: KindInfo, Info: types.InfoAbout}
	}
	return Decision{Kind: KindFreeform, Capability: capability.Freeform, Argument: raw}
}

// researchTopic matches "research <topic>" and "2 <topic>". The topic keeps
// the operator's original casing.
func researchTopic(raw, norm string) (string, bool) {
	body := unquote(raw)
	for _, prefix := range researchPrefixes {
		if norm == prefix {
			return "", true
		}
		if len(norm) > len(prefix) && strings.HasPrefix(norm, prefix) && isSpace(norm[len(prefix)]) {
			// Lower-casing can change byte lengths, so cut the original
			// at the first whitespace instead of at len(prefix).
			idx := strings.IndexFunc(body, func(r rune) bool { return r == ' ' || r == '\t' })
			if idx < 0 {
				return "", true
			}
			return strings.TrimSpace(body[idx:]), true
		}
	}
	return "", false
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

// MissingArgumentMessage is the operator-facing prompt for a capability
// invoked without its argument.
func MissingArgumentMessage(id capability.ID) string {
	switch id {
	case capability.Research:
		return "Hey! I'd love to research something for you. What topic are you curious about?"
	default:
		return fmt.Sprintf("%s needs more detail. What did you have in mind?", id)
	}
}
