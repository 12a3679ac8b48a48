// Package articulation turns raw model output into operator-facing text.
package articulation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// emphasisSpan matches text wrapped in one or two asterisks on a single line.
var emphasisSpan = regexp.MustCompile(`\*{1,2}[^*\n]+\*{1,2}`)

// Clean removes emphasis/stage-direction spans such as "*waves*", collapses
// whitespace runs to a single space and trims the result.
//
// Removing a span can join text into a new span (and collapsing a blank line
// can join two lines), so the pass is repeated until nothing changes.
// Every productive pass shortens the text, which bounds the loop and makes
// Clean idempotent.
func Clean(text string) string {
	for {
		next := cleanPass(text)
		if next == text {
			return text
		}
		text = next
	}
}

func cleanPass(text string) string {
	out := emphasisSpan.ReplaceAllString(text, "")
	out = collapseSpace(out)
	return strings.TrimSpace(out)
}

// collapseSpace replaces every run of two or more whitespace runes with one
// space. Whitespace is unicode.IsSpace, the same set strings.TrimSpace uses,
// so NBSP and em spaces collapse like ASCII blanks. Single whitespace runes
// are kept as written.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	run, start := 0, 0
	flush := func(end int) {
		switch {
		case run == 1:
			b.WriteString(s[start:end])
		case run > 1:
			b.WriteByte(' ')
		}
		run = 0
	}
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			if run == 0 {
				start = i
			}
			run++
		} else {
			flush(i)
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	flush(len(s))
	return b.String()
}
