package crew

import (
	"fmt"
	"strings"
)

const (
	actionPrefix = "ACTION:"
	inputPrefix  = "INPUT:"
	finalPrefix  = "FINAL ANSWER:"
)

func systemPrompt(a *Agent) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s.\n%s\n\nYour personal goal is: %s\n", a.Profile.Role, a.Profile.Backstory, a.Profile.Goal)
	if len(a.Tools) == 0 {
		sb.WriteString("\nAnswer directly. Write only the answer itself.\n")
		return sb.String()
	}

	sb.WriteString("\nYou can use these tools:\n")
	for _, t := range a.Tools {
		fmt.Fprintf(&sb, "- %s: %s\n", t.Name, t.Description)
	}
	sb.WriteString("\nTo use a tool, reply with exactly two lines and nothing else:\n")
	sb.WriteString(actionPrefix + " <tool name>\n" + inputPrefix + " <tool input>\n")
	sb.WriteString("\nWhen you have enough information, reply with " + finalPrefix + " followed by your answer.\n")
	return sb.String()
}

func userPrompt(t Task, prior string, scratch []string, final, hasTools bool) string {
	var sb strings.Builder
	sb.WriteString("Current task: ")
	sb.WriteString(t.Description)
	sb.WriteString("\n\nThis is the expected criteria for your final answer: ")
	sb.WriteString(t.ExpectedOutput)
	sb.WriteString("\n")
	if prior != "" {
		sb.WriteString("\nContext from the previous task:\n")
		sb.WriteString(prior)
		sb.WriteString("\n")
	}
	for _, obs := range scratch {
		sb.WriteString("\n")
		sb.WriteString(obs)
	}
	if final && hasTools {
		sb.WriteString("\nYou must give your final answer now. Do not call any more tools.\n")
	}
	return sb.String()
}

// parseAction extracts a tool call from a reply.
func parseAction(reply string) (name, input string, ok bool) {
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case hasPrefixFold(line, actionPrefix):
			name = strings.TrimSpace(line[len(actionPrefix):])
		case hasPrefixFold(line, inputPrefix):
			input = strings.Trim(strings.TrimSpace(line[len(inputPrefix):]), `"`)
		case hasPrefixFold(line, finalPrefix):
			return "", "", false
		}
	}
	return name, input, name != ""
}

// finalAnswer strips protocol markers from a reply.
func finalAnswer(reply string) string {
	if idx := indexFold(reply, finalPrefix); idx >= 0 {
		return strings.TrimSpace(reply[idx+len(finalPrefix):])
	}
	var kept []string
	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(line)
		if hasPrefixFold(trimmed, actionPrefix) || hasPrefixFold(trimmed, inputPrefix) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func observation(c ToolCallRecord) string {
	if c.Error != "" {
		return fmt.Sprintf("You called %s with %q and it failed: %s\n", c.Tool, c.Input, c.Error)
	}
	return fmt.Sprintf("You called %s with %q. Observation:\n%s\n", c.Tool, c.Input, c.Result)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if hasPrefixFold(s[i:], substr) {
			return i
		}
	}
	return -1
}
