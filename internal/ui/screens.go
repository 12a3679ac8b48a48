package ui

import (
	"fmt"
	"strings"

	"personabot/internal/persona"
)

// MenuOption is one start-up menu entry.
type MenuOption struct {
	Key   string
	Label string
	// Ready is shown as a check or cross when non-nil.
	Ready *bool
}

// StartMenu lists the start-up modes in menu order.
func StartMenu(ttsReady bool) []MenuOption {
	return []MenuOption{
		{Key: "1", Label: "Run chat"},
		{Key: "2", Label: "Run system tests"},
		{Key: "3", Label: "Single response mode"},
		{Key: "4", Label: "Voice chat mode", Ready: &ttsReady},
		{Key: "5", Label: "Quick speech-to-text check"},
		{Key: "6", Label: "Quick text-to-speech check", Ready: &ttsReady},
	}
}

// Menu renders the start-up menu.
func Menu(s Styles, name string, opts []MenuOption) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(fmt.Sprintf("🚀 %s Persona Assistant", name)))
	b.WriteString("\nChoose an option:\n")
	for _, o := range opts {
		line := fmt.Sprintf("%s. %s", o.Key, o.Label)
		if o.Ready != nil {
			if *o.Ready {
				line += " " + s.Success.Render("✅")
			} else {
				line += " " + s.Error.Render("❌")
			}
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// Banner renders the chat greeting for p on date.
func Banner(s Styles, p persona.Persona, date string) string {
	first := FirstName(p)
	lines := []string{
		s.Title.Render(fmt.Sprintf("%s AI Assistant", p.Name())),
		fmt.Sprintf("Olá! I'm %s, %s.", first, p.Affiliation()),
		"Ask me anything or just chat!",
		s.Muted.Render("Special commands: 'intro', 'music', 'research [topic]', 'help'"),
		s.Muted.Render("Type 'quit' to exit."),
		s.Subtitle.Render("Today is " + date),
	}
	return s.Banner.Render(strings.Join(lines, "\n"))
}

// Help renders the command list.
func Help(s Styles, p persona.Persona) string {
	first := FirstName(p)
	var b strings.Builder
	b.WriteString(s.Bold.Render("📋 Available Commands:"))
	b.WriteString("\n")
	for _, line := range []string{
		fmt.Sprintf("intro (or 1) - %s's introduction for class/meetings", first),
		"research [topic] (or 2 [topic]) - Research synthesis on any topic",
		"music (or 3) - Personalized music recommendations",
		fmt.Sprintf("about (or 4) - %s's background", first),
		"help (or 5) - Show this help menu",
		"quit (or 6) - Exit",
	} {
		b.WriteString("• " + line + "\n")
	}
	b.WriteString(s.Muted.Render("Anything else is a normal conversation."))
	return b.String()
}

// About renders the persona profile.
func About(s Styles, p persona.Persona) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("ABOUT " + strings.ToUpper(p.Name())))
	b.WriteString("\n")
	row := func(icon, label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s %s: %s\n", icon, s.Bold.Render(label), value)
	}
	row("🎓", "Role", p.Affiliation())
	row("📍", "Location", p.Location())
	row("🗣️", "Tone", p.Tone())
	row("🎵", "Musical Passion", strings.Join(p.Genres(), ", "))
	row("🎸", "Favorite Artists", strings.Join(p.Bands(), ", "))
	row("💭", "Core Values", strings.Join(p.Values(), ", "))
	row("🎯", "Strengths", strings.Join(p.Strengths(), ", "))
	return strings.TrimRight(b.String(), "\n")
}

// FirstName returns the persona's first name, or "Assistant" when unnamed.
func FirstName(p persona.Persona) string {
	if f := strings.Fields(p.Name()); len(f) > 0 {
		return f[0]
	}
	return "Assistant"
}
