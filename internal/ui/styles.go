// Package ui renders the terminal surface: banner, menu, help and about
// screens, styled status lines and markdown replies.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	// Light mode
	LightForeground = lipgloss.Color("#101F38")
	LightPrimary    = lipgloss.Color("#0B6E4F")
	LightAccent     = lipgloss.Color("#F2A900")
	LightMuted      = lipgloss.Color("#6B7280")
	LightBorder     = lipgloss.Color("#D1D5DB")

	// Dark mode
	DarkForeground = lipgloss.Color("#F2F2F2")
	DarkPrimary    = lipgloss.Color("#3DDC97")
	DarkAccent     = lipgloss.Color("#FFD23F")
	DarkMuted      = lipgloss.Color("#9CA3AF")
	DarkBorder     = lipgloss.Color("#374151")

	// Semantic colors, shared by both modes
	Destructive = lipgloss.Color("#E53935")
	Success     = lipgloss.Color("#43A047")
	Warning     = lipgloss.Color("#FFC107")
	Info        = lipgloss.Color("#2196F3")
)

// Theme holds the current color scheme.
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

func LightTheme() Theme {
	return Theme{
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
	}
}

func DarkTheme() Theme {
	return Theme{
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		IsDark:     true,
	}
}

// DetectTheme picks the theme from PERSONABOT_DARK_MODE, then COLORFGBG,
// then the terminal background. Anything undetermined is light.
func DetectTheme() Theme {
	if os.Getenv("PERSONABOT_DARK_MODE") == "1" {
		return DarkTheme()
	}
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		if bg, err := strconv.Atoi(parts[1]); err == nil {
			if (bg >= 0 && bg <= 6) || bg == 8 {
				return DarkTheme()
			}
			return LightTheme()
		}
	}
	if IsTerminal(os.Stdout) && termenv.HasDarkBackground() {
		return DarkTheme()
	}
	return LightTheme()
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of f, or fallback when unknown.
func TerminalWidth(f *os.File, fallback int) int {
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return fallback
}

// Styles holds the styled components.
type Styles struct {
	Theme Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	Prompt  lipgloss.Style
	Speaker lipgloss.Style
	Reply   lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	Banner  lipgloss.Style
	Divider lipgloss.Style
	Badge   lipgloss.Style
}

// NewStyles creates the styles for theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Prompt: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Speaker: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Reply: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(theme.Accent),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		Banner: lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(theme.Primary),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Badge: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),
	}
}

// DefaultStyles returns styles for the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// RenderDivider returns a horizontal rule.
func (s Styles) RenderDivider(width int) string {
	return s.Divider.Render(strings.Repeat("=", width))
}

// PlainStyles returns unstyled components, for text that leaves the
// terminal (bridge replies, logs).
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Theme:    LightTheme(),
		Title:    plain,
		Subtitle: plain,
		Body:     plain,
		Muted:    plain,
		Bold:     plain,
		Prompt:   plain,
		Speaker:  plain,
		Reply:    plain,
		Success:  plain,
		Error:    plain,
		Warning:  plain,
		Info:     plain,
		Banner:   plain,
		Divider:  plain,
		Badge:    plain,
	}
}
