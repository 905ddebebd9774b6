// Package theme defines color themes for the stakeledger TUI.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name         string
	Background   lipgloss.Color // Main app background
	Surface      lipgloss.Color // Card/panel backgrounds
	SurfaceHover lipgloss.Color // Highlighted surface (active tab, selected row)
	Border       lipgloss.Color // Subtle borders
	BorderAccent lipgloss.Color // Accent-colored borders for focus states
	TextDim      lipgloss.Color // Lowest contrast text (hints, disabled)
	TextMuted    lipgloss.Color // Secondary text (labels, metadata)
	TextPrimary  lipgloss.Color // Primary content text
	Accent       lipgloss.Color // Primary accent (links, active states)
	AccentBright lipgloss.Color
	Green        lipgloss.Color // Wins, positive net
	Orange       lipgloss.Color // Approaching a limit
	Red          lipgloss.Color // Losses, limits reached
	Yellow       lipgloss.Color
}

// Active is the currently selected theme.
var Active = Stake

// Stake is the default theme: deep slate with a bright green accent.
var Stake = Theme{
	Name:         "stake",
	Background:   lipgloss.Color("#0F212E"),
	Surface:      lipgloss.Color("#1A2C38"),
	SurfaceHover: lipgloss.Color("#213743"),
	Border:       lipgloss.Color("#2F4553"),
	BorderAccent: lipgloss.Color("#00E701"),
	TextDim:      lipgloss.Color("#557086"),
	TextMuted:    lipgloss.Color("#B1BAD3"),
	TextPrimary:  lipgloss.Color("#FFFFFF"),
	Accent:       lipgloss.Color("#00E701"),
	AccentBright: lipgloss.Color("#1FFF20"),
	Green:        lipgloss.Color("#00E701"),
	Orange:       lipgloss.Color("#FF9D00"),
	Red:          lipgloss.Color("#ED4163"),
	Yellow:       lipgloss.Color("#FFD000"),
}

// Shuffle is a violet theme on near-black.
var Shuffle = Theme{
	Name:         "shuffle",
	Background:   lipgloss.Color("#0B0A12"),
	Surface:      lipgloss.Color("#16141F"),
	SurfaceHover: lipgloss.Color("#221F30"),
	Border:       lipgloss.Color("#34304A"),
	BorderAccent: lipgloss.Color("#8C52FF"),
	TextDim:      lipgloss.Color("#5E5878"),
	TextMuted:    lipgloss.Color("#A9A3C2"),
	TextPrimary:  lipgloss.Color("#F4F1FF"),
	Accent:       lipgloss.Color("#8C52FF"),
	AccentBright: lipgloss.Color("#B08BFF"),
	Green:        lipgloss.Color("#3DDC97"),
	Orange:       lipgloss.Color("#FFA24C"),
	Red:          lipgloss.Color("#FF5470"),
	Yellow:       lipgloss.Color("#FFD166"),
}

// Terminal uses ANSI 16 colors only - maximum compatibility.
var Terminal = Theme{
	Name:         "terminal",
	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	SurfaceHover: lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderAccent: lipgloss.Color("6"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Accent:       lipgloss.Color("6"),
	AccentBright: lipgloss.Color("14"),
	Green:        lipgloss.Color("2"),
	Orange:       lipgloss.Color("3"),
	Red:          lipgloss.Color("1"),
	Yellow:       lipgloss.Color("11"),
}

// All available themes.
var All = []Theme{Stake, Shuffle, Terminal}

// ByName returns a theme by its name, defaulting to Stake.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return Stake
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// Next returns the theme after name in All, wrapping around.
func Next(name string) Theme {
	for i, t := range All {
		if t.Name == name {
			return All[(i+1)%len(All)]
		}
	}
	return All[0]
}
