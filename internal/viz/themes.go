package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the colour scheme for the TUI and the quiver plot. Up, Plane
// and Down colour spins with sz = +1, 0 and -1.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Up        lipgloss.Color
	Plane     lipgloss.Color
	Down      lipgloss.Color
}

// Available themes
var (
	ThemeCyberpunk = Theme{
		Name:      "cyberpunk",
		Primary:   lipgloss.Color("#ff00ff"),
		Secondary: lipgloss.Color("#00ffff"),
		Accent:    lipgloss.Color("#ffff00"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#666666"),
		Up:        lipgloss.Color("#00ffff"),
		Plane:     lipgloss.Color("#ffffff"),
		Down:      lipgloss.Color("#ff00ff"),
	}

	ThemeRetroGreen = Theme{
		Name:      "retro",
		Primary:   lipgloss.Color("#00ff00"),
		Secondary: lipgloss.Color("#00cc00"),
		Accent:    lipgloss.Color("#88ff88"),
		Text:      lipgloss.Color("#00ff00"),
		Muted:     lipgloss.Color("#005500"),
		Up:        lipgloss.Color("#ccffcc"),
		Plane:     lipgloss.Color("#00cc00"),
		Down:      lipgloss.Color("#004400"),
	}

	ThemeMinimal = Theme{
		Name:      "minimal",
		Primary:   lipgloss.Color("#ffffff"),
		Secondary: lipgloss.Color("#cccccc"),
		Accent:    lipgloss.Color("#0088ff"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#888888"),
		Up:        lipgloss.Color("#ffffff"),
		Plane:     lipgloss.Color("#888888"),
		Down:      lipgloss.Color("#222222"),
	}

	// ThemeOcean is the blue-white-red map of the usual sz colouring.
	ThemeOcean = Theme{
		Name:      "ocean",
		Primary:   lipgloss.Color("#0077be"),
		Secondary: lipgloss.Color("#00a8cc"),
		Accent:    lipgloss.Color("#ffd700"),
		Text:      lipgloss.Color("#e0f0ff"),
		Muted:     lipgloss.Color("#4488aa"),
		Up:        lipgloss.Color("#d62728"),
		Plane:     lipgloss.Color("#f0f0f0"),
		Down:      lipgloss.Color("#1f77b4"),
	}

	ThemeSunset = Theme{
		Name:      "sunset",
		Primary:   lipgloss.Color("#ff6b6b"),
		Secondary: lipgloss.Color("#feca57"),
		Accent:    lipgloss.Color("#ff9ff3"),
		Text:      lipgloss.Color("#fff5f5"),
		Muted:     lipgloss.Color("#8b6b8c"),
		Up:        lipgloss.Color("#feca57"),
		Plane:     lipgloss.Color("#ff6b6b"),
		Down:      lipgloss.Color("#5f27cd"),
	}

	// Default theme
	CurrentTheme = ThemeOcean

	// All available themes
	Themes = []Theme{
		ThemeOcean,
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeMinimal,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name, falling back to ocean.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeOcean
}

// SetTheme changes the current theme
func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
	SetTheme(names[0])
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// SzColor maps sz in [-1, 1] onto the Down-Plane-Up gradient of t.
func SzColor(t Theme, sz float64) lipgloss.Color {
	if sz > 1 {
		sz = 1
	} else if sz < -1 {
		sz = -1
	}
	from, to, frac := t.Plane, t.Up, sz
	if sz < 0 {
		from, to, frac = t.Plane, t.Down, -sz
	}
	return lerpColor(from, to, frac)
}

func lerpColor(a, b lipgloss.Color, t float64) lipgloss.Color {
	ar, ag, ab := parseHex(string(a))
	br, bg, bb := parseHex(string(b))
	r := int(float64(ar) + t*float64(br-ar) + 0.5)
	g := int(float64(ag) + t*float64(bg-ag) + 0.5)
	bl := int(float64(ab) + t*float64(bb-ab) + 0.5)
	return lipgloss.Color(hexColor(r, g, bl))
}
