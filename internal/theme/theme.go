// Package theme maps habit priority categories to display colours.
package theme

import (
	"fmt"
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/julianstephens/habitlit/internal/models"
)

// Base hues (degrees) of the priority matrix quadrants.
var baseHues = map[models.Priority]float64{
	models.PriorityUrgentImportant: 4,
	models.PriorityImportant:       212,
	models.PriorityUrgent:          34,
	models.PriorityNeither:         142,
}

const (
	saturation = 0.62
	value      = 0.88
)

// Palette is a deterministic Priority -> hex colour lookup.
type Palette struct {
	colors map[models.Priority]string
}

// Default returns the built-in palette.
func Default() Palette {
	p := Palette{colors: make(map[models.Priority]string, len(baseHues))}
	for pr, hue := range baseHues {
		p.colors[pr] = colorful.Hsv(hue, saturation, value).Hex()
	}
	return p
}

// WithOverrides returns a copy of p with the given categories recoloured.
// Colours must be hex strings such as "#ff8800".
func (p Palette) WithOverrides(overrides map[string]string) (Palette, error) {
	out := Palette{colors: make(map[models.Priority]string, len(p.colors)+len(overrides))}
	for k, v := range p.colors {
		out.colors[k] = v
	}
	for name, hex := range overrides {
		pr, err := models.ParsePriority(name)
		if err != nil {
			return Palette{}, err
		}
		c, err := colorful.Hex(hex)
		if err != nil {
			return Palette{}, fmt.Errorf("invalid colour %q for %s: %w", hex, name, err)
		}
		out.colors[pr] = c.Hex()
	}
	return out, nil
}

// ColorFor returns the colour of a priority category. Unknown categories get
// a hue derived from the category name, so the answer is still stable.
func (p Palette) ColorFor(pr models.Priority) string {
	if c, ok := p.colors[pr]; ok {
		return c
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(pr))
	return colorful.Hsv(float64(h.Sum32()%360), saturation, value).Hex()
}

// PillStyle renders a pill in the category colour.
func (p Palette) PillStyle(pr models.Priority) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(p.ColorFor(pr)))
}

// ColorStyle renders text in an arbitrary pill colour.
func ColorStyle(hex string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}
