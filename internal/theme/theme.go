// Package theme holds the named colour palettes and remembers each client's
// choice under the persistent storage key "theme".
package theme

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/Skufu/risklens/internal/storage"
)

const (
	Light      = "light"
	Dark       = "dark"
	StorageKey = "theme"
)

var (
	ErrUnknownTheme = errors.New("unknown theme")
	hexColor        = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
)

// Palette maps a camelCase colour role to a hex colour.
type Palette map[string]string

// Var is one CSS custom property.
type Var struct {
	Name  string
	Value string
}

func DefaultPalettes() map[string]Palette {
	return map[string]Palette{
		Light: {
			"primary":   "#FF6B35",
			"secondary": "#FF8C42",
			"success":   "#10B981",
			"danger":    "#EF4444",
			"warning":   "#F59E0B",
			"info":      "#3B82F6",
			"bg":        "#FFF8F5",
			"text":      "#1F2937",
			"border":    "#FED7AA",
		},
		Dark: {
			"primary":   "#FF8C42",
			"secondary": "#FFA07A",
			"success":   "#34D399",
			"danger":    "#F87171",
			"warning":   "#FBBF24",
			"info":      "#60A5FA",
			"bg":        "#1F1A17",
			"text":      "#FEF3E8",
			"border":    "#4A2C1A",
		},
	}
}

type paletteFile struct {
	Themes map[string]Palette `yaml:"themes"`
}

// LoadFile merges palettes from a YAML file over the defaults. Entries in the
// file replace or extend individual colours of a theme.
func LoadFile(path string) (map[string]Palette, error) {
	palettes := DefaultPalettes()
	if strings.TrimSpace(path) == "" {
		return palettes, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read theme file: %w", err)
	}
	var file paletteFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse theme file: %w", err)
	}
	for name, pal := range file.Themes {
		name = strings.ToLower(strings.TrimSpace(name))
		dst, ok := palettes[name]
		if !ok {
			dst = Palette{}
			palettes[name] = dst
		}
		for role, color := range pal {
			if !hexColor.MatchString(color) {
				return nil, fmt.Errorf("theme %s: %s=%q is not a hex colour", name, role, color)
			}
			dst[role] = color
		}
	}
	return palettes, nil
}

type Manager struct {
	palettes map[string]Palette
	store    *storage.Manager
}

func NewManager(palettes map[string]Palette, store *storage.Manager) *Manager {
	if len(palettes) == 0 {
		palettes = DefaultPalettes()
	}
	return &Manager{palettes: palettes, store: store}
}

func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.palettes))
	for name := range m.palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) Has(name string) bool {
	_, ok := m.palettes[name]
	return ok
}

// Current returns the stored choice, light when nothing valid is stored.
func (m *Manager) Current(ctx context.Context, clientID string) string {
	var name string
	if m.store.Get(ctx, clientID, storage.ScopePersistent, StorageKey, &name) && m.Has(name) {
		return name
	}
	return Light
}

// Apply stores name as the client's theme. Storage failures are logged by the
// store and do not fail the call.
func (m *Manager) Apply(ctx context.Context, clientID, name string) error {
	if !m.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	m.store.Set(ctx, clientID, storage.ScopePersistent, StorageKey, name)
	return nil
}

// Toggle flips between light and dark and returns the new name.
func (m *Manager) Toggle(ctx context.Context, clientID string) string {
	next := Dark
	if m.Current(ctx, clientID) != Light {
		next = Light
	}
	_ = m.Apply(ctx, clientID, next)
	return next
}

func (m *Manager) Colors(name string) Palette {
	out := Palette{}
	for k, v := range m.palettes[name] {
		out[k] = v
	}
	return out
}

// Vars lists the palette as CSS custom properties sorted by name.
func (m *Manager) Vars(name string) []Var {
	pal := m.palettes[name]
	out := make([]Var, 0, len(pal))
	for role, color := range pal {
		out = append(out, Var{Name: CSSVarName(role), Value: color})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Style renders the palette as a :root rule. Colours are validated hex values.
func (m *Manager) Style(name string) template.CSS {
	var b strings.Builder
	b.WriteString(":root{")
	for _, v := range m.Vars(name) {
		b.WriteString(v.Name)
		b.WriteByte(':')
		b.WriteString(v.Value)
		b.WriteByte(';')
	}
	b.WriteString("}")
	return template.CSS(b.String())
}

func ToggleIcon(name string) string {
	if name == Light {
		return "🌙"
	}
	return "☀️"
}

// CSSVarName turns "primaryDark" into "--primary-dark".
func CSSVarName(role string) string {
	var b strings.Builder
	b.WriteString("--")
	for _, r := range role {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
