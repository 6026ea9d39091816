package view

import (
	"fmt"
	"math"
	"sort"

	"github.com/Skufu/risklens/internal/predictor"
)

const (
	MaxFactors = 5
	MaxBars    = 10

	Unavailable = "Explication non disponible"
)

// Factor is one row of the influential-factor list.
type Factor struct {
	Feature   string  `json:"feature"`
	Value     float64 `json:"value"`
	Magnitude string  `json:"magnitude"`
	Increases bool    `json:"increases"`
	Icon      string  `json:"icon"`
	Color     string  `json:"color"`
}

// Bar is one chart entry, listed most influential first.
type Bar struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
	Color   string  `json:"color"`
}

type Panel struct {
	ID          string           `json:"id"`
	Method      predictor.Method `json:"method"`
	Title       string           `json:"title"`
	Available   bool             `json:"available"`
	Placeholder string           `json:"placeholder,omitempty"`
	BaseValue   string           `json:"baseValue,omitempty"`
	Factors     []Factor         `json:"factors,omitempty"`
	Bars        []Bar            `json:"bars,omitempty"`
	Active      bool             `json:"active"`
}

// Palette colours contributions by sign. SHAP and LIME keep separate
// conventions on purpose: SHAP is red/green, LIME is red/blue.
type Palette struct {
	Positive string
	Negative string
}

var (
	ShapPalette = Palette{Positive: ColorRed, Negative: ColorGreen}
	LimePalette = Palette{Positive: ColorRed, Negative: ColorBlue}
)

func PaletteFor(m predictor.Method) Palette {
	if m == predictor.MethodLIME {
		return LimePalette
	}
	return ShapPalette
}

func (p Palette) For(v float64) string {
	if v > 0 {
		return p.Positive
	}
	return p.Negative
}

// BuildPanel renders a payload; nil or error-flagged payloads yield an
// unavailable panel rather than an error.
func BuildPanel(expl *predictor.Explanation, method predictor.Method) Panel {
	panel := Panel{ID: "panel-" + string(method), Method: method, Title: panelTitle(method)}
	if !expl.Usable() {
		panel.Placeholder = Unavailable
		return panel
	}
	panel.Available = true
	if expl.BaseValue != nil {
		panel.BaseValue = fmt.Sprintf("%.4f", *expl.BaseValue)
	}

	list := expl.TopFeatures
	if len(list) == 0 {
		list = sortByInfluence(expl.AllFeatures)
	}
	panel.Factors = TopFactors(list)

	source := expl.AllFeatures
	if len(source) == 0 {
		source = expl.TopFeatures
	}
	panel.Bars = ChartBars(source, PaletteFor(method))
	return panel
}

// TopFactors keeps the first MaxFactors contributions in their given order.
// The icon and colour follow the list convention (danger up, success down)
// regardless of explanation method.
func TopFactors(contribs []predictor.Contribution) []Factor {
	n := len(contribs)
	if n > MaxFactors {
		n = MaxFactors
	}
	out := make([]Factor, 0, n)
	for _, c := range contribs[:n] {
		up := c.Value > 0
		f := Factor{
			Feature:   c.Feature,
			Value:     c.Value,
			Magnitude: fmt.Sprintf("%.2f", math.Abs(c.Value)),
			Increases: up,
			Icon:      "fa-arrow-down",
			Color:     "var(--success)",
		}
		if up {
			f.Icon = "fa-arrow-up"
			f.Color = "var(--danger)"
		}
		out = append(out, f)
	}
	return out
}

// ChartBars returns up to MaxBars entries ordered by absolute contribution.
func ChartBars(contribs []predictor.Contribution, palette Palette) []Bar {
	sorted := sortByInfluence(contribs)
	if len(sorted) > MaxBars {
		sorted = sorted[:MaxBars]
	}
	out := make([]Bar, 0, len(sorted))
	for _, c := range sorted {
		out = append(out, Bar{Feature: c.Feature, Value: c.Value, Color: palette.For(c.Value)})
	}
	return out
}

func sortByInfluence(contribs []predictor.Contribution) []predictor.Contribution {
	out := make([]predictor.Contribution, len(contribs))
	copy(out, contribs)
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Value) > math.Abs(out[j].Value)
	})
	return out
}

func panelTitle(m predictor.Method) string {
	if m == predictor.MethodLIME {
		return "Explication locale (LIME)"
	}
	return "Facteurs Influents (SHAP)"
}
