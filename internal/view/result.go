// Package view turns prediction responses into display-ready values. Nothing
// here touches HTTP or templates.
package view

import (
	"fmt"
	"math"

	"github.com/Skufu/risklens/internal/predictor"
)

const (
	ColorGreen  = "#10b981"
	ColorOrange = "#f59e0b"
	ColorRed    = "#ef4444"
	ColorBlue   = "#3b82f6"
)

// Band is the colour class of a displayed percentage.
type Band string

const (
	BandGreen  Band = "green"
	BandOrange Band = "orange"
	BandRed    Band = "red"
)

// Badge is the status label shown above the gauge.
type Badge struct {
	Class string `json:"class"`
	Label string `json:"label"`
}

var (
	DangerBadge = Badge{Class: "danger", Label: "⚠️ Risque Identifié"}
	SafeBadge   = Badge{Class: "safe", Label: "✅ Aucun Risque Détecté"}
)

type Result struct {
	Badge       Badge   `json:"badge"`
	Percent     int     `json:"percent"`
	PercentText string  `json:"percentText"`
	Color       string  `json:"color"`
	Band        Band    `json:"band"`
	DashArray   string  `json:"dashArray"`
	Model       string  `json:"model,omitempty"`
	Panels      []Panel `json:"panels"`
	ShowReport  bool    `json:"showReport"`
}

// Percent rounds a probability in [0,1] to a whole percentage.
func Percent(probability float64) int {
	if math.IsNaN(probability) {
		return 0
	}
	return int(math.Floor(probability*100 + 0.5))
}

// BandFor maps a percentage to its fixed colour band: up to 20 green, up to 50
// orange, above that red.
func BandFor(percent int) (Band, string) {
	switch {
	case percent > 50:
		return BandRed, ColorRed
	case percent > 20:
		return BandOrange, ColorOrange
	default:
		return BandGreen, ColorGreen
	}
}

func BadgeFor(risky bool) Badge {
	if risky {
		return DangerBadge
	}
	return SafeBadge
}

// BuildResult assumes resp already passed the success check.
func BuildResult(resp *predictor.Response) Result {
	pct := Percent(resp.Probability)
	band, color := BandFor(pct)

	panels := []Panel{BuildPanel(resp.Explanation, predictor.MethodSHAP)}
	if resp.LimeExplanation != nil {
		panels = append(panels, BuildPanel(resp.LimeExplanation, predictor.MethodLIME))
	}
	panels[0].Active = true

	return Result{
		Badge:       BadgeFor(resp.Risky),
		Percent:     pct,
		PercentText: fmt.Sprintf("%d%%", pct),
		Color:       color,
		Band:        band,
		DashArray:   fmt.Sprintf("%d, 100", pct),
		Model:       resp.Model,
		Panels:      panels,
		ShowReport:  true,
	}
}
