package chart

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/risklens/internal/predictor"
	"github.com/Skufu/risklens/internal/view"
)

func TestRenderHorizontalBars(t *testing.T) {
	panel := view.BuildPanel(&predictor.Explanation{
		AllFeatures: []predictor.Contribution{
			{Feature: "BMI", Value: 0.4},
			{Feature: "Smoking=No", Value: -0.2},
		},
	}, predictor.MethodSHAP)

	html, err := Render(panel)
	require.NoError(t, err)
	out := string(html)
	assert.Contains(t, out, "BMI")
	assert.Contains(t, out, "Smoking=No")
	assert.Contains(t, out, view.ColorRed)
	assert.Contains(t, out, view.ColorGreen)
	// Most influential feature is fed last so it lands on top of the axis.
	assert.Less(t, strings.Index(out, "Smoking=No"), strings.Index(out, "BMI"))
}

func TestRenderUnavailablePanel(t *testing.T) {
	_, err := Render(view.BuildPanel(nil, predictor.MethodLIME))
	require.Error(t, err)
}
