package web

import (
	"context"
	"fmt"
	"html/template"

	"github.com/Skufu/risklens/internal/chart"
	"github.com/Skufu/risklens/internal/form"
	"github.com/Skufu/risklens/internal/logger"
	"github.com/Skufu/risklens/internal/notify"
	"github.com/Skufu/risklens/internal/storage"
	"github.com/Skufu/risklens/internal/theme"
	"github.com/Skufu/risklens/internal/view"
)

// Session-scoped keys the pipeline writes for each client.
const (
	keyLastForm   = "lastForm"
	keyLastResult = "lastResult"
)

var (
	yesNo = []form.Option{{Value: "No", Label: "Non"}, {Value: "Yes", Label: "Oui"}}
	sexes = []form.Option{{Value: "Female", Label: "Femme"}, {Value: "Male", Label: "Homme"}}
)

// defaultValues pre-selects the form on a first visit.
var defaultValues = map[string]string{
	form.FieldHeartDisease:     "No",
	form.FieldBMI:              "",
	form.FieldSmoking:          "No",
	form.FieldSex:              "Female",
	form.FieldAgeCategory:      "18-24",
	form.FieldDiabetic:         "No",
	form.FieldPhysicalActivity: "Yes",
	form.FieldGenHealth:        "Good",
	form.FieldModelChoice:      form.DefaultModel,
}

type pageData struct {
	ThemeStyle    template.CSS
	Theme         string
	ToggleIcon    string
	Notifications []notify.Notification

	Values map[string]string
	Errors form.FieldErrors

	BMILabel   string
	BMIMin     string
	BMIMax     string
	BMIMessage string

	YesNo            []form.Option
	Sexes            []form.Option
	AgeCategories    []string
	DiabeticVisible  bool
	DiabeticOptions  []form.Option
	GenHealthOptions []form.Option
	ModelChoices     []form.Option

	Result *view.Result
	Charts map[string]string
}

type selectField struct {
	Name    string
	Label   string
	Value   string
	Options []form.Option
	Error   string
}

func selectFor(p *pageData, name, label string, options []form.Option) selectField {
	return selectField{
		Name:    name,
		Label:   label,
		Value:   p.Values[name],
		Options: options,
		Error:   p.Errors.For(name),
	}
}

// newPage fills everything except Values-derived visibility, the result and
// the errors.
func (s *Server) newPage(ctx context.Context, clientID string, values map[string]string) *pageData {
	name := s.deps.Theme.Current(ctx, clientID)
	b := s.deps.Rules.Bounds
	merged := make(map[string]string, len(defaultValues))
	for k, v := range defaultValues {
		merged[k] = v
	}
	for k, v := range values {
		if v != "" {
			merged[k] = v
		}
	}

	return &pageData{
		ThemeStyle:       s.deps.Theme.Style(name),
		Theme:            name,
		ToggleIcon:       theme.ToggleIcon(name),
		Notifications:    s.deps.Notify.For(clientID).List(),
		Values:           merged,
		BMILabel:         b.Label,
		BMIMin:           fmt.Sprintf("%g", b.Min),
		BMIMax:           fmt.Sprintf("%g", b.Max),
		BMIMessage:       b.Message(),
		YesNo:            yesNo,
		Sexes:            sexes,
		AgeCategories:    form.AgeCategories,
		DiabeticVisible:  form.ConditionalVisible(merged[form.FieldAgeCategory], s.deps.Rules.DiabeticMinAge),
		DiabeticOptions:  form.DiabeticOptions,
		GenHealthOptions: form.GenHealthOptions,
		ModelChoices:     form.ModelChoices,
	}
}

// lastValues reads the form the client submitted last in this session.
func (s *Server) lastValues(ctx context.Context, clientID string) map[string]string {
	var values map[string]string
	if !s.deps.Storage.Get(ctx, clientID, storage.ScopeSession, keyLastForm, &values) {
		return nil
	}
	return values
}

func (s *Server) lastResult(ctx context.Context, clientID string) *view.Result {
	var res view.Result
	if !s.deps.Storage.Get(ctx, clientID, storage.ScopeSession, keyLastResult, &res) {
		return nil
	}
	return &res
}

// renderCharts draws one chart per available panel. A chart failure only
// drops that chart; the factor list still renders.
func renderCharts(res *view.Result) map[string]string {
	out := make(map[string]string, len(res.Panels))
	for _, p := range res.Panels {
		if !p.Available || len(p.Bars) == 0 {
			continue
		}
		doc, err := chart.Render(p)
		if err != nil {
			logger.Warnf("chart %s: %v", p.ID, err)
			continue
		}
		out[p.ID] = string(doc)
	}
	return out
}
