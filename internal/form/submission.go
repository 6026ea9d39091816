package form

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/url"
	"strings"
)

// Submission is the bound form body. Binding tags cover presence and simple
// enums; Validate covers the rest.
type Submission struct {
	HeartDisease     string `form:"HeartDisease" json:"HeartDisease" binding:"required,oneof=Yes No"`
	BMI              string `form:"BMI" json:"BMI" binding:"required"`
	Smoking          string `form:"Smoking" json:"Smoking" binding:"required,oneof=Yes No"`
	Sex              string `form:"Sex" json:"Sex" binding:"required,oneof=Female Male"`
	AgeCategory      string `form:"AgeCategory" json:"AgeCategory" binding:"required"`
	Diabetic         string `form:"Diabetic" json:"Diabetic"`
	PhysicalActivity string `form:"PhysicalActivity" json:"PhysicalActivity" binding:"required,oneof=Yes No"`
	GenHealth        string `form:"GenHealth" json:"GenHealth" binding:"required"`
	ModelChoice      string `form:"model_choice" json:"model_choice"`
}

// Rules carries the configured validation variants.
type Rules struct {
	Bounds         Bounds
	DiabeticMinAge int
}

// Validate applies the checks struct tags cannot express.
func (s Submission) Validate(r Rules) FieldErrors {
	var errs FieldErrors
	if err := ValidateBMI(s.BMI, r.Bounds); err != nil {
		errs = errs.add(FieldBMI, r.Bounds.Message())
	}
	if !containsString(AgeCategories, s.AgeCategory) {
		errs = errs.add(FieldAgeCategory, "Catégorie d'âge inconnue")
	}
	if !hasOption(GenHealthOptions, s.GenHealth) {
		errs = errs.add(FieldGenHealth, "Valeur invalide")
	}
	if s.Diabetic != "" && !hasOption(DiabeticOptions, s.Diabetic) {
		errs = errs.add(FieldDiabetic, "Valeur invalide")
	}
	if s.ModelChoice != "" && !hasOption(ModelChoices, s.ModelChoice) {
		errs = errs.add(FieldModelChoice, "Modèle inconnu")
	}
	return errs
}

// State returns the serialized field set in form order.
func (s Submission) State() State {
	model := s.ModelChoice
	if model == "" {
		model = DefaultModel
	}
	diabetic := s.Diabetic
	if diabetic == "" {
		diabetic = "No"
	}
	return State{
		{Name: FieldHeartDisease, Value: s.HeartDisease},
		{Name: FieldBMI, Value: strings.TrimSpace(s.BMI)},
		{Name: FieldSmoking, Value: s.Smoking},
		{Name: FieldSex, Value: s.Sex},
		{Name: FieldAgeCategory, Value: s.AgeCategory},
		{Name: FieldDiabetic, Value: diabetic},
		{Name: FieldPhysicalActivity, Value: s.PhysicalActivity},
		{Name: FieldGenHealth, Value: s.GenHealth},
		{Name: FieldModelChoice, Value: model},
	}
}

// Field is one name/value pair.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// State is the transient form content of one page load.
type State []Field

func (st State) Get(name string) string {
	for _, f := range st {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

func (st State) Values() url.Values {
	out := url.Values{}
	for _, f := range st {
		out.Add(f.Name, f.Value)
	}
	return out
}

// Map is Values without repeated keys, for storing and re-filling the form.
func (st State) Map() map[string]string {
	out := make(map[string]string, len(st))
	for _, f := range st {
		out[f.Name] = f.Value
	}
	return out
}

// Encode writes st as a multipart/form-data body.
func (st State) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range st {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
