package form

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Bounds is an accepted body-mass-index interval.
type Bounds struct {
	Name         string
	Min          float64
	Max          float64
	MinExclusive bool
	Label        string
}

var (
	StrictBounds = Bounds{Name: "strict", Min: 10, Max: 60, Label: "10-60"}
	WideBounds   = Bounds{Name: "wide", Min: 0, Max: 200, MinExclusive: true, Label: "0-200"}
)

// BoundsFor maps a configured variant name to its interval. Unknown names get StrictBounds.
func BoundsFor(name string) Bounds {
	if strings.EqualFold(strings.TrimSpace(name), WideBounds.Name) {
		return WideBounds
	}
	return StrictBounds
}

func (b Bounds) Contains(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if b.MinExclusive {
		if v <= b.Min {
			return false
		}
	} else if v < b.Min {
		return false
	}
	return v <= b.Max
}

func (b Bounds) Message() string {
	return fmt.Sprintf("IMC invalide (%s)", b.Label)
}

// FieldError is an inline message attached to one input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// FieldErrors keeps the order in which inputs appear on the form.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// For returns the message for field, or "" when the field is valid.
func (fe FieldErrors) For(field string) string {
	for _, e := range fe {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// Merge appends messages for fields fe does not already report.
func (fe FieldErrors) Merge(other FieldErrors) FieldErrors {
	for _, e := range other {
		fe = fe.add(e.Field, e.Message)
	}
	return fe
}

func (fe FieldErrors) add(field, message string) FieldErrors {
	if fe.For(field) != "" {
		return fe
	}
	return append(fe, FieldError{Field: field, Message: message})
}

// ValidateBMI parses raw and checks it against b.
func ValidateBMI(raw string, b Bounds) error {
	val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !b.Contains(val) {
		return FieldError{Field: FieldBMI, Message: b.Message()}
	}
	return nil
}

// ParseMinAge reads the lower bound of an age category such as "50-54" or
// "80 or older". Values without a leading integer yield 80.
func ParseMinAge(category string) int {
	head := strings.TrimSpace(strings.SplitN(category, "-", 2)[0])
	end := 0
	for end < len(head) && unicode.IsDigit(rune(head[end])) {
		end++
	}
	if end == 0 {
		return 80
	}
	n, err := strconv.Atoi(head[:end])
	if err != nil {
		return 80
	}
	return n
}

// ConditionalVisible reports whether the diabetic group is shown for category.
func ConditionalVisible(category string, threshold int) bool {
	return ParseMinAge(category) >= threshold
}

var structToForm = map[string]string{
	"HeartDisease":     FieldHeartDisease,
	"BMI":              FieldBMI,
	"Smoking":          FieldSmoking,
	"Sex":              FieldSex,
	"AgeCategory":      FieldAgeCategory,
	"Diabetic":         FieldDiabetic,
	"PhysicalActivity": FieldPhysicalActivity,
	"GenHealth":        FieldGenHealth,
	"ModelChoice":      FieldModelChoice,
}

// FromBindingError turns a gin binding failure into inline messages.
func FromBindingError(err error) FieldErrors {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{{Message: "Formulaire invalide"}}
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		name, ok := structToForm[fe.StructField()]
		if !ok {
			name = fe.Field()
		}
		switch fe.Tag() {
		case "required":
			out = out.add(name, "Champ obligatoire")
		default:
			out = out.add(name, "Valeur invalide")
		}
	}
	return out
}
