package form

// Field names as the prediction backend reads them.
const (
	FieldHeartDisease     = "HeartDisease"
	FieldBMI              = "BMI"
	FieldSmoking          = "Smoking"
	FieldSex              = "Sex"
	FieldAgeCategory      = "AgeCategory"
	FieldDiabetic         = "Diabetic"
	FieldPhysicalActivity = "PhysicalActivity"
	FieldGenHealth        = "GenHealth"
	FieldModelChoice      = "model_choice"
)

const DefaultModel = "log_reg"

// Option is one entry of a select input.
type Option struct {
	Value string
	Label string
}

var (
	AgeCategories = []string{
		"18-24", "25-29", "30-34", "35-39", "40-44", "45-49", "50-54",
		"55-59", "60-64", "65-69", "70-74", "75-79", "80 or older",
	}

	GenHealthOptions = []Option{
		{Value: "Excellent", Label: "Excellente"},
		{Value: "Very good", Label: "Très bonne"},
		{Value: "Good", Label: "Bonne"},
		{Value: "Fair", Label: "Moyenne"},
		{Value: "Poor", Label: "Mauvaise"},
	}

	DiabeticOptions = []Option{
		{Value: "No", Label: "Non"},
		{Value: "Yes", Label: "Oui"},
		{Value: "No, borderline diabetes", Label: "Pré-diabète"},
		{Value: "Yes (during pregnancy)", Label: "Gestationnel"},
	}

	ModelChoices = []Option{
		{Value: "log_reg", Label: "Régression logistique"},
		{Value: "random_forest", Label: "Random Forest"},
		{Value: "gradient_boosting", Label: "Gradient Boosting"},
		{Value: "knn", Label: "KNN"},
	}
)

func hasOption(options []Option, value string) bool {
	for _, o := range options {
		if o.Value == value {
			return true
		}
	}
	return false
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
