// AgriSense - Crop and Fertilizer Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrisense

package predict

// Domain names used in routes, metrics and history.
const (
	DomainCrop       = "crop"
	DomainFertilizer = "fertilizer"
)

// Domain binds a feature layout to the labels its classifier emits.
type Domain struct {
	// Name is the route and metrics name ("crop").
	Name string

	// Title is used in operator-facing messages ("Crop").
	Title string

	Spec   FeatureSpec
	Labels LabelMap
}

// UnavailableReason is the rejection text when the classifier is missing.
func (d Domain) UnavailableReason() string {
	return d.Title + " model not loaded"
}

// SoilTypes encodes the fertilizer model's Soil_Type column.
var SoilTypes = MustCategoricalMap("soil_type", map[string]int{
	"Black":         0,
	"Dark Brown":    1,
	"Light Brown":   2,
	"Medium Brown":  3,
	"Red":           4,
	"Reddish Brown": 5,
}, nil)

// CropTypes encodes the fertilizer model's Crop_Type column.
var CropTypes = MustCategoricalMap("crop_type", map[string]int{
	"Cotton":     0,
	"Ginger":     1,
	"Gram":       2,
	"Grapes":     3,
	"Groundnut":  4,
	"Jowar":      5,
	"Maize":      6,
	"Masoor":     7,
	"Moong":      8,
	"Rice":       9,
	"Soybean":    10,
	"Sugar Cane": 11,
	"Tur":        12,
	"Turmeric":   13,
	"Urad":       14,
	"Wheat":      15,
}, map[string]string{
	"Sugarcane": "Sugar Cane",
})

// CropLabels decodes crop classifier output. Ids start at 1.
var CropLabels = NewLabelMap(map[int]string{
	1:  "Rice",
	2:  "Maize",
	3:  "Chickpea",
	4:  "Kidneybeans",
	5:  "Pigeonpeas",
	6:  "MothBeans",
	7:  "MungBean",
	8:  "Blackgram",
	9:  "Lentil",
	10: "Pomegranate",
	11: "Banana",
	12: "Mango",
	13: "Grapes",
	14: "Watermelon",
	15: "Muskmelon",
	16: "Apple",
	17: "Orange",
	18: "Papaya",
	19: "Coconut",
	20: "Cotton",
	21: "Jute",
	22: "Coffee",
	23: "wheat",
	24: "Millets",
	25: "Pulses",
	26: "Sugar Cane",
})

// FertilizerLabels decodes fertilizer classifier output. Ids start at 0.
var FertilizerLabels = NewLabelMap(map[int]string{
	0:  "10:10:10 NPK",
	1:  "10:26:26 NPK",
	2:  "12:32:16 NPK",
	3:  "13:32:26 NPK",
	4:  "18:46:00 NPK",
	5:  "19:19:19 NPK",
	6:  "20:20:20 NPK",
	7:  "50:26:26 NPK",
	8:  "Ammonium Sulphate",
	9:  "Chilated Micronutrient",
	10: "DAP",
	11: "Ferrous Sulphate",
	12: "Hydrated Lime",
	13: "MOP",
	14: "Magnesium Sulphate",
	15: "SSP",
	16: "Sulphur",
	17: "Urea",
	18: "White Potash",
})

// Crop is the crop recommendation domain. Columns follow the training set:
// N, P, K, temperature, humidity, ph, rainfall.
func Crop() Domain {
	return Domain{
		Name:  DomainCrop,
		Title: "Crop",
		Spec: MustFeatureSpec(
			Field{Column: "N", Name: "nitrogen", Keys: []string{"nitrogen", "n"}},
			Field{Column: "P", Name: "phosphorus", Keys: []string{"phosporus", "phosphorus", "p"}},
			Field{Column: "K", Name: "potassium", Keys: []string{"potassium", "k"}},
			Field{Column: "temperature", Name: "temperature", Keys: []string{"temperature", "temp"}},
			Field{Column: "humidity", Name: "humidity", Keys: []string{"humidity", "hum"}},
			Field{Column: "ph", Name: "ph", Label: "pH"},
			Field{Column: "rainfall", Name: "rainfall", Keys: []string{"rainfall", "rain"}},
		),
		Labels: CropLabels,
	}
}

// Fertilizer is the fertilizer recommendation domain. The two categorical
// columns sit between the numeric ones, as in the training frame.
func Fertilizer() Domain {
	return Domain{
		Name:  DomainFertilizer,
		Title: "Fertilizer",
		Spec: MustFeatureSpec(
			Field{Column: "Nitrogen", Name: "nitrogen", Keys: []string{"nitrogen", "n"}},
			Field{Column: "Phosphorus", Name: "phosphorus", Keys: []string{"phosphorus", "phosporus", "p"}},
			Field{Column: "Potassium", Name: "potassium", Keys: []string{"potassium", "k"}},
			Field{Column: "Temperature", Name: "temperature", Keys: []string{"temperature", "temp"}},
			Field{Column: "Soil_Type", Name: "soil_type", Kind: Categorical, Categories: SoilTypes},
			Field{Column: "pH", Name: "ph", Label: "pH"},
			Field{Column: "Crop_Type", Name: "crop_type", Kind: Categorical, Categories: CropTypes},
		),
		Labels: FertilizerLabels,
	}
}

// Domains returns every supported domain in a stable order.
func Domains() []Domain {
	return []Domain{Crop(), Fertilizer()}
}
