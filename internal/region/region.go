package region

// Name identifies one of the six fixed facial zones analyzed independently.
type Name string

const (
	Forehead Name = "forehead"
	EyeL     Name = "eye_l"
	EyeR     Name = "eye_r"
	CheekL   Name = "cheek_l"
	CheekR   Name = "cheek_r"
	Chin     Name = "chin"
)

// Spec describes the fixed model output shapes and metric names for a region.
// All regions share a 4-class severity head; the regression head width varies
// per region.
type Spec struct {
	NumClasses  int
	NumTargets  int
	MetricNames []string
	ModelFile   string
}

var specs = map[Name]Spec{
	Forehead: {
		NumClasses: 4,
		NumTargets: 15,
		MetricNames: []string{
			"wrinkle_depth", "elasticity", "hydration", "pigmentation",
			"redness", "pore_size", "sebum", "texture", "firmness",
			"smoothness", "radiance", "evenness", "fine_lines",
			"deep_wrinkles", "sagging",
		},
		ModelFile: "forehead_model.onnx",
	},
	EyeL: {
		NumClasses: 4,
		NumTargets: 8,
		MetricNames: []string{
			"wrinkle_depth", "dark_circles", "puffiness", "elasticity",
			"fine_lines", "hydration", "firmness", "crow_feet",
		},
		ModelFile: "left_eye_model.onnx",
	},
	EyeR: {
		NumClasses: 4,
		NumTargets: 8,
		MetricNames: []string{
			"wrinkle_depth", "dark_circles", "puffiness", "elasticity",
			"fine_lines", "hydration", "firmness", "crow_feet",
		},
		ModelFile: "right_eye_model.onnx",
	},
	CheekL: {
		NumClasses: 4,
		NumTargets: 16,
		MetricNames: []string{
			"wrinkle_depth", "elasticity", "hydration", "pigmentation",
			"redness", "pore_size", "sebum", "texture", "firmness",
			"smoothness", "radiance", "evenness", "acne", "scars",
			"capillaries", "sagging",
		},
		ModelFile: "left_cheek_model.onnx",
	},
	CheekR: {
		NumClasses: 4,
		NumTargets: 16,
		MetricNames: []string{
			"wrinkle_depth", "elasticity", "hydration", "pigmentation",
			"redness", "pore_size", "sebum", "texture", "firmness",
			"smoothness", "radiance", "evenness", "acne", "scars",
			"capillaries", "sagging",
		},
		ModelFile: "right_cheek_model.onnx",
	},
	Chin: {
		NumClasses: 4,
		NumTargets: 15,
		MetricNames: []string{
			"wrinkle_depth", "elasticity", "hydration", "pigmentation",
			"redness", "pore_size", "sebum", "texture", "firmness",
			"smoothness", "acne", "scars", "oiliness", "roughness",
			"sagging",
		},
		ModelFile: "chin_model.onnx",
	},
}

// All returns the six regions in their fixed declaration order. The order is
// stable so aggregation and reporting are reproducible across runs.
func All() []Name {
	return []Name{Forehead, EyeL, EyeR, CheekL, CheekR, Chin}
}

// Get returns the spec for a region.
func Get(n Name) (Spec, bool) {
	s, ok := specs[n]
	return s, ok
}

// MetricNames returns the fixed ordered metric-name list for a region, or nil
// for an unknown region.
func MetricNames(n Name) []string {
	return specs[n].MetricNames
}

// IsValid reports whether n is one of the six fixed regions.
func IsValid(n Name) bool {
	_, ok := specs[n]
	return ok
}
