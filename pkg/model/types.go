package model

// ParameterSpec describes one declared input of the prediction endpoint.
type ParameterSpec struct {
	Name        string   `json:"name" yaml:"name"`
	Kind        Kind     `json:"kind" yaml:"kind"`
	Required    bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Default     any      `json:"default,omitempty" yaml:"default,omitempty"`
	EnumValues  []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	Format      string   `json:"format,omitempty" yaml:"format,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// HasEnum reports whether the parameter restricts values to a fixed set.
func (p ParameterSpec) HasEnum() bool {
	return len(p.EnumValues) > 0
}

// HasRange reports whether both bounds are declared.
func (p ParameterSpec) HasRange() bool {
	return p.Minimum != nil && p.Maximum != nil
}

// OutputFieldSpec describes one field of the structured prediction response.
// An empty Kind means the field is opaque.
type OutputFieldSpec struct {
	Name        string `json:"name" yaml:"name"`
	Kind        Kind   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Format      string `json:"format,omitempty" yaml:"format,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Reserved output field names consumed by the classification widget.
const (
	FieldLabels        = "labels"
	FieldProbabilities = "probabilities"
	FieldPredictions   = "predictions"
)

// ReservedParameter is the request parameter the caller never controls; the
// response content type is fixed when the widget set is built.
const ReservedParameter = "accept"

// OutputSchema is the ordered set of response fields. Order drives output
// widget order; names are unique.
type OutputSchema []OutputFieldSpec

// Lookup returns the field with the provided name.
func (s OutputSchema) Lookup(name string) (OutputFieldSpec, bool) {
	for _, field := range s {
		if field.Name == name {
			return field, true
		}
	}
	return OutputFieldSpec{}, false
}

// Has reports whether a field with the provided name exists.
func (s OutputSchema) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// IsClassification reports whether the schema carries both reserved
// classification fields.
func (s OutputSchema) IsClassification() bool {
	return s.Has(FieldLabels) && s.Has(FieldProbabilities)
}

// Names returns the field names in schema order.
func (s OutputSchema) Names() []string {
	names := make([]string, 0, len(s))
	for _, field := range s {
		names = append(names, field.Name)
	}
	return names
}
