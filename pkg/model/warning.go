package model

// WarningKind identifies a non-fatal translation diagnostic.
type WarningKind string

const (
	// SchemaMissingWarning: JSON output declared without an output schema.
	SchemaMissingWarning WarningKind = "schema-missing"
	// MediaTypeUnspecifiedWarning: file parameter without a media hint.
	MediaTypeUnspecifiedWarning WarningKind = "media-type-unspecified"
)

// Warning is a diagnostic emitted while translating the schema. Warnings never
// abort translation.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Name    string      `json:"name,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	if w.Name == "" {
		return string(w.Kind) + ": " + w.Message
	}
	return string(w.Kind) + " (" + w.Name + "): " + w.Message
}
