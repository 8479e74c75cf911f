package model

// WidgetKind names the presentation used to collect or display one value.
type WidgetKind string

const (
	WidgetDropdown       WidgetKind = "dropdown"
	WidgetSlider         WidgetKind = "slider"
	WidgetNumber         WidgetKind = "number"
	WidgetCheckbox       WidgetKind = "checkbox"
	WidgetTextbox        WidgetKind = "textbox"
	WidgetPassword       WidgetKind = "textbox-password"
	WidgetImage          WidgetKind = "image"
	WidgetAudio          WidgetKind = "audio"
	WidgetVideo          WidgetKind = "video"
	WidgetFile           WidgetKind = "genericFile"
	WidgetJSON           WidgetKind = "json"
	WidgetClassification WidgetKind = "classificationConfidence"
	WidgetHTML           WidgetKind = "html"
	WidgetNumberDisplay  WidgetKind = "number-display"
)

// IsMedia reports whether the widget previews image, audio or video content.
func (k WidgetKind) IsMedia() bool {
	return k == WidgetImage || k == WidgetAudio || k == WidgetVideo
}

// IsFile reports whether the widget collects or shows a file path.
func (k WidgetKind) IsFile() bool {
	return k.IsMedia() || k == WidgetFile
}

// Media maps media widgets onto their media family.
func (k WidgetKind) Media() MediaKind {
	switch k {
	case WidgetImage:
		return MediaImage
	case WidgetAudio:
		return MediaAudio
	case WidgetVideo:
		return MediaVideo
	default:
		return MediaNone
	}
}

// MediaWidget maps a media family onto its widget.
func MediaWidget(kind MediaKind) WidgetKind {
	switch kind {
	case MediaImage:
		return WidgetImage
	case MediaAudio:
		return WidgetAudio
	case MediaVideo:
		return WidgetVideo
	default:
		return WidgetFile
	}
}

// WidgetConfig carries the kind-specific presentation attributes. Only the
// attributes relevant to the widget kind are populated.
type WidgetConfig struct {
	Label    string   `json:"label,omitempty" yaml:"label,omitempty"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty"`
	Choices  []string `json:"choices,omitempty" yaml:"choices,omitempty"`
	Min      *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Step     float64  `json:"step,omitempty" yaml:"step,omitempty"`
	InfoText string   `json:"infoText,omitempty" yaml:"infoText,omitempty"`
	Optional bool     `json:"optional,omitempty" yaml:"optional,omitempty"`
	// StrictString asks the marshaller to coerce response values to text.
	StrictString bool `json:"strictString,omitempty" yaml:"strictString,omitempty"`
	// TopClasses bounds how many classification entries renderers display.
	TopClasses int `json:"topClasses,omitempty" yaml:"topClasses,omitempty"`
}

// WidgetDescriptor describes how to present one parameter or output field. It
// never owns data.
type WidgetDescriptor struct {
	Name   string       `json:"name" yaml:"name"`
	Kind   WidgetKind   `json:"kind" yaml:"kind"`
	Config WidgetConfig `json:"config" yaml:"config"`
	// Auxiliary marks the read-only info widget injected after file inputs.
	// Its value is never sent to the service.
	Auxiliary bool `json:"auxiliary,omitempty" yaml:"auxiliary,omitempty"`
}

// Label returns the display label, falling back to the name.
func (w WidgetDescriptor) Label() string {
	if w.Config.Label != "" {
		return w.Config.Label
	}
	return w.Name
}

// Confidence pairs a classification label with its score.
type Confidence struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Confidences is the classification widget value. Order follows the service
// response.
type Confidences []Confidence

// Map flattens the confidences into a label-keyed map. Later duplicates win.
func (c Confidences) Map() map[string]float64 {
	out := make(map[string]float64, len(c))
	for _, entry := range c {
		out[entry.Label] = entry.Score
	}
	return out
}
