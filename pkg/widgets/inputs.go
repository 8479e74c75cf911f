package widgets

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-inferform/pkg/model"
)

// ClassifyParameter returns the input widget for spec. File parameters yield
// only the file widget; MapInputs adds the auxiliary info widget.
func (p *Policy) ClassifyParameter(spec model.ParameterSpec) (model.WidgetDescriptor, error) {
	widget := model.WidgetDescriptor{
		Name: spec.Name,
		Config: model.WidgetConfig{
			Label:    spec.Name,
			Optional: !spec.Required,
		},
	}

	if spec.HasEnum() {
		widget.Kind = model.WidgetDropdown
		widget.Config.Choices = append([]string(nil), spec.EnumValues...)
		widget.Config.Value = enumDefault(spec)
		return widget, nil
	}

	switch spec.Kind {
	case model.KindInteger, model.KindNumber:
		if spec.Kind == model.KindInteger && spec.HasRange() {
			widget.Kind = model.WidgetSlider
			widget.Config.Min = cloneFloat(spec.Minimum)
			widget.Config.Max = cloneFloat(spec.Maximum)
			widget.Config.Step = 1
		} else {
			widget.Kind = model.WidgetNumber
		}
		widget.Config.Value = spec.Default
	case model.KindBoolean:
		widget.Kind = model.WidgetCheckbox
		widget.Config.Value = spec.Default
	case model.KindString:
		widget.Kind = model.WidgetTextbox
		if strings.EqualFold(spec.Format, "password") {
			widget.Kind = model.WidgetPassword
		}
		widget.Config.Value = spec.Default
	case model.KindArray:
		widget.Kind = model.WidgetTextbox
		widget.Config.Value = arrayDefault(spec.Default)
	case model.KindFile:
		widget.Kind = p.fileWidget(spec)
	case model.KindOpaque, model.KindObject, model.KindEnum:
		// An enum reaching this point declared no values.
		return model.WidgetDescriptor{}, &model.UnsupportedTypeError{Name: spec.Name, Kind: spec.Kind}
	default:
		return model.WidgetDescriptor{}, &model.UnsupportedTypeError{Name: spec.Name, Kind: spec.Kind}
	}
	return widget, nil
}

func (p *Policy) fileWidget(spec model.ParameterSpec) model.WidgetKind {
	match := p.sniffer.Sniff(spec.Description)
	if kind, ok := match.Single(); ok {
		return model.MediaWidget(kind)
	}
	if !match.NoParse && len(match.Kinds) == 0 {
		p.emit(model.Warning{
			Kind:    model.MediaTypeUnspecifiedWarning,
			Name:    spec.Name,
			Message: "file parameter description does not mention image, audio or video; using a generic file upload",
		})
	}
	return model.WidgetFile
}

// InfoWidget builds the read-only description widget placed after a file
// input.
func (p *Policy) InfoWidget(spec model.ParameterSpec) model.WidgetDescriptor {
	return model.WidgetDescriptor{
		Name: spec.Name,
		Kind: model.WidgetHTML,
		Config: model.WidgetConfig{
			Label:    spec.Name,
			InfoText: p.sniffer.Clean(spec.Description),
		},
		Auxiliary: true,
	}
}

// MapInputs classifies params in order, skipping the reserved accept
// parameter and placing an info widget immediately after every file widget.
// Any unsupported kind aborts the whole mapping.
func (p *Policy) MapInputs(params []model.ParameterSpec) ([]model.WidgetDescriptor, error) {
	out := make([]model.WidgetDescriptor, 0, len(params)+1)
	for _, spec := range params {
		if spec.Name == model.ReservedParameter {
			continue
		}
		widget, err := p.ClassifyParameter(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, widget)
		if widget.Kind.IsFile() {
			out = append(out, p.InfoWidget(spec))
		}
	}
	return out, nil
}

func enumDefault(spec model.ParameterSpec) any {
	if spec.Default != nil {
		return fmt.Sprint(spec.Default)
	}
	return spec.EnumValues[0]
}

func arrayDefault(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
