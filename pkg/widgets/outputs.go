package widgets

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-inferform/pkg/media"
	"github.com/goliatone/go-inferform/pkg/model"
)

// ClassifyOutputs returns the output widgets for schema in field order.
// labels and probabilities never get a widget of their own; when both are
// declared a single classification widget is appended last.
func (p *Policy) ClassifyOutputs(schema model.OutputSchema) ([]model.WidgetDescriptor, error) {
	out := make([]model.WidgetDescriptor, 0, len(schema)+1)
	for _, field := range schema {
		if field.Name == model.FieldLabels || field.Name == model.FieldProbabilities {
			continue
		}
		widget, err := p.classifyOutput(field)
		if err != nil {
			return nil, err
		}
		out = append(out, widget)
	}
	if schema.IsClassification() {
		out = append(out, p.classificationWidget())
	}
	return out, nil
}

func (p *Policy) classifyOutput(field model.OutputFieldSpec) (model.WidgetDescriptor, error) {
	widget := model.WidgetDescriptor{
		Name:   field.Name,
		Config: model.WidgetConfig{Label: field.Name},
	}
	switch field.Kind {
	case model.KindOpaque:
		widget.Kind = model.WidgetTextbox
	case model.KindString, model.KindBoolean:
		if kind, ok := p.sniffer.Sniff(field.Description).First(); ok {
			widget.Kind = model.MediaWidget(kind)
			break
		}
		widget.Kind = model.WidgetTextbox
		if strings.EqualFold(field.Format, "password") {
			widget.Kind = model.WidgetPassword
		}
		widget.Config.StrictString = true
	case model.KindInteger, model.KindNumber:
		widget.Kind = model.WidgetNumberDisplay
	case model.KindArray:
		widget.Kind = model.WidgetTextbox
		widget.Config.StrictString = true
	case model.KindObject:
		widget.Kind = model.WidgetJSON
	case model.KindFile, model.KindEnum:
		// file and enum only describe request parameters
		return model.WidgetDescriptor{}, &model.UnsupportedTypeError{Name: field.Name, Kind: field.Kind, Output: true}
	default:
		return model.WidgetDescriptor{}, &model.UnsupportedTypeError{Name: field.Name, Kind: field.Kind, Output: true}
	}
	return widget, nil
}

func (p *Policy) classificationWidget() model.WidgetDescriptor {
	return model.WidgetDescriptor{
		Name: p.classificationLabel,
		Kind: model.WidgetClassification,
		Config: model.WidgetConfig{
			Label:      p.classificationLabel,
			TopClasses: p.topClasses,
		},
	}
}

// ResponseWidgets picks the output widgets for a negotiated content type.
// JSON responses use the output schema when one is declared and fall back to
// a single json widget otherwise; the second return value reports whether the
// schema was used. Other content types yield one widget for the whole body.
func (p *Policy) ResponseWidgets(mime string, schema model.OutputSchema) ([]model.WidgetDescriptor, bool, error) {
	if media.IsJSON(mime) {
		if len(schema) > 0 {
			widgets, err := p.ClassifyOutputs(schema)
			return widgets, true, err
		}
		p.emit(model.Warning{
			Kind:    model.SchemaMissingWarning,
			Message: fmt.Sprintf("no output schema declared for %s; showing raw predictions", mime),
		})
		return []model.WidgetDescriptor{{
			Name:   model.FieldPredictions,
			Kind:   model.WidgetJSON,
			Config: model.WidgetConfig{Label: model.FieldPredictions},
		}}, false, nil
	}

	family := mediaFamily(mime)
	var kind model.WidgetKind
	switch family {
	case "image", "audio", "video":
		kind = model.MediaWidget(model.MediaKind(family))
	case "application":
		kind = model.WidgetFile
	default:
		return nil, false, fmt.Errorf("%w: %q", model.ErrUnsupportedMIME, mime)
	}
	label := "output"
	if ext, ok := media.FindFiletype(mime); ok {
		label = ext
	}
	return []model.WidgetDescriptor{{
		Name:   label,
		Kind:   kind,
		Config: model.WidgetConfig{Label: label},
	}}, false, nil
}

func mediaFamily(mime string) string {
	base := mime
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = base[:idx]
	}
	family, _, ok := strings.Cut(strings.TrimSpace(base), "/")
	if !ok {
		return ""
	}
	return strings.ToLower(family)
}
