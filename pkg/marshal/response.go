package marshal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/goliatone/go-inferform/pkg/media"
	"github.com/goliatone/go-inferform/pkg/model"
)

const statusError = "error"

// Result is the widget-ordered outcome of one call.
//
// Files lists every transient file created while parsing the response. The
// caller owns them and must Release them once the values are no longer
// displayed; unreleased files accumulate on disk.
type Result struct {
	Values []any
	Files  []*media.TempFile
}

// Release removes every transient file of the result.
func (r Result) Release() error {
	return media.ReleaseAll(r.Files...)
}

// ParseResponse converts a raw prediction response into one value per output
// widget. Media values are yielded as file paths.
func (m *Marshaller) ParseResponse(raw []byte, status int) (Result, error) {
	if status != http.StatusOK {
		return Result{}, &model.RemoteCallError{Status: status, Body: string(raw)}
	}
	if !media.IsJSON(m.mime) {
		return m.parseBlob(raw)
	}

	payload, err := decodePayload(raw)
	if err != nil {
		return Result{}, err
	}
	if s, ok := payload["status"].(string); ok && s == statusError {
		return Result{}, &model.RemoteLogicError{Message: stringify(payload["message"])}
	}
	if !m.schemaPresent {
		return Result{Values: []any{payload[model.FieldPredictions]}}, nil
	}

	result := Result{Values: make([]any, 0, len(m.outputs))}
	for _, widget := range m.outputs {
		value, file, err := m.outputValue(widget, payload)
		if err != nil {
			_ = result.Release()
			return Result{}, err
		}
		if file != nil {
			result.Files = append(result.Files, file)
		}
		result.Values = append(result.Values, value)
	}
	return result, nil
}

func (m *Marshaller) parseBlob(raw []byte) (Result, error) {
	ext, _ := media.FindFiletype(m.mime)
	file, err := m.codec.WriteBlob(raw, ext)
	if err != nil {
		return Result{}, err
	}
	return Result{Values: []any{file.Path()}, Files: []*media.TempFile{file}}, nil
}

func decodePayload(raw []byte) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("marshal: decode json response: %w", err)
	}
	if payload == nil {
		return nil, errors.New("marshal: json response is not an object")
	}
	return payload, nil
}

func (m *Marshaller) outputValue(widget model.WidgetDescriptor, payload map[string]any) (any, *media.TempFile, error) {
	if widget.Kind == model.WidgetClassification {
		scores, err := zipConfidences(payload[model.FieldLabels], payload[model.FieldProbabilities])
		return scores, nil, err
	}

	value, ok := payload[widget.Name]
	if !ok || value == nil {
		return nil, nil, nil
	}

	switch {
	case widget.Kind.IsMedia():
		encoded, ok := value.(string)
		if !ok {
			return nil, nil, fmt.Errorf("marshal: %s: expected base64 text, got %T", widget.Name, value)
		}
		file, err := m.codec.DecodeBase64(encoded, widget.Kind.Media())
		if err != nil {
			return nil, nil, fmt.Errorf("marshal: %s: %w", widget.Name, err)
		}
		return file.Path(), file, nil
	case widget.Config.StrictString:
		text, err := coerceString(value)
		return text, nil, err
	default:
		return value, nil, nil
	}
}

// zipConfidences pairs labels with probabilities positionally. Both absent
// yields nil.
func zipConfidences(labels, probabilities any) (model.Confidences, error) {
	if labels == nil && probabilities == nil {
		return nil, nil
	}
	names, ok := labels.([]any)
	if !ok {
		return nil, fmt.Errorf("marshal: %s: expected a list, got %T", model.FieldLabels, labels)
	}
	scores, ok := probabilities.([]any)
	if !ok {
		return nil, fmt.Errorf("marshal: %s: expected a list, got %T", model.FieldProbabilities, probabilities)
	}
	if len(names) != len(scores) {
		return nil, fmt.Errorf("marshal: %d labels but %d probabilities", len(names), len(scores))
	}
	out := make(model.Confidences, 0, len(names))
	for i := range names {
		score, err := toFloat(scores[i])
		if err != nil {
			return nil, fmt.Errorf("marshal: %s[%d]: %w", model.FieldProbabilities, i, err)
		}
		out = append(out, model.Confidence{Label: stringify(names[i]), Score: score})
	}
	return out, nil
}

// coerceString renders scalars with their natural text form and composites
// as compact JSON.
func coerceString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool, float64, json.Number:
		return fmt.Sprint(v), nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("marshal: render text value: %w", err)
		}
		return string(encoded), nil
	}
}
