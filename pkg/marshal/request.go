package marshal

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/goliatone/go-inferform/pkg/media"
	"github.com/goliatone/go-inferform/pkg/model"
)

// FilePart is one multipart upload.
type FilePart struct {
	Filename string
	Content  []byte
	// MIMEType is empty when the type could not be inferred.
	MIMEType string
}

// Request is the outbound prediction call. Params values are string, bool,
// int64, float64 or []any.
type Request struct {
	Params map[string]any
	Files  map[string]FilePart
}

// pather is satisfied by handles such as *media.TempFile so a previous
// output can be fed back as an input.
type pather interface {
	Path() string
}

// BuildRequest converts one value per input widget into the outbound
// request. Values at auxiliary widget positions are ignored. Falsy values are
// omitted except for booleans, which are always sent.
func (m *Marshaller) BuildRequest(values []any) (Request, error) {
	if len(values) != len(m.inputs) {
		return Request{}, fmt.Errorf("marshal: expected %d values, got %d", len(m.inputs), len(values))
	}

	req := Request{
		Params: make(map[string]any),
		Files:  make(map[string]FilePart),
	}
	idx := 0
	for pos, value := range values {
		if m.inputs[pos].Auxiliary {
			continue
		}
		spec := m.params[idx]
		idx++

		if spec.Kind == model.KindBoolean {
			flag, err := toBool(value)
			if err != nil {
				return Request{}, &model.ValueError{Name: spec.Name, Kind: spec.Kind, Err: err}
			}
			req.Params[spec.Name] = flag
			continue
		}
		if isFalsy(value) {
			continue
		}

		if spec.Kind == model.KindFile {
			part, err := m.filePart(value)
			if err != nil {
				return Request{}, &model.ValueError{Name: spec.Name, Kind: spec.Kind, Err: err}
			}
			req.Files[spec.Name] = part
			continue
		}

		converted, err := convertParam(spec, value)
		if err != nil {
			return Request{}, &model.ValueError{Name: spec.Name, Kind: spec.Kind, Err: err}
		}
		req.Params[spec.Name] = converted
	}

	req.Params[model.ReservedParameter] = m.mime
	return req, nil
}

func (m *Marshaller) filePart(value any) (FilePart, error) {
	var path string
	switch v := value.(type) {
	case string:
		path = v
	case pather:
		path = v.Path()
	default:
		return FilePart{}, fmt.Errorf("expected a file path, got %T", value)
	}
	content, err := m.readFile(path)
	if err != nil {
		return FilePart{}, err
	}
	return FilePart{
		Filename: filepath.Base(path),
		Content:  content,
		MIMEType: media.InferMIME(path),
	}, nil
}

func convertParam(spec model.ParameterSpec, value any) (any, error) {
	if spec.HasEnum() {
		return stringify(value), nil
	}
	switch spec.Kind {
	case model.KindInteger:
		return toInt(value)
	case model.KindNumber:
		return toFloat(value)
	case model.KindArray:
		if text, ok := value.(string); ok {
			return ParseLiteralList(text)
		}
		return value, nil
	default:
		return value, nil
	}
}

// ParseLiteralList parses array parameter text. Text starting with "[" is a
// JSON array; anything else is treated as the comma separated body of one.
func ParseLiteralList(text string) ([]any, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "[") {
		trimmed = "[" + trimmed + "]"
	}
	var out []any
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, fmt.Errorf("parse list %q: %w", text, err)
	}
	return out, nil
}

func isFalsy(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return v == ""
	case bool:
		return !v
	case int:
		return v == 0
	case int64:
		return v == 0
	case float64:
		return v == 0
	case json.Number:
		return v == "" || v == "0"
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	}
	return false
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "on", "yes":
			return true, nil
		case "off", "no":
			return false, nil
		}
		return strconv.ParseBool(strings.TrimSpace(v))
	default:
		return !isFalsy(v), nil
	}
}

func toInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case float64:
		return truncate(v)
	case float32:
		return truncate(float64(v))
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, err
		}
		return truncate(f)
	case string:
		trimmed := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", v)
		}
		return truncate(f)
	default:
		return 0, fmt.Errorf("not an integer: %T", value)
	}
}

func truncate(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %v", f)
	}
	return int64(f), nil
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("not a number: %T", value)
	}
}

func stringify(value any) string {
	if text, ok := value.(string); ok {
		return text
	}
	return fmt.Sprint(value)
}
