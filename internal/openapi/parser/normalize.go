package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// normalizeJSON returns the document as JSON. YAML documents are converted
// node by node so mapping key order survives; order drives parameter and
// output widget order.
func normalizeJSON(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}
	if trimmed[0] == '{' {
		if !json.Valid(trimmed) {
			return nil, errors.New("openapi parser: invalid JSON document")
		}
		return trimmed, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(trimmed, &root); err != nil {
		return nil, fmt.Errorf("openapi parser: decode yaml: %w", err)
	}
	var buf bytes.Buffer
	if err := writeNode(&buf, &root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, node *yaml.Node) error {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeNode(buf, node.Content[0])
	case yaml.AliasNode:
		return writeNode(buf, node.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(node.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(node.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeNode(buf, node.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, child := range node.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNode(buf, child); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case yaml.ScalarNode:
		var value any
		if err := node.Decode(&value); err != nil {
			return fmt.Errorf("openapi parser: decode yaml scalar at line %d: %w", node.Line, err)
		}
		encoded, err := json.Marshal(jsonScalar(value))
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil
	default:
		return fmt.Errorf("openapi parser: unsupported yaml node kind %d", node.Kind)
	}
}

// jsonScalar maps YAML-only scalar types onto JSON-encodable values.
func jsonScalar(value any) any {
	switch v := value.(type) {
	case fmt.Stringer:
		return v.String()
	default:
		return v
	}
}

// detectDialect reads the top-level version marker.
func detectDialect(doc []byte) (string, string, error) {
	var marker struct {
		Swagger string `json:"swagger"`
		OpenAPI string `json:"openapi"`
	}
	if err := json.Unmarshal(doc, &marker); err != nil {
		return "", "", fmt.Errorf("openapi parser: read version marker: %w", err)
	}
	switch {
	case strings.HasPrefix(marker.Swagger, "2."):
		return "swagger", marker.Swagger, nil
	case strings.HasPrefix(marker.OpenAPI, "3."):
		return "openapi", marker.OpenAPI, nil
	default:
		return "", "", fmt.Errorf("openapi parser: unsupported document version (swagger=%q openapi=%q)", marker.Swagger, marker.OpenAPI)
	}
}

// lookupRaw walks object keys and returns the raw value at path.
func lookupRaw(doc []byte, path ...string) (json.RawMessage, bool) {
	current := json.RawMessage(doc)
	for _, key := range path {
		object := orderedmap.New[string, json.RawMessage]()
		if err := json.Unmarshal(current, object); err != nil {
			return nil, false
		}
		next, ok := object.Get(key)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// orderedKeys returns the keys of the object at path in document order.
func orderedKeys(doc []byte, path ...string) []string {
	raw, ok := lookupRaw(doc, path...)
	if !ok {
		return nil
	}
	object := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, object); err != nil {
		return nil
	}
	keys := make([]string, 0, object.Len())
	for pair := object.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// refPath converts a local JSON pointer ("#/definitions/Foo") into path keys.
func refPath(ref string) ([]string, bool) {
	if !strings.HasPrefix(ref, "#/") {
		return nil, false
	}
	parts := strings.Split(strings.TrimPrefix(ref, "#/"), "/")
	for i, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		parts[i] = strings.ReplaceAll(part, "~0", "~")
	}
	return parts, true
}
