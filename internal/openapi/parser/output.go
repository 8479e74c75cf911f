package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-inferform/pkg/model"
)

const maxRefDepth = 16

// schemaNode is the subset of a JSON schema needed to classify outputs.
type schemaNode struct {
	Ref         string          `json:"$ref"`
	Type        json.RawMessage `json:"type"`
	Format      string          `json:"format"`
	Description string          `json:"description"`
	Title       string          `json:"title"`
}

// declaredType accepts both the single string and the OpenAPI 3.1 list form,
// ignoring "null".
func (n schemaNode) declaredType() string {
	if len(n.Type) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(n.Type, &single); err == nil {
		return single
	}
	var many []string
	if err := json.Unmarshal(n.Type, &many); err == nil {
		for _, candidate := range many {
			if candidate != "null" {
				return candidate
			}
		}
	}
	return ""
}

// resolveNode reads the schema at path, following local $ref pointers. It
// returns the path of the resolved node so callers can walk its properties.
func resolveNode(doc []byte, path []string) (schemaNode, []string, error) {
	current := path
	for depth := 0; depth < maxRefDepth; depth++ {
		raw, ok := lookupRaw(doc, current...)
		if !ok {
			return schemaNode{}, nil, fmt.Errorf("openapi parser: schema %s not found", strings.Join(current, "/"))
		}
		var node schemaNode
		if err := json.Unmarshal(raw, &node); err != nil {
			return schemaNode{}, nil, fmt.Errorf("openapi parser: decode schema %s: %w", strings.Join(current, "/"), err)
		}
		if node.Ref == "" {
			return node, current, nil
		}
		next, ok := refPath(node.Ref)
		if !ok {
			return schemaNode{}, nil, fmt.Errorf("openapi parser: external reference %q is not supported", node.Ref)
		}
		current = next
	}
	return schemaNode{}, nil, fmt.Errorf("openapi parser: reference chain at %s is too deep", strings.Join(path, "/"))
}

// outputSchemaAt builds the ordered output schema from the object schema at
// path. A missing node yields (nil, false, nil).
func outputSchemaAt(doc []byte, path []string) (model.OutputSchema, bool, error) {
	if _, ok := lookupRaw(doc, path...); !ok {
		return nil, false, nil
	}
	_, resolved, err := resolveNode(doc, path)
	if err != nil {
		return nil, false, err
	}
	propsPath := appendPath(resolved, "properties")
	names := orderedKeys(doc, propsPath...)
	if len(names) == 0 {
		return nil, false, nil
	}

	schema := make(model.OutputSchema, 0, len(names))
	for _, name := range names {
		field, err := outputField(doc, appendPath(propsPath, name), name)
		if err != nil {
			return nil, false, err
		}
		schema = append(schema, field)
	}
	return schema, true, nil
}

func outputField(doc []byte, path []string, name string) (model.OutputFieldSpec, error) {
	raw, _ := lookupRaw(doc, path...)
	var own schemaNode
	if err := json.Unmarshal(raw, &own); err != nil {
		return model.OutputFieldSpec{}, fmt.Errorf("openapi parser: decode output field %q: %w", name, err)
	}

	node := own
	if own.Ref != "" {
		resolved, _, err := resolveNode(doc, path)
		if err != nil {
			return model.OutputFieldSpec{}, err
		}
		node = resolved
		if node.declaredType() == "" {
			// referenced definitions without a type are objects
			node.Type = json.RawMessage(`"object"`)
		}
	}

	description := own.Description
	if description == "" {
		description = node.Description
	}
	return model.OutputFieldSpec{
		Name:        name,
		Kind:        model.ParseKind(node.declaredType()),
		Format:      node.Format,
		Description: description,
	}, nil
}

func appendPath(path []string, keys ...string) []string {
	out := make([]string, 0, len(path)+len(keys))
	out = append(out, path...)
	return append(out, keys...)
}
