package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-inferform/pkg/model"
	pkgopenapi "github.com/goliatone/go-inferform/pkg/openapi"
)

// Transformer patches the selected endpoint before widgets are derived.
type Transformer interface {
	Transform(ctx context.Context, endpoint *pkgopenapi.Endpoint) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, endpoint *pkgopenapi.Endpoint) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, endpoint *pkgopenapi.Endpoint) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, endpoint)
}

// PresetTransformer applies declarative patches loaded from a YAML (or JSON)
// document. It is mostly used to add the media hint a schema author forgot:
//
//	parameters:
//	  data:
//	    description: "Input image"
//	outputs:
//	  preview:
//	    kind: string
//	    description: "annotated image"
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Parameters map[string]parameterPatch `yaml:"parameters"`
	Outputs    map[string]outputPatch    `yaml:"outputs"`
}

type parameterPatch struct {
	Description *string  `yaml:"description"`
	Required    *bool    `yaml:"required"`
	Default     any      `yaml:"default"`
	Enum        []string `yaml:"enum"`
	Format      *string  `yaml:"format"`
	Minimum     *float64 `yaml:"minimum"`
	Maximum     *float64 `yaml:"maximum"`
}

type outputPatch struct {
	Kind        *string `yaml:"kind"`
	Description *string `yaml:"description"`
	Format      *string `yaml:"format"`
}

// NewPresetTransformer constructs a transformer from raw YAML or JSON bytes.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from the provided
// filesystem path.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform implements Transformer. Patches naming unknown parameters or
// fields are reported as errors so typos do not go unnoticed.
func (t *PresetTransformer) Transform(_ context.Context, endpoint *pkgopenapi.Endpoint) error {
	if t == nil || endpoint == nil {
		return nil
	}

	if len(t.document.Parameters) > 0 {
		endpoint.Parameters = append([]model.ParameterSpec(nil), endpoint.Parameters...)
	}
	for name, patch := range t.document.Parameters {
		idx := indexOfParameter(endpoint.Parameters, name)
		if idx < 0 {
			return fmt.Errorf("preset transformer: parameter %q not found", name)
		}
		patch.apply(&endpoint.Parameters[idx])
	}

	if len(t.document.Outputs) > 0 {
		output := append(model.OutputSchema(nil), endpoint.Output...)
		for name, patch := range t.document.Outputs {
			idx := -1
			for i, field := range output {
				if field.Name == name {
					idx = i
					break
				}
			}
			if idx < 0 {
				return fmt.Errorf("preset transformer: output field %q not found", name)
			}
			patch.apply(&output[idx])
		}
		endpoint.Output = output
	}
	return nil
}

func indexOfParameter(params []model.ParameterSpec, name string) int {
	for i, spec := range params {
		if spec.Name == name {
			return i
		}
	}
	return -1
}

func (p parameterPatch) apply(spec *model.ParameterSpec) {
	if p.Description != nil {
		spec.Description = *p.Description
	}
	if p.Required != nil {
		spec.Required = *p.Required
	}
	if p.Default != nil {
		spec.Default = p.Default
	}
	if len(p.Enum) > 0 {
		spec.EnumValues = append([]string(nil), p.Enum...)
	}
	if p.Format != nil {
		spec.Format = *p.Format
	}
	if p.Minimum != nil {
		v := *p.Minimum
		spec.Minimum = &v
	}
	if p.Maximum != nil {
		v := *p.Maximum
		spec.Maximum = &v
	}
}

func (p outputPatch) apply(field *model.OutputFieldSpec) {
	if p.Kind != nil {
		field.Kind = model.ParseKind(*p.Kind)
	}
	if p.Description != nil {
		field.Description = *p.Description
	}
	if p.Format != nil {
		field.Format = *p.Format
	}
}
