package parser

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/goliatone/go-inferform/pkg/model"
	pkgopenapi "github.com/goliatone/go-inferform/pkg/openapi"
)

type swaggerDocument struct {
	Info struct {
		Title   string `json:"title"`
		Version string `json:"version"`
	} `json:"info"`
	Produces   []string                                        `json:"produces"`
	Paths      *orderedmap.OrderedMap[string, swaggerPathItem] `json:"paths"`
	Parameters map[string]swaggerParameter                     `json:"parameters"`
}

type swaggerPathItem struct {
	Parameters []swaggerParameter `json:"parameters"`
	Post       *swaggerOperation  `json:"post"`
}

type swaggerOperation struct {
	Summary     string                     `json:"summary"`
	Description string                     `json:"description"`
	Parameters  []swaggerParameter         `json:"parameters"`
	Produces    []string                   `json:"produces"`
	Responses   map[string]json.RawMessage `json:"responses"`
}

type swaggerParameter struct {
	Ref         string          `json:"$ref"`
	Name        string          `json:"name"`
	In          string          `json:"in"`
	Type        string          `json:"type"`
	Format      string          `json:"format"`
	Description string          `json:"description"`
	Required    bool            `json:"required"`
	Enum        []any           `json:"enum"`
	Minimum     *float64        `json:"minimum"`
	Maximum     *float64        `json:"maximum"`
	Default     any             `json:"default"`
	Schema      json.RawMessage `json:"schema"`
}

func (p *Parser) parseSwagger2(doc []byte) (pkgopenapi.Spec, error) {
	var swagger swaggerDocument
	if err := json.Unmarshal(doc, &swagger); err != nil {
		return pkgopenapi.Spec{}, fmt.Errorf("openapi parser: decode swagger document: %w", err)
	}

	spec := pkgopenapi.Spec{
		Dialect: pkgopenapi.DialectSwagger2,
		Title:   swagger.Info.Title,
		Version: swagger.Info.Version,
	}
	if swagger.Paths == nil {
		return spec, nil
	}

	for pair := swagger.Paths.Oldest(); pair != nil; pair = pair.Next() {
		item := pair.Value
		if item.Post == nil {
			continue
		}
		endpoint, err := p.swaggerEndpoint(doc, swagger, pair.Key, item)
		if err != nil {
			return pkgopenapi.Spec{}, err
		}
		spec.Endpoints = append(spec.Endpoints, endpoint)
	}
	return spec, nil
}

func (p *Parser) swaggerEndpoint(doc []byte, swagger swaggerDocument, path string, item swaggerPathItem) (pkgopenapi.Endpoint, error) {
	op := item.Post
	endpoint := pkgopenapi.Endpoint{
		Path:        path,
		Method:      http.MethodPost,
		Summary:     op.Summary,
		Description: op.Description,
		Produces:    op.Produces,
	}
	if len(endpoint.Produces) == 0 {
		endpoint.Produces = swagger.Produces
	}

	declared := append(append([]swaggerParameter(nil), item.Parameters...), op.Parameters...)
	for _, raw := range declared {
		param, err := resolveSwaggerParameter(swagger, raw)
		if err != nil {
			return pkgopenapi.Endpoint{}, fmt.Errorf("openapi parser: %s: %w", path, err)
		}
		spec, err := swaggerParameterSpec(param)
		if err != nil {
			return pkgopenapi.Endpoint{}, fmt.Errorf("openapi parser: %s: %w", path, err)
		}
		endpoint.Parameters = append(endpoint.Parameters, spec)
	}

	output, ok, err := outputSchemaAt(doc, []string{"definitions", p.options.OutputDefinition})
	if err != nil {
		return pkgopenapi.Endpoint{}, err
	}
	if !ok {
		output, _, err = outputSchemaAt(doc, []string{"paths", path, "post", "responses", "200", "schema"})
		if err != nil {
			return pkgopenapi.Endpoint{}, err
		}
	}
	endpoint.Output = output
	return endpoint, nil
}

func resolveSwaggerParameter(swagger swaggerDocument, param swaggerParameter) (swaggerParameter, error) {
	if param.Ref == "" {
		return param, nil
	}
	name := strings.TrimPrefix(param.Ref, "#/parameters/")
	if name == param.Ref {
		return swaggerParameter{}, fmt.Errorf("unsupported parameter reference %q", param.Ref)
	}
	resolved, ok := swagger.Parameters[name]
	if !ok {
		return swaggerParameter{}, fmt.Errorf("parameter reference %q not found", param.Ref)
	}
	return resolved, nil
}

func swaggerParameterSpec(param swaggerParameter) (model.ParameterSpec, error) {
	declared := param.Type
	if param.In == "body" && len(param.Schema) > 0 {
		var node schemaNode
		if err := json.Unmarshal(param.Schema, &node); err != nil {
			return model.ParameterSpec{}, fmt.Errorf("decode body schema for %q: %w", param.Name, err)
		}
		declared = node.declaredType()
		if node.Ref != "" {
			declared = string(model.KindObject)
		}
	}

	spec := model.ParameterSpec{
		Name:        param.Name,
		Kind:        model.ParseKind(declared),
		Required:    param.Required,
		Default:     param.Default,
		EnumValues:  enumStrings(param.Enum),
		Minimum:     param.Minimum,
		Maximum:     param.Maximum,
		Format:      param.Format,
		Description: param.Description,
	}
	if spec.Kind == model.KindOpaque && spec.HasEnum() {
		spec.Kind = model.KindEnum
	}
	return spec, nil
}

func enumStrings(values []any) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, fmt.Sprint(value))
	}
	return out
}
