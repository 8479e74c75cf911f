package parser

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-inferform/pkg/model"
	pkgopenapi "github.com/goliatone/go-inferform/pkg/openapi"
)

// formContentTypes lists the request body encodings whose properties become
// form parameters, in preference order.
var formContentTypes = []string{"multipart/form-data", "application/x-www-form-urlencoded"}

func (p *Parser) parseOpenAPI3(ctx context.Context, doc []byte) (pkgopenapi.Spec, error) {
	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: false,
	}
	spec, err := loader.LoadFromData(doc)
	if err != nil {
		return pkgopenapi.Spec{}, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if p.options.Validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return pkgopenapi.Spec{}, fmt.Errorf("openapi parser: validate: %w", err)
		}
	}

	result := pkgopenapi.Spec{Dialect: pkgopenapi.DialectOpenAPI3}
	if spec.Info != nil {
		result.Title = spec.Info.Title
		result.Version = spec.Info.Version
	}
	if spec.Paths == nil {
		return result, nil
	}

	items := spec.Paths.Map()
	for _, path := range orderedPaths(doc, items) {
		item := items[path]
		if item == nil || item.Post == nil {
			continue
		}
		endpoint, err := p.openAPI3Endpoint(doc, path, item)
		if err != nil {
			return pkgopenapi.Spec{}, err
		}
		result.Endpoints = append(result.Endpoints, endpoint)
	}
	return result, nil
}

func (p *Parser) openAPI3Endpoint(doc []byte, path string, item *openapi3.PathItem) (pkgopenapi.Endpoint, error) {
	op := item.Post
	endpoint := pkgopenapi.Endpoint{
		Path:        path,
		Method:      http.MethodPost,
		Summary:     op.Summary,
		Description: op.Description,
	}

	declared := append(append(openapi3.Parameters(nil), item.Parameters...), op.Parameters...)
	for _, ref := range declared {
		if ref == nil || ref.Value == nil || ref.Value.In != openapi3.ParameterInQuery {
			continue
		}
		endpoint.Parameters = append(endpoint.Parameters, openAPI3Parameter(ref.Value))
	}
	endpoint.Parameters = append(endpoint.Parameters, formParameters(doc, path, op.RequestBody)...)

	basePath := []string{"paths", path, "post", "responses", "200"}
	if responses := op.Responses; responses != nil {
		if ok := responses.Map()["200"]; ok != nil && ok.Value != nil {
			endpoint.Produces = orderedContentTypes(doc, appendPath(basePath, "content"), ok.Value.Content)
		}
	}

	output, found, err := outputSchemaAt(doc, []string{"components", "schemas", p.options.OutputDefinition})
	if err != nil {
		return pkgopenapi.Endpoint{}, err
	}
	if !found {
		output, _, err = outputSchemaAt(doc, appendPath(basePath, "content", "application/json", "schema"))
		if err != nil {
			return pkgopenapi.Endpoint{}, err
		}
	}
	endpoint.Output = output
	return endpoint, nil
}

func openAPI3Parameter(param *openapi3.Parameter) model.ParameterSpec {
	spec := model.ParameterSpec{
		Name:        param.Name,
		Required:    param.Required,
		Description: param.Description,
	}
	if param.Schema != nil && param.Schema.Value != nil {
		applySchema(&spec, param.Schema.Value)
	}
	return spec
}

func formParameters(doc []byte, path string, body *openapi3.RequestBodyRef) []model.ParameterSpec {
	if body == nil || body.Value == nil {
		return nil
	}
	for _, contentType := range formContentTypes {
		media := body.Value.Content.Get(contentType)
		if media == nil || media.Schema == nil || media.Schema.Value == nil {
			continue
		}
		schema := media.Schema.Value
		required := make(map[string]bool, len(schema.Required))
		for _, name := range schema.Required {
			required[name] = true
		}

		schemaPath := []string{"paths", path, "post", "requestBody", "content", contentType, "schema"}
		if _, resolved, err := resolveNode(doc, schemaPath); err == nil {
			schemaPath = resolved
		}
		names := mergeOrder(orderedKeys(doc, appendPath(schemaPath, "properties")...), schema.Properties)

		params := make([]model.ParameterSpec, 0, len(names))
		for _, name := range names {
			ref := schema.Properties[name]
			spec := model.ParameterSpec{Name: name, Required: required[name]}
			if ref != nil && ref.Value != nil {
				applySchema(&spec, ref.Value)
			}
			params = append(params, spec)
		}
		return params
	}
	return nil
}

func applySchema(spec *model.ParameterSpec, schema *openapi3.Schema) {
	declared := firstSchemaType(schema.Type)
	spec.Kind = model.ParseKind(declared)
	if spec.Kind == model.KindString && (schema.Format == "binary" || schema.Format == "base64") {
		spec.Kind = model.KindFile
	}
	if spec.Description == "" {
		spec.Description = schema.Description
	}
	spec.Format = schema.Format
	spec.Default = schema.Default
	spec.EnumValues = enumStrings(schema.Enum)
	if schema.Min != nil {
		value := *schema.Min
		spec.Minimum = &value
	}
	if schema.Max != nil {
		value := *schema.Max
		spec.Maximum = &value
	}
	if spec.Kind == model.KindOpaque && spec.HasEnum() {
		spec.Kind = model.KindEnum
	}
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	for _, value := range types.Slice() {
		if value != "null" {
			return value
		}
	}
	return ""
}

// orderedPaths lists the document's paths in source order.
func orderedPaths(doc []byte, items map[string]*openapi3.PathItem) []string {
	return mergeOrder(orderedKeys(doc, "paths"), items)
}

// orderedContentTypes keeps document order when available and otherwise puts
// application/json first followed by the remaining types sorted.
func orderedContentTypes(doc []byte, path []string, content openapi3.Content) []string {
	if keys := orderedKeys(doc, path...); len(keys) > 0 {
		return mergeOrder(keys, content)
	}
	names := make([]string, 0, len(content))
	for name := range content {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ji, jj := strings.HasPrefix(names[i], "application/json"), strings.HasPrefix(names[j], "application/json")
		if ji != jj {
			return ji
		}
		return names[i] < names[j]
	})
	return names
}

// mergeOrder returns the keys of items, in the order given by preferred first
// and sorted for anything preferred does not mention.
func mergeOrder[V any](preferred []string, items map[string]V) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, key := range preferred {
		if _, ok := items[key]; ok && !seen[key] {
			out = append(out, key)
			seen[key] = true
		}
	}
	var rest []string
	for key := range items {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
