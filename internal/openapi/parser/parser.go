package parser

import (
	"context"
	"fmt"

	pkgopenapi "github.com/goliatone/go-inferform/pkg/openapi"
)

// Parser implements pkgopenapi.Parser for Swagger 2.0 and OpenAPI 3 documents.
// OpenAPI 3 documents go through kin-openapi; Swagger 2.0 documents are decoded
// directly because key order of definitions must survive.
type Parser struct {
	options pkgopenapi.ParserOptions
}

var _ pkgopenapi.Parser = (*Parser)(nil)

// New constructs a Parser with the given options.
func New(options pkgopenapi.ParserOptions) *Parser {
	if options.OutputDefinition == "" {
		options.OutputDefinition = pkgopenapi.DefaultOutputDefinition
	}
	return &Parser{options: options}
}

// Parse detects the document dialect and extracts every POST endpoint in
// document order.
func (p *Parser) Parse(ctx context.Context, doc pkgopenapi.Document) (pkgopenapi.Spec, error) {
	if err := ctx.Err(); err != nil {
		return pkgopenapi.Spec{}, err
	}
	normalized, err := normalizeJSON(doc.Raw())
	if err != nil {
		return pkgopenapi.Spec{}, err
	}

	family, _, err := detectDialect(normalized)
	if err != nil {
		return pkgopenapi.Spec{}, err
	}

	var spec pkgopenapi.Spec
	switch family {
	case "swagger":
		spec, err = p.parseSwagger2(normalized)
	case "openapi":
		spec, err = p.parseOpenAPI3(ctx, normalized)
	default:
		err = fmt.Errorf("openapi parser: unsupported dialect %q", family)
	}
	if err != nil {
		return pkgopenapi.Spec{}, err
	}
	return spec, nil
}
