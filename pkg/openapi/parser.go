package openapi

import "context"

// Parser turns a schema document into its prediction endpoints.
type Parser interface {
	Parse(ctx context.Context, doc Document) (Spec, error)
}

// Default names of the well-known output schema definition.
const DefaultOutputDefinition = "ModelPredictionResponse"

// ParserOptions exposes parsing toggles.
type ParserOptions struct {
	// OutputDefinition names the definition holding the structured response.
	OutputDefinition string

	// Validate runs kin-openapi validation on OpenAPI 3 documents.
	Validate bool
}

// ParserOption mutates ParserOptions during construction.
type ParserOption func(*ParserOptions)

// WithOutputDefinition overrides the output schema definition name.
func WithOutputDefinition(name string) ParserOption {
	return func(opts *ParserOptions) {
		if name != "" {
			opts.OutputDefinition = name
		}
	}
}

// WithValidation toggles document validation.
func WithValidation(enabled bool) ParserOption {
	return func(opts *ParserOptions) {
		opts.Validate = enabled
	}
}

// NewParserOptions applies ParserOption functions and returns the resulting
// configuration.
func NewParserOptions(options ...ParserOption) ParserOptions {
	cfg := ParserOptions{
		OutputDefinition: DefaultOutputDefinition,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return cfg
}

// Construction helpers live in the top-level inferform package to avoid import cycles.
