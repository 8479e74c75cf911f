package openapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-inferform/pkg/model"
)

// Source identifies where a schema document originated so loaders can operate
// on files, fs.FS entries, or URLs without leaking implementation details.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Document wraps the raw schema payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument constructs a Document wrapper while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("openapi: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("openapi: raw document is empty")
	}

	clone := append([]byte(nil), raw...)
	return Document{source: src, raw: clone}, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a defensive copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Dialect names the schema flavour a document is written in.
type Dialect string

const (
	DialectSwagger2 Dialect = "swagger2"
	DialectOpenAPI3 Dialect = "openapi3"
)

// Endpoint is the prediction operation selected from the schema: its ordered
// parameters, the content types it produces and, optionally, the structured
// output schema.
type Endpoint struct {
	Path        string
	Method      string
	Summary     string
	Description string
	Parameters  []model.ParameterSpec
	Produces    []string
	// Output is nil when the schema declares no structured response.
	Output model.OutputSchema
}

// HasOutputSchema reports whether a structured output schema was found.
func (e Endpoint) HasOutputSchema() bool {
	return len(e.Output) > 0
}

// MIME returns the produced content type at the given index.
func (e Endpoint) MIME(index int) (string, error) {
	if len(e.Produces) == 0 {
		return "", fmt.Errorf("openapi: endpoint %s produces no content types", e.Path)
	}
	if index < 0 || index >= len(e.Produces) {
		return "", fmt.Errorf("openapi: endpoint %s has no content type at index %d (have %d)", e.Path, index, len(e.Produces))
	}
	return e.Produces[index], nil
}

// Parent returns the endpoint path with its last segment removed, the location
// of the model metadata document.
func (e Endpoint) Parent() string {
	trimmed := strings.TrimSuffix(e.Path, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx <= 0 {
		return "/"
	}
	return trimmed[:idx+1]
}

// Spec is the parsed schema: its dialect and every POST endpoint in path
// order.
type Spec struct {
	Dialect   Dialect
	Title     string
	Version   string
	Endpoints []Endpoint
}

// Endpoint selects the first endpoint whose path ends with suffix.
func (s Spec) Endpoint(suffix string) (Endpoint, error) {
	for _, endpoint := range s.Endpoints {
		if strings.HasSuffix(endpoint.Path, suffix) {
			return endpoint, nil
		}
	}
	return Endpoint{}, fmt.Errorf("%w: no path ends with %q", model.ErrEndpointNotFound, suffix)
}
