// Package inferform turns the schema of a DEEPaaS style inference service
// into widget descriptors and marshals calls between those widgets and the
// service.
//
// The quickest route from a schema to a callable session:
//
//	session, err := inferform.Prepare(ctx, "http://0.0.0.0:5000/", "swagger.json")
//	if err != nil { ... }
//	result, err := session.Call(ctx, values)
//	defer result.Release()
package inferform

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	internalLoader "github.com/goliatone/go-inferform/internal/openapi/loader"
	internalParser "github.com/goliatone/go-inferform/internal/openapi/parser"
	"github.com/goliatone/go-inferform/pkg/client"
	pkgopenapi "github.com/goliatone/go-inferform/pkg/openapi"
	"github.com/goliatone/go-inferform/pkg/orchestrator"
	"github.com/goliatone/go-inferform/pkg/renderers/web"
)

// Session aliases the prepared endpoint returned by Prepare.
type Session = orchestrator.Session

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options ...pkgopenapi.LoaderOption) pkgopenapi.Loader {
	return internalLoader.New(pkgopenapi.NewLoaderOptions(options...))
}

// NewParser constructs a parser backed by the internal implementation.
func NewParser(options ...pkgopenapi.ParserOption) pkgopenapi.Parser {
	return internalParser.New(pkgopenapi.NewParserOptions(options...))
}

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Prepare fetches the schema at schemaPath (relative to apiURL unless it is an
// absolute URL) and prepares the default prediction endpoint with an HTTP
// transport. Extra options are applied after the defaults.
func Prepare(ctx context.Context, apiURL, schemaPath string, options ...orchestrator.Option) (*Session, error) {
	transport, err := client.New(apiURL)
	if err != nil {
		return nil, fmt.Errorf("inferform: %w", err)
	}
	location := schemaPath
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		location = transport.Resolve(schemaPath)
	}
	src, err := pkgopenapi.ParseURLSource(location)
	if err != nil {
		return nil, fmt.Errorf("inferform: %w", err)
	}

	base := []orchestrator.Option{
		orchestrator.WithLoader(NewLoader(pkgopenapi.WithHTTPFallback(0))),
		orchestrator.WithTransport(transport),
	}
	gen := orchestrator.New(append(base, options...)...)
	return gen.Prepare(ctx, orchestrator.Request{Source: src})
}

// PrepareDocument prepares the default prediction endpoint of an already
// loaded schema document.
func PrepareDocument(ctx context.Context, doc pkgopenapi.Document, options ...orchestrator.Option) (*Session, error) {
	gen := orchestrator.New(options...)
	return gen.Prepare(ctx, orchestrator.Request{Document: &doc})
}

// EmbeddedTemplates exposes the built-in web form templates so callers can
// copy or extend them and pass the result to web.WithTemplates.
func EmbeddedTemplates() fs.FS {
	return web.TemplatesFS()
}
