package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	internalLoader "github.com/goliatone/go-inferform/internal/openapi/loader"
	internalParser "github.com/goliatone/go-inferform/internal/openapi/parser"
	"github.com/goliatone/go-inferform/pkg/client"
	"github.com/goliatone/go-inferform/pkg/marshal"
	"github.com/goliatone/go-inferform/pkg/media"
	"github.com/goliatone/go-inferform/pkg/model"
	pkgopenapi "github.com/goliatone/go-inferform/pkg/openapi"
	"github.com/goliatone/go-inferform/pkg/widgets"
)

// DefaultEndpointSuffix selects the prediction endpoint of a DEEPaaS style
// service.
const DefaultEndpointSuffix = "predict/"

// Transport executes calls against the inference service. *client.Client
// satisfies it.
type Transport interface {
	Predict(ctx context.Context, path string, req marshal.Request) (client.Response, error)
	Metadata(ctx context.Context, path string) (client.Metadata, error)
}

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom schema loader.
func WithLoader(loader pkgopenapi.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithParser injects a custom schema parser.
func WithParser(parser pkgopenapi.Parser) Option {
	return func(o *Orchestrator) {
		o.parser = parser
	}
}

// WithPolicyRegistry injects the dialect policy registry.
func WithPolicyRegistry(registry *widgets.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithPolicyOptions forwards options to every policy the orchestrator builds.
func WithPolicyOptions(options ...widgets.PolicyOption) Option {
	return func(o *Orchestrator) {
		o.policyOptions = append(o.policyOptions, options...)
	}
}

// WithTransport sets the transport used by sessions. Without one, sessions
// can be inspected but not called.
func WithTransport(transport Transport) Option {
	return func(o *Orchestrator) {
		o.transport = transport
	}
}

// WithCodec sets the codec used to persist response media.
func WithCodec(codec *media.Codec) Option {
	return func(o *Orchestrator) {
		o.codec = codec
	}
}

// WithLogger routes pipeline diagnostics and translation warnings to logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTransformer registers a Transformer that patches the selected endpoint
// before widgets are derived from it.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// Orchestrator coordinates schema loading, translation and call marshalling.
// It applies the built-in loader, parser and policy registry unless callers
// inject their own.
type Orchestrator struct {
	loader        pkgopenapi.Loader
	parser        pkgopenapi.Parser
	registry      *widgets.Registry
	policyOptions []widgets.PolicyOption
	transport     Transport
	codec         *media.Codec
	logger        *log.Logger
	transformer   Transformer
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes which schema and endpoint to prepare.
type Request struct {
	// Source identifies where the schema document lives. Optional when
	// Document is supplied.
	Source pkgopenapi.Source

	// Document allows callers to bypass the loader.
	Document *pkgopenapi.Document

	// EndpointSuffix selects the first POST path ending with it. Defaults to
	// DefaultEndpointSuffix.
	EndpointSuffix string

	// MIME overrides the negotiated content type. It must be one the
	// endpoint produces. Empty selects the one at MIMEIndex.
	MIME string

	// MIMEIndex picks a produced content type by position. Zero selects the
	// first one.
	MIMEIndex int

	// SkipMetadata disables the metadata lookup.
	SkipMetadata bool
}

// Prepare loads and translates the schema into a Session. Any translation
// error aborts preparation; no partial session is returned.
func (o *Orchestrator) Prepare(ctx context.Context, req Request) (*Session, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := o.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	spec, err := o.parser.Parse(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: parse schema: %w", err)
	}

	suffix := req.EndpointSuffix
	if suffix == "" {
		suffix = DefaultEndpointSuffix
	}
	endpoint, err := spec.Endpoint(suffix)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	if err := o.applyTransformer(ctx, &endpoint); err != nil {
		return nil, err
	}

	mime, err := selectMIME(endpoint, req.MIME, req.MIMEIndex)
	if err != nil {
		return nil, err
	}

	var warnings []model.Warning
	options := append([]widgets.PolicyOption{}, o.policyOptions...)
	options = append(options, widgets.WithWarningFunc(func(w model.Warning) {
		warnings = append(warnings, w)
		o.logger.Warn(w.Message, "warning", string(w.Kind), "name", w.Name)
	}))
	policy, err := o.registry.Policy(spec.Dialect, options...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	inputs, err := policy.MapInputs(endpoint.Parameters)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: map inputs: %w", err)
	}
	outputs, schemaPresent, err := policy.ResponseWidgets(mime, endpoint.Output)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: map outputs: %w", err)
	}

	marshaller, err := marshal.New(marshal.Config{
		Params:        endpoint.Parameters,
		Inputs:        inputs,
		Outputs:       outputs,
		MIME:          mime,
		SchemaPresent: schemaPresent,
	}, marshal.WithCodec(o.codec))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	session := &Session{
		dialect:    spec.Dialect,
		endpoint:   endpoint,
		marshaller: marshaller,
		transport:  o.transport,
		warnings:   warnings,
		logger:     o.logger,
	}
	if o.transport != nil && !req.SkipMetadata {
		meta, err := o.transport.Metadata(ctx, endpoint.Parent())
		if err != nil {
			o.logger.Warn("metadata unavailable", "path", endpoint.Parent(), "err", err)
		} else {
			session.metadata = meta
		}
	}

	o.logger.Info("endpoint prepared",
		"dialect", string(spec.Dialect),
		"path", endpoint.Path,
		"mime", mime,
		"inputs", len(inputs),
		"outputs", len(outputs),
		"schema", schemaPresent,
	)
	return session, nil
}

func selectMIME(endpoint pkgopenapi.Endpoint, requested string, index int) (string, error) {
	if requested == "" {
		mime, err := endpoint.MIME(index)
		if err != nil {
			return "", fmt.Errorf("orchestrator: %w", err)
		}
		return mime, nil
	}
	for _, produced := range endpoint.Produces {
		if produced == requested {
			return requested, nil
		}
	}
	return "", fmt.Errorf("orchestrator: endpoint %s does not produce %q", endpoint.Path, requested)
}

func (o *Orchestrator) resolveDocument(ctx context.Context, req Request) (pkgopenapi.Document, error) {
	if req.Document != nil {
		return *req.Document, nil
	}
	if req.Source == nil {
		return pkgopenapi.Document{}, errors.New("orchestrator: source or document is required")
	}
	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return pkgopenapi.Document{}, fmt.Errorf("orchestrator: load document: %w", err)
	}
	return doc, nil
}

func (o *Orchestrator) applyTransformer(ctx context.Context, endpoint *pkgopenapi.Endpoint) error {
	if o.transformer == nil || endpoint == nil {
		return nil
	}
	if err := o.transformer.Transform(ctx, endpoint); err != nil {
		return fmt.Errorf("orchestrator: transform endpoint: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyDefaults() {
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	if o.loader == nil {
		o.loader = internalLoader.New(pkgopenapi.NewLoaderOptions(pkgopenapi.WithLoaderLogger(o.logger)))
	}
	if o.parser == nil {
		o.parser = internalParser.New(pkgopenapi.NewParserOptions())
	}
	if o.registry == nil {
		o.registry = widgets.NewRegistry()
	}
	if o.codec == nil {
		o.codec = media.NewCodec(media.WithLogger(o.logger))
	}
}
