package marshal

import (
	"errors"
	"fmt"
	"os"

	"github.com/goliatone/go-inferform/pkg/media"
	"github.com/goliatone/go-inferform/pkg/model"
)

// Config describes the schema-derived state a Marshaller needs.
type Config struct {
	// Params is the ordered parameter list of the endpoint. The reserved
	// accept parameter is ignored.
	Params []model.ParameterSpec
	// Inputs is the widget sequence produced for Params, including the
	// auxiliary info widgets.
	Inputs []model.WidgetDescriptor
	// Outputs is the output widget sequence.
	Outputs []model.WidgetDescriptor
	// MIME is the negotiated response content type.
	MIME string
	// SchemaPresent selects structured response parsing for JSON.
	SchemaPresent bool
}

// Option customises a Marshaller.
type Option func(*Marshaller)

// WithCodec sets the codec used to persist response media.
func WithCodec(codec *media.Codec) Option {
	return func(m *Marshaller) {
		if codec != nil {
			m.codec = codec
		}
	}
}

// WithFileReader replaces how file parameter paths are read.
func WithFileReader(read func(path string) ([]byte, error)) Option {
	return func(m *Marshaller) {
		if read != nil {
			m.readFile = read
		}
	}
}

// Marshaller adapts widget values to the wire format of one endpoint.
type Marshaller struct {
	params        []model.ParameterSpec
	inputs        []model.WidgetDescriptor
	outputs       []model.WidgetDescriptor
	mime          string
	schemaPresent bool
	codec         *media.Codec
	readFile      func(string) ([]byte, error)
}

// New validates cfg and constructs a Marshaller. Every non-auxiliary input
// widget must line up with a non-reserved parameter.
func New(cfg Config, options ...Option) (*Marshaller, error) {
	if cfg.MIME == "" {
		return nil, errors.New("marshal: content type is required")
	}
	params := make([]model.ParameterSpec, 0, len(cfg.Params))
	for _, spec := range cfg.Params {
		if spec.Name == model.ReservedParameter {
			continue
		}
		params = append(params, spec)
	}

	idx := 0
	for pos, widget := range cfg.Inputs {
		if widget.Auxiliary {
			continue
		}
		if idx >= len(params) {
			return nil, fmt.Errorf("marshal: input widget %d (%s) has no parameter", pos, widget.Name)
		}
		if params[idx].Name != widget.Name {
			return nil, fmt.Errorf("marshal: input widget %d is %q, expected parameter %q", pos, widget.Name, params[idx].Name)
		}
		idx++
	}
	if idx != len(params) {
		return nil, fmt.Errorf("marshal: %d parameters but %d input widgets", len(params), idx)
	}

	m := &Marshaller{
		params:        params,
		inputs:        append([]model.WidgetDescriptor(nil), cfg.Inputs...),
		outputs:       append([]model.WidgetDescriptor(nil), cfg.Outputs...),
		mime:          cfg.MIME,
		schemaPresent: cfg.SchemaPresent,
		codec:         media.NewCodec(),
		readFile:      os.ReadFile,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	return m, nil
}

// MIME returns the negotiated response content type.
func (m *Marshaller) MIME() string {
	return m.mime
}

// SchemaPresent reports whether JSON responses are parsed against the output
// widgets.
func (m *Marshaller) SchemaPresent() bool {
	return m.schemaPresent
}

// Inputs returns a copy of the input widget sequence.
func (m *Marshaller) Inputs() []model.WidgetDescriptor {
	return append([]model.WidgetDescriptor(nil), m.inputs...)
}

// Outputs returns a copy of the output widget sequence.
func (m *Marshaller) Outputs() []model.WidgetDescriptor {
	return append([]model.WidgetDescriptor(nil), m.outputs...)
}
