package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/goliatone/go-inferform/pkg/client"
	"github.com/goliatone/go-inferform/pkg/marshal"
	"github.com/goliatone/go-inferform/pkg/model"
	pkgopenapi "github.com/goliatone/go-inferform/pkg/openapi"
)

// Session is a prepared endpoint. Its widgets and marshaller are immutable;
// at most one Call runs at a time.
type Session struct {
	dialect    pkgopenapi.Dialect
	endpoint   pkgopenapi.Endpoint
	marshaller *marshal.Marshaller
	transport  Transport
	metadata   client.Metadata
	warnings   []model.Warning
	logger     *log.Logger
	inFlight   atomic.Bool
}

// Dialect reports the schema dialect.
func (s *Session) Dialect() pkgopenapi.Dialect { return s.dialect }

// Endpoint returns the selected prediction endpoint.
func (s *Session) Endpoint() pkgopenapi.Endpoint { return s.endpoint }

// Parameters returns the endpoint parameters in schema order.
func (s *Session) Parameters() []model.ParameterSpec {
	return append([]model.ParameterSpec(nil), s.endpoint.Parameters...)
}

// Inputs returns the input widgets, info widgets included.
func (s *Session) Inputs() []model.WidgetDescriptor { return s.marshaller.Inputs() }

// Outputs returns the output widgets.
func (s *Session) Outputs() []model.WidgetDescriptor { return s.marshaller.Outputs() }

// MIME returns the negotiated response content type.
func (s *Session) MIME() string { return s.marshaller.MIME() }

// SchemaPresent reports whether JSON responses follow a declared schema.
func (s *Session) SchemaPresent() bool { return s.marshaller.SchemaPresent() }

// Metadata returns the model metadata, zero when unavailable.
func (s *Session) Metadata() client.Metadata { return s.metadata }

// Warnings returns the translation warnings raised while preparing.
func (s *Session) Warnings() []model.Warning {
	return append([]model.Warning(nil), s.warnings...)
}

// Call marshals values, executes the prediction and parses the response.
// The returned Result owns transient files the caller must release. A Call
// overlapping another one fails with model.ErrCallInFlight.
func (s *Session) Call(ctx context.Context, values []any) (marshal.Result, error) {
	if s.transport == nil {
		return marshal.Result{}, errors.New("orchestrator: session has no transport")
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return marshal.Result{}, model.ErrCallInFlight
	}
	defer s.inFlight.Store(false)

	callID := uuid.NewString()
	logger := s.logger.With("call", callID, "path", s.endpoint.Path)

	req, err := s.marshaller.BuildRequest(values)
	if err != nil {
		logger.Error("build request", "err", err)
		return marshal.Result{}, err
	}

	started := time.Now()
	resp, err := s.transport.Predict(ctx, s.endpoint.Path, req)
	if err != nil {
		logger.Error("prediction transport", "err", err)
		return marshal.Result{}, fmt.Errorf("orchestrator: call %s: %w", s.endpoint.Path, err)
	}

	result, err := s.marshaller.ParseResponse(resp.Body, resp.Status)
	if err != nil {
		logger.Error("prediction failed", "status", resp.Status, "err", err)
		return marshal.Result{}, err
	}
	logger.Info("prediction done",
		"status", resp.Status,
		"files", len(result.Files),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return result, nil
}
