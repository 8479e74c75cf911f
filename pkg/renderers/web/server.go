package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/flosch/pongo2/v6"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-inferform/pkg/client"
	"github.com/goliatone/go-inferform/pkg/marshal"
	"github.com/goliatone/go-inferform/pkg/media"
	"github.com/goliatone/go-inferform/pkg/model"
)

//go:embed templates/*.html
var templateFS embed.FS

const formTemplate = "form.html"

// TemplatesFS returns the built-in templates rooted so that form.html sits at
// the top level.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return templateFS
	}
	return sub
}

// Session is the prepared endpoint served by the form.
// *orchestrator.Session satisfies it.
type Session interface {
	Inputs() []model.WidgetDescriptor
	Outputs() []model.WidgetDescriptor
	Metadata() client.Metadata
	Call(ctx context.Context, values []any) (marshal.Result, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger routes request diagnostics to logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCodec sets the codec used to persist uploads before a call.
func WithCodec(codec *media.Codec) Option {
	return func(s *Server) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// WithMaxArtifacts bounds how many call outputs stay addressable. Zero keeps
// every artifact until it is deleted or the server shuts down.
func WithMaxArtifacts(n int) Option {
	return func(s *Server) {
		if n >= 0 {
			s.maxArtifacts = n
		}
	}
}

// WithBodyLimit caps request bodies, e.g. "32M".
func WithBodyLimit(limit string) Option {
	return func(s *Server) {
		s.bodyLimit = strings.TrimSpace(limit)
	}
}

// WithTemplates replaces the built-in templates. fsys must contain form.html
// at its root.
func WithTemplates(fsys fs.FS) Option {
	return func(s *Server) {
		if fsys != nil {
			s.templates = fsys
		}
	}
}

// WithVersion is reported by the health endpoint.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// Server renders the session form and executes calls submitted through it.
type Server struct {
	session      Session
	echo         *echo.Echo
	templates    fs.FS
	template     *pongo2.Template
	sanitizer    *bluemonday.Policy
	artifacts    *artifactStore
	codec        *media.Codec
	logger       *log.Logger
	maxArtifacts int
	bodyLimit    string
	version      string
}

// New builds the server and its routes.
func New(session Session, options ...Option) (*Server, error) {
	if session == nil {
		return nil, errors.New("web: session is required")
	}
	s := &Server{
		session:      session,
		templates:    TemplatesFS(),
		sanitizer:    bluemonday.UGCPolicy(),
		codec:        media.NewCodec(),
		logger:       log.New(io.Discard),
		maxArtifacts: 64,
		bodyLimit:    "32M",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}

	set := pongo2.NewSet("inferform", pongo2.NewFSLoader(s.templates))
	tmpl, err := set.FromFile(formTemplate)
	if err != nil {
		return nil, fmt.Errorf("web: load template: %w", err)
	}
	s.template = tmpl
	s.artifacts = newArtifactStore(s.maxArtifacts)
	s.echo = s.routes()
	return s, nil
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if s.bodyLimit != "" {
		e.Use(middleware.BodyLimit(s.bodyLimit))
	}
	e.Use(s.requestLogger)

	e.GET("/", s.handleForm)
	e.POST("/predict", s.handlePredict)
	e.GET("/artifacts/:id", s.handleArtifact)
	e.DELETE("/artifacts/:id", s.handleReleaseArtifact)
	e.GET("/healthz", s.handleHealth)
	return e
}

// Handler exposes the routes, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("serving form", "addr", addr)
	s.echo.Server.ReadHeaderTimeout = 10 * time.Second
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server and releases every retained artifact.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.echo.Shutdown(ctx)
	if releaseErr := s.artifacts.releaseAll(); releaseErr != nil && err == nil {
		err = releaseErr
	}
	return err
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		started := time.Now()
		err := next(c)
		s.logger.Debug("request",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"status", c.Response().Status,
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"elapsed", time.Since(started).Round(time.Millisecond),
		)
		return err
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "healthy",
		"version":   s.version,
		"artifacts": s.artifacts.len(),
	})
}

func (s *Server) handleForm(c echo.Context) error {
	return s.render(c, http.StatusOK, nil, "")
}

func (s *Server) handlePredict(c echo.Context) error {
	inputs := s.session.Inputs()
	values, uploads, err := s.formValues(c, inputs)
	defer func() {
		if releaseErr := media.ReleaseAll(uploads...); releaseErr != nil {
			s.logger.Warn("release uploads", "err", releaseErr)
		}
	}()
	if err != nil {
		return s.render(c, http.StatusBadRequest, nil, err.Error())
	}

	result, err := s.session.Call(c.Request().Context(), values)
	if err != nil {
		status := http.StatusBadGateway
		var valueErr *model.ValueError
		switch {
		case errors.Is(err, model.ErrCallInFlight):
			status = http.StatusConflict
		case errors.As(err, &valueErr):
			status = http.StatusBadRequest
		}
		return s.render(c, status, nil, err.Error())
	}

	views, err := s.resultViews(result)
	if err != nil {
		_ = result.Release()
		return s.render(c, http.StatusInternalServerError, nil, err.Error())
	}
	return s.render(c, http.StatusOK, views, "")
}

func (s *Server) handleArtifact(c echo.Context) error {
	file, ok := s.artifacts.get(c.Param("id"))
	if !ok || file.Released() {
		return echo.NewHTTPError(http.StatusNotFound, "artifact not found")
	}
	return c.File(file.Path())
}

func (s *Server) handleReleaseArtifact(c echo.Context) error {
	found, err := s.artifacts.release(c.Param("id"))
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "artifact not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) render(c echo.Context, status int, results []resultView, message string) error {
	meta := s.session.Metadata()
	title := meta.Title()
	if title == "" {
		title = "Inference"
	}
	ctx := pongo2.Context{
		"title":   title,
		"summary": s.sanitizer.Sanitize(meta.Summary),
		"fields":  s.fieldViews(s.session.Inputs()),
		"results": results,
		"error":   message,
		"footer":  s.footer(meta),
	}
	page, err := s.template.Execute(ctx)
	if err != nil {
		return fmt.Errorf("web: render form: %w", err)
	}
	return c.HTML(status, page)
}

// footer lists author, license and description of the model.
func (s *Server) footer(meta client.Metadata) string {
	var parts []string
	if authors := meta.Author.String(); authors != "" {
		parts = append(parts, "<p><b>Author(s)</b>: "+s.sanitizer.Sanitize(authors)+"</p>")
	}
	if meta.License != "" {
		parts = append(parts, "<p><b>License</b>: "+s.sanitizer.Sanitize(meta.License)+"</p>")
	}
	if meta.Description != "" {
		parts = append(parts, "<p><b>Description</b>: "+s.sanitizer.Sanitize(meta.Description)+"</p>")
	}
	return strings.Join(parts, "\n")
}
