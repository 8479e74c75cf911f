package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/goliatone/go-inferform/pkg/client"
	"github.com/goliatone/go-inferform/pkg/marshal"
	"github.com/goliatone/go-inferform/pkg/model"
)

// Session is the prepared endpoint the renderer drives.
// *orchestrator.Session satisfies it.
type Session interface {
	Inputs() []model.WidgetDescriptor
	Outputs() []model.WidgetDescriptor
	Metadata() client.Metadata
	Call(ctx context.Context, values []any) (marshal.Result, error)
}

// Renderer collects widget values through terminal prompts and prints the
// call results.
type Renderer struct {
	driver PromptDriver
	out    io.Writer
	repeat bool
	theme  Theme
}

// New constructs a TUI renderer with defaults (survey driver, stdout).
func New(options ...Option) *Renderer {
	r := &Renderer{out: os.Stdout}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.out)
	}
	return r
}

// Run prompts for inputs, executes the call and prints the outputs. With
// repeat enabled it loops until the user declines another call. Remote
// failures are printed and do not end the loop.
func (r *Renderer) Run(ctx context.Context, session Session) error {
	if ctx == nil {
		return errors.New("tui: context is required")
	}
	if session == nil {
		return errors.New("tui: session is required")
	}
	r.printHeader(session.Metadata())

	for {
		values, err := r.Collect(ctx, session.Inputs())
		if err != nil {
			return err
		}
		result, err := session.Call(ctx, values)
		if err != nil {
			r.printf("%s%v\n", r.theme.ErrorPrefix, err)
		} else {
			r.Present(session.Outputs(), result)
			if err := r.offerRelease(ctx, result); err != nil {
				return err
			}
		}

		if !r.repeat {
			return nil
		}
		again, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Run another prediction?", Default: true})
		if err != nil {
			return err
		}
		if !again {
			return nil
		}
	}
}

// Collect prompts for one value per input widget. Info widgets are printed
// and yield nil.
func (r *Renderer) Collect(ctx context.Context, inputs []model.WidgetDescriptor) ([]any, error) {
	values := make([]any, 0, len(inputs))
	for _, widget := range inputs {
		value, err := r.prompt(ctx, widget)
		if err != nil {
			return nil, fmt.Errorf("tui: %s: %w", widget.Name, err)
		}
		values = append(values, value)
	}
	return values, nil
}

func (r *Renderer) prompt(ctx context.Context, widget model.WidgetDescriptor) (any, error) {
	cfg := widget.Config
	message := widget.Label()

	switch widget.Kind {
	case model.WidgetHTML:
		if strings.TrimSpace(cfg.InfoText) != "" {
			if err := r.driver.Info(ctx, r.theme.InfoPrefix+cfg.InfoText); err != nil {
				return nil, err
			}
		}
		return nil, nil
	case model.WidgetDropdown:
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      cfg.Choices,
			DefaultIndex: slices.Index(cfg.Choices, textOf(cfg.Value)),
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(cfg.Choices) {
			return nil, nil
		}
		return cfg.Choices[idx], nil
	case model.WidgetCheckbox:
		def, _ := cfg.Value.(bool)
		return r.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def})
	case model.WidgetPassword:
		return r.driver.Password(ctx, InputConfig{Message: message})
	case model.WidgetNumber, model.WidgetSlider:
		text, err := r.driver.Input(ctx, InputConfig{
			Message:   message,
			Default:   textOf(cfg.Value),
			Help:      rangeHelp(cfg),
			Validator: numberValidator(widget),
		})
		if err != nil {
			return nil, err
		}
		return parseNumber(text)
	case model.WidgetImage, model.WidgetAudio, model.WidgetVideo, model.WidgetFile:
		text, err := r.driver.Input(ctx, InputConfig{
			Message:   message + " (path)",
			Help:      cfg.InfoText,
			Validator: pathValidator(cfg.Optional),
		})
		if err != nil {
			return nil, err
		}
		return strings.TrimSpace(text), nil
	default:
		return r.driver.Input(ctx, InputConfig{Message: message, Default: textOf(cfg.Value)})
	}
}

// Present prints one line (or block) per output widget.
func (r *Renderer) Present(outputs []model.WidgetDescriptor, result marshal.Result) {
	sizes := make(map[string]int64, len(result.Files))
	for _, file := range result.Files {
		sizes[file.Path()] = file.Size()
	}
	for i, widget := range outputs {
		if i >= len(result.Values) {
			break
		}
		r.printf("%s%s: %s\n", r.theme.ResultPrefix, widget.Label(), formatValue(widget, result.Values[i], sizes))
	}
}

func (r *Renderer) offerRelease(ctx context.Context, result marshal.Result) error {
	if len(result.Files) == 0 {
		return nil
	}
	remove, err := r.driver.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("Remove %d transient file(s)?", len(result.Files)),
		Default: false,
	})
	if err != nil {
		return err
	}
	if remove {
		return result.Release()
	}
	return nil
}

func (r *Renderer) printHeader(meta client.Metadata) {
	if title := meta.Title(); title != "" {
		r.printf("%s\n", title)
	}
	if meta.Summary != "" {
		r.printf("%s\n", meta.Summary)
	}
	var footer []string
	if authors := meta.Author.String(); authors != "" {
		footer = append(footer, "Author(s): "+authors)
	}
	if meta.License != "" {
		footer = append(footer, "License: "+meta.License)
	}
	if len(footer) > 0 {
		r.printf("%s\n\n", strings.Join(footer, " | "))
	}
}

func (r *Renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func formatValue(widget model.WidgetDescriptor, value any, sizes map[string]int64) string {
	if value == nil {
		return "-"
	}
	switch widget.Kind {
	case model.WidgetClassification:
		scores, ok := value.(model.Confidences)
		if !ok {
			return fmt.Sprint(value)
		}
		return "\n" + formatConfidences(scores, widget.Config.TopClasses)
	case model.WidgetImage, model.WidgetAudio, model.WidgetVideo, model.WidgetFile:
		path := fmt.Sprint(value)
		if size, ok := sizes[path]; ok {
			return fmt.Sprintf("%s (%s)", path, humanize.Bytes(uint64(size)))
		}
		return path
	case model.WidgetJSON:
		encoded, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(encoded)
	default:
		return textOf(value)
	}
}

func formatConfidences(scores model.Confidences, top int) string {
	sorted := append(model.Confidences(nil), scores...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	if top > 0 && len(sorted) > top {
		sorted = sorted[:top]
	}
	var b strings.Builder
	for _, entry := range sorted {
		fmt.Fprintf(&b, "  %-20s %6.2f%%\n", entry.Label, entry.Score*100)
	}
	return strings.TrimRight(b.String(), "\n")
}

func textOf(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func rangeHelp(cfg model.WidgetConfig) string {
	if cfg.Min == nil || cfg.Max == nil {
		return ""
	}
	return fmt.Sprintf("between %s and %s", textOf(*cfg.Min), textOf(*cfg.Max))
}

func parseNumber(text string) (any, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}
	return strconv.ParseFloat(trimmed, 64)
}

func numberValidator(widget model.WidgetDescriptor) func(string) error {
	return func(text string) error {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		value, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return fmt.Errorf("%q is not a number", text)
		}
		if widget.Kind != model.WidgetSlider {
			return nil
		}
		if value != math.Trunc(value) {
			return fmt.Errorf("%q is not a whole number", text)
		}
		cfg := widget.Config
		if (cfg.Min != nil && value < *cfg.Min) || (cfg.Max != nil && value > *cfg.Max) {
			return fmt.Errorf("value must be %s", rangeHelp(cfg))
		}
		return nil
	}
}

func pathValidator(optional bool) func(string) error {
	return func(text string) error {
		path := strings.TrimSpace(text)
		if path == "" {
			if optional {
				return nil
			}
			return errors.New("a file is required")
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
		return nil
	}
}
