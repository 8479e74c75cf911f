package web

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/goliatone/go-inferform/pkg/marshal"
	"github.com/goliatone/go-inferform/pkg/media"
	"github.com/goliatone/go-inferform/pkg/model"
)

type fieldView struct {
	Key      string
	Label    string
	Kind     string
	Value    string
	Checked  bool
	Choices  []string
	Min      string
	Max      string
	Step     string
	Info     string
	File     bool
	Accept   string
	Required bool
}

type scoreView struct {
	Label   string
	Percent string
}

type resultView struct {
	Label  string
	Kind   string
	Text   string
	URL    string
	Scores []scoreView
}

func fieldKey(pos int) string {
	return "w" + strconv.Itoa(pos)
}

func (s *Server) fieldViews(inputs []model.WidgetDescriptor) []fieldView {
	out := make([]fieldView, 0, len(inputs))
	for pos, widget := range inputs {
		cfg := widget.Config
		view := fieldView{
			Key:      fieldKey(pos),
			Label:    widget.Label(),
			Kind:     string(widget.Kind),
			Value:    valueText(cfg.Value),
			Choices:  cfg.Choices,
			File:     widget.Kind.IsFile(),
			Required: !cfg.Optional,
		}
		if b, ok := cfg.Value.(bool); ok {
			view.Checked = b
		}
		if cfg.Min != nil {
			view.Min = valueText(*cfg.Min)
		}
		if cfg.Max != nil {
			view.Max = valueText(*cfg.Max)
		}
		if cfg.Step != 0 {
			view.Step = valueText(cfg.Step)
		}
		if widget.Kind == model.WidgetHTML {
			view.Info = s.sanitizer.Sanitize(cfg.InfoText)
		}
		if family := widget.Kind.Media(); family != model.MediaNone {
			view.Accept = string(family) + "/*"
		}
		out = append(out, view)
	}
	return out
}

// formValues maps the submitted form back onto the widget-ordered tuple.
// Uploaded files are persisted as transient files returned for release.
func (s *Server) formValues(c echo.Context, inputs []model.WidgetDescriptor) ([]any, []*media.TempFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		form = nil
	}

	values := make([]any, len(inputs))
	var uploads []*media.TempFile
	for pos, widget := range inputs {
		key := fieldKey(pos)
		switch {
		case widget.Auxiliary:
			values[pos] = nil
		case widget.Kind.IsFile():
			if form == nil || len(form.File[key]) == 0 {
				continue
			}
			file, err := s.saveUpload(form.File[key][0])
			if err != nil {
				return nil, uploads, fmt.Errorf("%s: %w", widget.Label(), err)
			}
			uploads = append(uploads, file)
			values[pos] = file.Path()
		case widget.Kind == model.WidgetCheckbox:
			values[pos] = c.FormValue(key) != ""
		case widget.Kind == model.WidgetNumber || widget.Kind == model.WidgetSlider:
			text := strings.TrimSpace(c.FormValue(key))
			if text == "" {
				continue
			}
			number, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, uploads, fmt.Errorf("%s: %q is not a number", widget.Label(), text)
			}
			values[pos] = number
		default:
			values[pos] = c.FormValue(key)
		}
	}
	return values, uploads, nil
}

func (s *Server) saveUpload(header *multipart.FileHeader) (*media.TempFile, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return s.codec.WriteBlob(data, strings.TrimPrefix(filepath.Ext(header.Filename), "."))
}

// resultViews registers every transient file of result as an artifact and
// builds the display rows.
func (s *Server) resultViews(result marshal.Result) ([]resultView, error) {
	urls := make(map[string]string, len(result.Files))
	for _, file := range result.Files {
		id, err := s.artifacts.add(file)
		if err != nil {
			s.logger.Warn("evict artifacts", "err", err)
		}
		urls[file.Path()] = "/artifacts/" + id
	}

	outputs := s.session.Outputs()
	views := make([]resultView, 0, len(outputs))
	for i, widget := range outputs {
		if i >= len(result.Values) {
			break
		}
		value := result.Values[i]
		view := resultView{Label: widget.Label(), Kind: string(widget.Kind)}
		switch {
		case value == nil:
			view.Text = "-"
		case widget.Kind == model.WidgetClassification:
			scores, ok := value.(model.Confidences)
			if !ok {
				return nil, fmt.Errorf("web: %s: unexpected value %T", widget.Label(), value)
			}
			view.Scores = scoreViews(scores, widget.Config.TopClasses)
		case widget.Kind.IsFile():
			path := fmt.Sprint(value)
			view.URL = urls[path]
			if view.URL == "" {
				view.Text = path
			}
		case widget.Kind == model.WidgetJSON:
			encoded, err := json.MarshalIndent(value, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("web: %s: %w", widget.Label(), err)
			}
			view.Text = string(encoded)
		default:
			view.Text = valueText(value)
		}
		views = append(views, view)
	}
	return views, nil
}

func scoreViews(scores model.Confidences, top int) []scoreView {
	sorted := append(model.Confidences(nil), scores...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	if top > 0 && len(sorted) > top {
		sorted = sorted[:top]
	}
	out := make([]scoreView, 0, len(sorted))
	for _, entry := range sorted {
		out = append(out, scoreView{Label: entry.Label, Percent: strconv.FormatFloat(entry.Score*100, 'f', 1, 64) + "%"})
	}
	return out
}

func valueText(value any) string {
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
