package widgets

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-inferform/pkg/model"
)

func widgetKinds(widgets []model.WidgetDescriptor) []string {
	out := make([]string, 0, len(widgets))
	for _, w := range widgets {
		out = append(out, w.Name+":"+string(w.Kind))
	}
	return out
}

func TestClassifyOutputs_Kinds(t *testing.T) {
	policy := newTestPolicy(t, nil)
	schema := model.OutputSchema{
		{Name: "status", Kind: model.KindString},
		{Name: "secret", Kind: model.KindString, Format: "password"},
		{Name: "preview", Kind: model.KindString, Description: "Annotated image, base64"},
		{Name: "speech", Kind: model.KindString, Description: "audio and video track"},
		{Name: "count", Kind: model.KindInteger},
		{Name: "score", Kind: model.KindNumber},
		{Name: "boxes", Kind: model.KindArray},
		{Name: "extra", Kind: model.KindObject},
		{Name: "raw"},
	}

	widgets, err := policy.ClassifyOutputs(schema)
	if err != nil {
		t.Fatalf("classify outputs: %v", err)
	}
	want := []string{
		"status:textbox",
		"secret:textbox-password",
		"preview:image",
		"speech:audio",
		"count:number-display",
		"score:number-display",
		"boxes:textbox",
		"extra:json",
		"raw:textbox",
	}
	if diff := cmp.Diff(want, widgetKinds(widgets)); diff != "" {
		t.Fatalf("widgets mismatch (-want +got):\n%s", diff)
	}
	strict := map[string]bool{}
	for _, w := range widgets {
		if w.Config.StrictString {
			strict[w.Name] = true
		}
	}
	if diff := cmp.Diff(map[string]bool{"status": true, "secret": true, "boxes": true}, strict); diff != "" {
		t.Fatalf("strict string mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyOutputs_ClassificationAppendedLast(t *testing.T) {
	policy := newTestPolicy(t, nil)
	schema := model.OutputSchema{
		{Name: "labels", Kind: model.KindArray},
		{Name: "status", Kind: model.KindString},
		{Name: "probabilities", Kind: model.KindArray},
		{Name: "elapsed", Kind: model.KindNumber},
	}

	widgets, err := policy.ClassifyOutputs(schema)
	if err != nil {
		t.Fatalf("classify outputs: %v", err)
	}
	want := []string{"status:textbox", "elapsed:number-display", "classification scores:classificationConfidence"}
	if diff := cmp.Diff(want, widgetKinds(widgets)); diff != "" {
		t.Fatalf("widgets mismatch (-want +got):\n%s", diff)
	}
	last := widgets[len(widgets)-1]
	if last.Config.TopClasses != DefaultTopClasses {
		t.Fatalf("expected top classes %d, got %d", DefaultTopClasses, last.Config.TopClasses)
	}
}

func TestClassifyOutputs_LoneClassificationFieldIsDropped(t *testing.T) {
	policy := newTestPolicy(t, nil)
	for _, name := range []string{"labels", "probabilities"} {
		schema := model.OutputSchema{
			{Name: name, Kind: model.KindArray},
			{Name: "x", Kind: model.KindString},
		}
		widgets, err := policy.ClassifyOutputs(schema)
		if err != nil {
			t.Fatalf("%s: classify outputs: %v", name, err)
		}
		if diff := cmp.Diff([]string{"x:textbox"}, widgetKinds(widgets)); diff != "" {
			t.Fatalf("%s: widgets mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestClassifyOutputs_KindDomain(t *testing.T) {
	policy := newTestPolicy(t, nil)
	rejected := map[model.Kind]bool{model.KindFile: true, model.KindEnum: true}
	for _, kind := range model.Kinds() {
		widgets, err := policy.ClassifyOutputs(model.OutputSchema{{Name: "f", Kind: kind}})
		if rejected[kind] {
			var unsupported *model.UnsupportedTypeError
			if !errors.As(err, &unsupported) || !unsupported.Output || unsupported.Name != "f" {
				t.Fatalf("kind %q: expected output UnsupportedTypeError, got %v", kind, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("kind %q has no output branch: %v", kind, err)
		}
		if len(widgets) != 1 || widgets[0].Kind == "" {
			t.Fatalf("kind %q produced %v", kind, widgets)
		}
	}

	_, err := policy.ClassifyOutputs(model.OutputSchema{{Name: "t", Kind: model.Kind("tensor")}})
	var unsupported *model.UnsupportedTypeError
	if !errors.As(err, &unsupported) || !unsupported.Output {
		t.Fatalf("expected output UnsupportedTypeError, got %v", err)
	}
}

func TestResponseWidgets(t *testing.T) {
	var warnings []model.Warning
	policy := newTestPolicy(t, &warnings)
	schema := model.OutputSchema{{Name: "status", Kind: model.KindString}}

	widgets, present, err := policy.ResponseWidgets("application/json", schema)
	if err != nil || !present || len(widgets) != 1 {
		t.Fatalf("json with schema: widgets=%v present=%v err=%v", widgets, present, err)
	}

	widgets, present, err = policy.ResponseWidgets("application/json", nil)
	if err != nil || present {
		t.Fatalf("json without schema: present=%v err=%v", present, err)
	}
	if diff := cmp.Diff([]string{"predictions:json"}, widgetKinds(widgets)); diff != "" {
		t.Fatalf("fallback mismatch (-want +got):\n%s", diff)
	}
	if len(warnings) != 1 || warnings[0].Kind != model.SchemaMissingWarning {
		t.Fatalf("expected schema-missing warning, got %v", warnings)
	}

	cases := map[string]string{
		"image/png":       "png:image",
		"audio/wav":       "wav:audio",
		"video/mp4":       "mp4:video",
		"application/pdf": "pdf:genericFile",
		"application/*":   "output:genericFile",
	}
	for mime, expect := range cases {
		widgets, present, err := policy.ResponseWidgets(mime, schema)
		if err != nil || present {
			t.Fatalf("%s: present=%v err=%v", mime, present, err)
		}
		if got := widgetKinds(widgets); len(got) != 1 || got[0] != expect {
			t.Fatalf("%s: expected %s, got %v", mime, expect, got)
		}
	}

	if _, _, err := policy.ResponseWidgets("text/plain", schema); !errors.Is(err, model.ErrUnsupportedMIME) {
		t.Fatalf("expected ErrUnsupportedMIME, got %v", err)
	}
}
