package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-inferform/pkg/model"
	pkgopenapi "github.com/goliatone/go-inferform/pkg/openapi"
)

func loadFixture(t *testing.T, name string) pkgopenapi.Document {
	t.Helper()

	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return pkgopenapi.MustNewDocument(pkgopenapi.SourceFromFile(path), data)
}

func floatPtr(v float64) *float64 { return &v }

func TestParseSwagger2PredictEndpoint(t *testing.T) {
	parser := New(pkgopenapi.NewParserOptions())
	spec, err := parser.Parse(context.Background(), loadFixture(t, "deepaas_v2.json"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if spec.Dialect != pkgopenapi.DialectSwagger2 {
		t.Fatalf("dialect = %q", spec.Dialect)
	}
	if len(spec.Endpoints) != 2 {
		t.Fatalf("expected train and predict endpoints, got %d", len(spec.Endpoints))
	}

	endpoint, err := spec.Endpoint("predict/")
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}
	if diff := cmp.Diff([]string{"application/json", "image/png"}, endpoint.Produces); diff != "" {
		t.Fatalf("produces mismatch (-want +got):\n%s", diff)
	}

	names := make([]string, 0, len(endpoint.Parameters))
	for _, param := range endpoint.Parameters {
		names = append(names, param.Name)
	}
	wantNames := []string{
		"demo_str", "demo_str_choice", "demo_password", "demo_int", "demo_int_range",
		"demo_float", "demo_bool", "demo_list_of_floats", "demo_image", "demo_audio", "accept",
	}
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Fatalf("parameter order mismatch (-want +got):\n%s", diff)
	}

	wantRange := model.ParameterSpec{
		Name:    "demo_int_range",
		Kind:    model.KindInteger,
		Default: float64(0),
		Minimum: floatPtr(-5),
		Maximum: floatPtr(5),
	}
	if diff := cmp.Diff(wantRange, endpoint.Parameters[4]); diff != "" {
		t.Fatalf("range parameter mismatch (-want +got):\n%s", diff)
	}

	image := endpoint.Parameters[8]
	if image.Kind != model.KindFile || !image.Required || image.Description != "test image upload" {
		t.Fatalf("unexpected file parameter %+v", image)
	}
	if diff := cmp.Diff([]string{"choice1", "choice2"}, endpoint.Parameters[1].EnumValues); diff != "" {
		t.Fatalf("enum mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSwagger2OutputSchemaKeepsOrder(t *testing.T) {
	parser := New(pkgopenapi.NewParserOptions())
	spec, err := parser.Parse(context.Background(), loadFixture(t, "deepaas_v2.json"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	endpoint, _ := spec.Endpoint("predict/")

	want := model.OutputSchema{
		{Name: "demo_str", Kind: model.KindString},
		{Name: "demo_int", Kind: model.KindInteger},
		{Name: "demo_image", Kind: model.KindString, Description: "image encoded in base64"},
		{Name: "labels", Kind: model.KindArray},
		{Name: "probabilities", Kind: model.KindArray},
		{Name: "demo_dict", Kind: model.KindObject},
		{Name: "extra", Kind: model.KindObject},
		{Name: "raw", Kind: model.KindOpaque, Description: "untyped payload"},
	}
	if diff := cmp.Diff(want, endpoint.Output); diff != "" {
		t.Fatalf("output schema mismatch (-want +got):\n%s", diff)
	}

	train, _ := spec.Endpoint("train/")
	if !train.HasOutputSchema() {
		t.Fatalf("definitions are shared across endpoints; train should see the output schema")
	}
}

func TestParseSwagger2CustomOutputDefinition(t *testing.T) {
	parser := New(pkgopenapi.NewParserOptions(pkgopenapi.WithOutputDefinition("Missing")))
	spec, err := parser.Parse(context.Background(), loadFixture(t, "deepaas_v2.json"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	predict, _ := spec.Endpoint("predict/")
	if len(predict.Output) != 8 {
		t.Fatalf("expected fallback to the 200 response schema, got %d fields", len(predict.Output))
	}
	train, _ := spec.Endpoint("train/")
	if train.HasOutputSchema() {
		t.Fatalf("train endpoint declares no response schema")
	}
}

func TestParseOpenAPI3YAML(t *testing.T) {
	parser := New(pkgopenapi.NewParserOptions())
	spec, err := parser.Parse(context.Background(), loadFixture(t, "inference_v3.yaml"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if spec.Dialect != pkgopenapi.DialectOpenAPI3 || spec.Title != "Inference" {
		t.Fatalf("unexpected spec header %+v", spec)
	}

	endpoint, err := spec.Endpoint("predict/")
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}

	want := []model.ParameterSpec{
		{Name: "top_k", Kind: model.KindInteger, Default: float64(5), Minimum: floatPtr(1), Maximum: floatPtr(10)},
		{Name: "image", Kind: model.KindFile, Required: true, Format: "binary", Description: "Input image"},
		{Name: "mode", Kind: model.KindString, EnumValues: []string{"fast", "accurate"}},
		{Name: "notes", Kind: model.KindString},
	}
	if diff := cmp.Diff(want, endpoint.Parameters); diff != "" {
		t.Fatalf("parameters mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"application/json", "image/png"}, endpoint.Produces); diff != "" {
		t.Fatalf("produces mismatch (-want +got):\n%s", diff)
	}
	wantOutput := model.OutputSchema{
		{Name: "summary", Kind: model.KindString},
		{Name: "score", Kind: model.KindNumber},
	}
	if diff := cmp.Diff(wantOutput, endpoint.Output); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsUnknownVersion(t *testing.T) {
	doc := pkgopenapi.MustNewDocument(pkgopenapi.SourceFromFile("inline.json"), []byte(`{"info": {}}`))
	if _, err := New(pkgopenapi.NewParserOptions()).Parse(context.Background(), doc); err == nil {
		t.Fatalf("expected version error")
	}
}

func TestNormalizeYAMLKeepsKeyOrder(t *testing.T) {
	doc, err := normalizeJSON([]byte("b: 1\na:\n  z: true\n  y: [x, 2]\n"))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got, want := string(doc), `{"b":1,"a":{"z":true,"y":["x",2]}}`; got != want {
		t.Fatalf("normalize = %s, want %s", got, want)
	}
	if diff := cmp.Diff([]string{"z", "y"}, orderedKeys(doc, "a")); diff != "" {
		t.Fatalf("ordered keys mismatch (-want +got):\n%s", diff)
	}
}
