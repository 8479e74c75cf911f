package tui

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-inferform/pkg/client"
	"github.com/goliatone/go-inferform/pkg/marshal"
	"github.com/goliatone/go-inferform/pkg/model"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	passwords    []string
	infoMessages []string
	inputCfgs    []InputConfig
	inputPos     int
	selectPos    int
	confirmPos   int
	passPos      int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	s.inputCfgs = append(s.inputCfgs, cfg)
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, _ InputConfig) (string, error) {
	if s.passPos >= len(s.passwords) {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[s.passPos]
	s.passPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

type stubSession struct {
	inputs  []model.WidgetDescriptor
	outputs []model.WidgetDescriptor
	result  marshal.Result
	err     error
	calls   [][]any
}

func (s *stubSession) Inputs() []model.WidgetDescriptor  { return s.inputs }
func (s *stubSession) Outputs() []model.WidgetDescriptor { return s.outputs }
func (s *stubSession) Metadata() client.Metadata {
	return client.Metadata{Name: "demo_app", Author: client.Authors{"Jane Roe"}, License: "MIT", Summary: "Detects cats"}
}

func (s *stubSession) Call(_ context.Context, values []any) (marshal.Result, error) {
	s.calls = append(s.calls, values)
	return s.result, s.err
}

func floatPtr(v float64) *float64 { return &v }

func TestCollect_PromptsEveryWidget(t *testing.T) {
	dir := t.TempDir()
	image := filepath.Join(dir, "cat.png")
	if err := os.WriteFile(image, []byte("img"), 0o600); err != nil {
		t.Fatal(err)
	}

	inputs := []model.WidgetDescriptor{
		{Name: "mode", Kind: model.WidgetDropdown, Config: model.WidgetConfig{Choices: []string{"a", "b"}, Value: "a"}},
		{Name: "flag", Kind: model.WidgetCheckbox},
		{Name: "secret", Kind: model.WidgetPassword},
		{Name: "k", Kind: model.WidgetSlider, Config: model.WidgetConfig{Min: floatPtr(1), Max: floatPtr(5)}},
		{Name: "note", Kind: model.WidgetTextbox},
		{Name: "data", Kind: model.WidgetImage},
		{Name: "data", Kind: model.WidgetHTML, Auxiliary: true, Config: model.WidgetConfig{InfoText: "Input image"}},
		{Name: "t", Kind: model.WidgetNumber},
	}
	driver := &stubDriver{
		selectIdx: []int{1},
		confirm:   []bool{true},
		passwords: []string{"pw"},
		inputs:    []string{"3", "hello", image, ""},
	}
	r := New(WithPromptDriver(driver), WithOutput(&bytes.Buffer{}))

	values, err := r.Collect(context.Background(), inputs)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	want := []any{"b", true, "pw", float64(3), "hello", image, nil, nil}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Input image"}, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}

	slider := driver.inputCfgs[0]
	if err := slider.Validator("9"); err == nil {
		t.Fatalf("expected out of range value to be rejected")
	}
	if err := slider.Validator("2.5"); err == nil {
		t.Fatalf("expected fractional slider value to be rejected")
	}
	if err := slider.Validator("4"); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	file := driver.inputCfgs[2]
	if err := file.Validator(filepath.Join(dir, "missing.png")); err == nil {
		t.Fatalf("expected missing file to be rejected")
	}
	if err := file.Validator(""); err == nil {
		t.Fatalf("expected required file to be enforced")
	}
}

func TestRun_PresentsResults(t *testing.T) {
	session := &stubSession{
		inputs: []model.WidgetDescriptor{{Name: "note", Kind: model.WidgetTextbox}},
		outputs: []model.WidgetDescriptor{
			{Name: "status", Kind: model.WidgetTextbox},
			{Name: "extra", Kind: model.WidgetJSON},
			{Name: "classification scores", Kind: model.WidgetClassification, Config: model.WidgetConfig{TopClasses: 2}},
		},
		result: marshal.Result{Values: []any{
			"ok",
			map[string]any{"k": 1.0},
			model.Confidences{{Label: "cat", Score: 0.2}, {Label: "dog", Score: 0.7}, {Label: "eel", Score: 0.1}},
		}},
	}
	var out bytes.Buffer
	r := New(WithPromptDriver(&stubDriver{inputs: []string{"hi"}}), WithOutput(&out))

	if err := r.Run(context.Background(), session); err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff([][]any{{"hi"}}, session.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}

	text := out.String()
	for _, expect := range []string{"demo_app", "Detects cats", "Author(s): Jane Roe | License: MIT", "status: ok", "\"k\": 1"} {
		if !strings.Contains(text, expect) {
			t.Fatalf("expected %q in output:\n%s", expect, text)
		}
	}
	scores := text[strings.Index(text, "classification scores"):]
	dog := strings.Index(scores, "dog")
	cat := strings.Index(scores, "cat")
	if dog < 0 || cat < 0 || dog > cat {
		t.Fatalf("expected classification sorted by score:\n%s", text)
	}
	if strings.Contains(text, "eel") {
		t.Fatalf("expected top classes to be bounded:\n%s", text)
	}
}

func TestRun_RemoteErrorIsPrinted(t *testing.T) {
	session := &stubSession{
		inputs: []model.WidgetDescriptor{{Name: "note", Kind: model.WidgetTextbox}},
		err:    &model.RemoteCallError{Status: 500, Body: "boom"},
	}
	var out bytes.Buffer
	driver := &stubDriver{inputs: []string{"a", "b"}, confirm: []bool{true, false}}
	r := New(WithPromptDriver(driver), WithOutput(&out), WithRepeat(true), WithTheme(Theme{ErrorPrefix: "error: "}))

	if err := r.Run(context.Background(), session); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(session.calls) != 2 {
		t.Fatalf("expected two calls, got %d", len(session.calls))
	}
	if !strings.Contains(out.String(), "error: inferform: remote call failed with status 500") {
		t.Fatalf("expected error printed, got:\n%s", out.String())
	}
}

func TestRun_AbortStops(t *testing.T) {
	session := &stubSession{inputs: []model.WidgetDescriptor{{Name: "flag", Kind: model.WidgetCheckbox}}}
	r := New(WithPromptDriver(&stubDriver{}), WithOutput(&bytes.Buffer{}))
	if err := r.Run(context.Background(), session); err == nil {
		t.Fatalf("expected prompt error to stop the run")
	}
	if len(session.calls) != 0 {
		t.Fatalf("expected no call after a failed prompt")
	}
}
