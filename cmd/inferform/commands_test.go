package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInspectLocalSchema(t *testing.T) {
	schema, err := filepath.Abs(filepath.Join("testdata", "deepaas_v2.json"))
	require.NoError(t, err)

	out, err := runCommand(t, "inspect",
		"--config", writeConfig(t, ""),
		"--schema-path", schema,
		"--skip-metadata",
		"--log-level", "error",
	)
	require.NoError(t, err)

	var report inspection
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, "/v2/models/demo_app/predict/", report.Endpoint)
	assert.Equal(t, "application/json", report.MIME)
	assert.True(t, report.SchemaPresent)
	require.NotEmpty(t, report.Inputs)
	assert.Equal(t, "demo_str", report.Inputs[0].Name)
	assert.NotEmpty(t, report.Outputs)
}

func TestInspectPresetAndMIMEIndex(t *testing.T) {
	schema, err := filepath.Abs(filepath.Join("testdata", "deepaas_v2.json"))
	require.NoError(t, err)
	preset := filepath.Join(t.TempDir(), "preset.yaml")
	require.NoError(t, os.WriteFile(preset, []byte("parameters:\n  demo_str:\n    description: patched\n"), 0o600))

	out, err := runCommand(t, "inspect",
		"--config", writeConfig(t, "mime_index: 1\n"),
		"--schema-path", schema,
		"--preset", preset,
		"--skip-metadata",
	)
	require.NoError(t, err)

	var report inspection
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, "image/png", report.MIME)
	assert.False(t, report.SchemaPresent)
}

func TestInspectMissingEndpoint(t *testing.T) {
	schema, err := filepath.Abs(filepath.Join("testdata", "deepaas_v2.json"))
	require.NoError(t, err)

	_, err = runCommand(t, "inspect",
		"--config", writeConfig(t, ""),
		"--schema-path", schema,
		"--endpoint", "explain/",
		"--skip-metadata",
	)
	require.Error(t, err)
}

func TestInspectTable(t *testing.T) {
	schema, err := filepath.Abs(filepath.Join("testdata", "deepaas_v2.json"))
	require.NoError(t, err)

	out, err := runCommand(t, "inspect",
		"--config", writeConfig(t, ""),
		"--schema-path", schema,
		"--skip-metadata",
		"--format", "table",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "demo_str_choice")
	assert.Contains(t, out, "choices=choice1|choice2")
	assert.Contains(t, out, "/v2/models/demo_app/predict/ application/json (swagger2)")

	_, err = runCommand(t, "inspect",
		"--config", writeConfig(t, ""),
		"--schema-path", schema,
		"--skip-metadata",
		"--format", "xml",
	)
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "inferform dev\n", out)
}

type fakeServer struct {
	started  chan struct{}
	stop     chan struct{}
	startErr error
	shutdown bool
}

func (f *fakeServer) Start(string) error {
	close(f.started)
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stop
	return nil
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdown = true
	close(f.stop)
	return nil
}

func TestServeUntilDoneShutsDownOnCancel(t *testing.T) {
	srv := &fakeServer{started: make(chan struct{}), stop: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- serveUntilDone(ctx, srv, "127.0.0.1:0") }()
	<-srv.started
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.True(t, srv.shutdown)
	case <-time.After(5 * time.Second):
		t.Fatal("serveUntilDone did not return")
	}
}

func TestServeUntilDoneReturnsStartError(t *testing.T) {
	boom := errors.New("address in use")
	srv := &fakeServer{started: make(chan struct{}), stop: make(chan struct{}), startErr: boom}
	err := serveUntilDone(context.Background(), srv, "127.0.0.1:0")
	require.ErrorIs(t, err, boom)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inferform.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}
