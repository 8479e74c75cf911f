package loader

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	pkgopenapi "github.com/goliatone/go-inferform/pkg/openapi"
)

const payload = `{"swagger":"2.0","paths":{}}`

func TestLoaderFileAndFS(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "swagger.json")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	files := fstest.MapFS{"schemas/swagger.json": {Data: []byte(payload)}}
	l := New(pkgopenapi.NewLoaderOptions(pkgopenapi.WithFileSystem(files)))

	doc, err := l.Load(ctx, pkgopenapi.SourceFromFile(path))
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if string(doc.Raw()) != payload {
		t.Fatalf("unexpected file payload %q", doc.Raw())
	}

	doc, err = l.Load(ctx, pkgopenapi.SourceFromFS("schemas/swagger.json"))
	if err != nil {
		t.Fatalf("load fs: %v", err)
	}
	if doc.Location() != "schemas/swagger.json" {
		t.Fatalf("unexpected location %q", doc.Location())
	}
}

func TestLoaderHTTPDisabledByDefault(t *testing.T) {
	l := New(pkgopenapi.NewLoaderOptions())
	if _, err := l.Load(context.Background(), pkgopenapi.SourceFromURL("http://127.0.0.1:1/swagger.json")); err == nil {
		t.Fatalf("expected http to be disabled")
	}
}

func TestLoaderHTTPStatusIsNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	l := New(pkgopenapi.NewLoaderOptions(
		pkgopenapi.WithHTTPFallback(time.Second),
		pkgopenapi.WithRetry(10*time.Millisecond, time.Minute),
	))
	if _, err := l.Load(context.Background(), pkgopenapi.SourceFromURL(server.URL)); err == nil {
		t.Fatalf("expected status error")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestLoaderHTTPRetriesConnectionRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(payload))
	})}
	go func() {
		time.Sleep(150 * time.Millisecond)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return
		}
		_ = server.Serve(ln)
	}()
	defer server.Close()

	l := New(pkgopenapi.NewLoaderOptions(
		pkgopenapi.WithHTTPFallback(time.Second),
		pkgopenapi.WithRetry(20*time.Millisecond, 10*time.Second),
	))
	doc, err := l.Load(context.Background(), pkgopenapi.SourceFromURL("http://"+addr+"/swagger.json"))
	if err != nil {
		t.Fatalf("load after retry: %v", err)
	}
	if string(doc.Raw()) != payload {
		t.Fatalf("unexpected payload %q", doc.Raw())
	}
}
