package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	pkgopenapi "github.com/goliatone/go-inferform/pkg/openapi"
)

// Loader fetches a model service's schema document from disk, an fs.FS or
// the running service itself. Remote fetches are off unless an HTTP client
// or the fallback was configured.
type Loader struct {
	files   fs.FS
	remote  *http.Client
	timeout time.Duration
	retry   retryPolicy
	log     *log.Logger
}

var _ pkgopenapi.Loader = (*Loader)(nil)

// New builds a Loader from resolved options.
func New(options pkgopenapi.LoaderOptions) *Loader {
	l := &Loader{
		files:   options.FileSystem,
		remote:  remoteClient(options),
		timeout: options.RequestTimeout,
		retry: retryPolicy{
			initial:    options.RetryInitialInterval,
			maxElapsed: options.RetryMaxElapsed,
		},
		log: options.Logger,
	}
	if l.log == nil {
		l.log = log.New(io.Discard)
	}
	return l
}

// remoteClient returns nil when HTTP sources must be refused. An injected
// client is copied so the request timeout never leaks back to the caller.
func remoteClient(options pkgopenapi.LoaderOptions) *http.Client {
	if options.HTTPClient == nil {
		if !options.AllowHTTPFallback {
			return nil
		}
		return &http.Client{Timeout: options.RequestTimeout}
	}
	c := *options.HTTPClient
	if c.Timeout == 0 {
		c.Timeout = options.RequestTimeout
	}
	return &c
}

// Load reads src and wraps the bytes in a Document with its dialect detected.
func (l *Loader) Load(ctx context.Context, src pkgopenapi.Source) (pkgopenapi.Document, error) {
	if src == nil {
		return pkgopenapi.Document{}, errors.New("schema loader: source is nil")
	}
	data, err := l.read(ctx, src)
	if err != nil {
		return pkgopenapi.Document{}, err
	}
	l.log.Debug("schema document loaded", "source", src.Location(), "bytes", len(data))
	return pkgopenapi.NewDocument(src, data)
}

func (l *Loader) read(ctx context.Context, src pkgopenapi.Source) ([]byte, error) {
	where := src.Location()
	switch kind := src.Kind(); kind {
	case pkgopenapi.SourceKindFile:
		return readFile(ctx, where)
	case pkgopenapi.SourceKindFS:
		return readFS(ctx, l.files, where)
	case pkgopenapi.SourceKindURL:
		if l.remote == nil {
			return nil, errors.New("schema loader: http support disabled")
		}
		return loadHTTP(ctx, l.remote, where, l.timeout, l.retry, l.log)
	default:
		return nil, fmt.Errorf("schema loader: unsupported source kind %q", kind)
	}
}
