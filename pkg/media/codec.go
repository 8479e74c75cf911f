package media

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/goliatone/go-inferform/pkg/model"
)

const filePattern = "inferform-*"

// Option configures a Codec.
type Option func(*Codec)

// WithDir sets the directory transient files are created in. Empty means the
// system temporary directory.
func WithDir(dir string) Option {
	return func(c *Codec) {
		c.dir = strings.TrimSpace(dir)
	}
}

// WithLogger routes codec diagnostics to the provided logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Codec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Codec turns payloads into transient files.
type Codec struct {
	dir    string
	logger *log.Logger
}

// NewCodec constructs a Codec.
func NewCodec(options ...Option) *Codec {
	c := &Codec{logger: log.New(io.Discard)}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// DecodeBase64 decodes an embedded media payload and persists it. The file
// extension is sniffed from the decoded content; video payloads fall back to
// ".mp4".
func (c *Codec) DecodeBase64(encoded string, kind model.MediaKind) (*TempFile, error) {
	data, err := decodeBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("media: decode %s payload: %w", kind, err)
	}
	fallback := ""
	if kind == model.MediaVideo {
		fallback = ".mp4"
	}
	return c.write(data, sniffExtension(data, fallback))
}

// WriteBlob persists an opaque response body. ext is the extension label
// without the dot; empty means no suffix.
func (c *Codec) WriteBlob(data []byte, ext string) (*TempFile, error) {
	suffix := ""
	if ext = strings.TrimPrefix(strings.TrimSpace(ext), "."); ext != "" {
		suffix = "." + ext
	}
	return c.write(data, suffix)
}

func (c *Codec) write(data []byte, suffix string) (*TempFile, error) {
	fp, err := os.CreateTemp(c.dir, filePattern+suffix)
	if err != nil {
		return nil, fmt.Errorf("media: create transient file: %w", err)
	}
	handle := &TempFile{path: fp.Name(), size: int64(len(data))}
	if _, err := fp.Write(data); err != nil {
		fp.Close()
		_ = handle.Release()
		return nil, fmt.Errorf("media: write transient file: %w", err)
	}
	if err := fp.Close(); err != nil {
		_ = handle.Release()
		return nil, fmt.Errorf("media: close transient file: %w", err)
	}
	c.logger.Debug("transient file written", "path", handle.path, "size", humanize.Bytes(uint64(handle.size)))
	return handle, nil
}

// decodeBase64 accepts standard and URL alphabets, padded or not, and strips a
// data URI prefix when present. Empty text is zero bytes.
func decodeBase64(encoded string) ([]byte, error) {
	trimmed := strings.TrimSpace(encoded)
	if strings.HasPrefix(trimmed, "data:") {
		if idx := strings.Index(trimmed, ","); idx >= 0 {
			trimmed = trimmed[idx+1:]
		}
	}
	if trimmed == "" {
		return []byte{}, nil
	}
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(trimmed)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
