package tui

import "io"

// Theme captures optional prefixes applied to printed lines.
type Theme struct {
	InfoPrefix   string
	ErrorPrefix  string
	ResultPrefix string
}

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutput sets where results are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Renderer) {
		if w != nil {
			r.out = w
		}
	}
}

// WithRepeat keeps prompting for new calls until the user declines.
func WithRepeat(enabled bool) Option {
	return func(r *Renderer) {
		r.repeat = enabled
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}
