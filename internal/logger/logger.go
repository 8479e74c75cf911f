// Package logger holds the process-wide charmbracelet logger used by the
// inferform commands.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Logger is the global logger. Component loggers derive from it via New.
var Logger *log.Logger

var output io.Writer = os.Stderr

func init() {
	Logger = log.New(output)
	Logger.SetTimeFormat("")
	Logger.SetLevel(log.InfoLevel)
}

// Configure sets the level and destination. An empty logFile keeps stderr;
// otherwise the file is opened for append.
func Configure(level, logFile string) error {
	var out io.Writer = os.Stderr
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		out = file
	}
	configure(out, level)
	return nil
}

func configure(out io.Writer, level string) {
	output = out
	Logger = log.NewWithOptions(out, log.Options{ReportTimestamp: true, TimeFormat: "15:04:05"})
	Logger.SetLevel(parseLogLevel(level))
}

func parseLogLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// New returns a component logger sharing the global destination and level.
func New(prefix string) *log.Logger {
	styles := log.DefaultStyles()
	styles.Keys["endpoint"] = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styles.Keys["call"] = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	styles.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styles.Values["error"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	l := log.NewWithOptions(output, log.Options{Prefix: prefix})
	l.SetStyles(styles)
	l.SetLevel(Logger.GetLevel())
	return l
}
