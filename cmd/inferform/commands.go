package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-inferform/internal/config"
	"github.com/goliatone/go-inferform/internal/logger"
	"github.com/goliatone/go-inferform/pkg/model"
	"github.com/goliatone/go-inferform/pkg/renderers/tui"
	"github.com/goliatone/go-inferform/pkg/renderers/web"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

type rootFlags struct {
	configFile   string
	envFile      string
	skipMetadata bool
}

func newRootCommand(out io.Writer) *cobra.Command {
	flags := &rootFlags{}
	loader := config.NewLoader()

	root := &cobra.Command{
		Use:           "inferform",
		Short:         "Generate an interface for a DEEPaaS style inference service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "configuration file (default ./inferform.yaml)")
	pf.StringVar(&flags.envFile, "env-file", "", "dotenv file with INFERFORM_* settings (default ./.env)")
	pf.BoolVar(&flags.skipMetadata, "skip-metadata", false, "do not fetch model metadata")
	pf.String("api-url", "", "root URL of the inference service")
	pf.String("schema-path", "", "schema document path, relative to the API URL, absolute URL or local file")
	pf.String("endpoint", "", "suffix of the prediction endpoint path")
	pf.String("mime", "", "response content type to request")
	pf.Int("mime-index", 0, "position of the response content type to request")
	pf.String("output-definition", "", "schema definition describing the output fields")
	pf.String("preset", "", "YAML preset overriding parameter and output hints")
	pf.String("temp-dir", "", "directory for transient files")
	pf.Duration("request-timeout", 0, "timeout for service requests")
	pf.Duration("retry-max-elapsed", 0, "how long to wait for the service to accept connections")
	pf.Duration("retry-initial-interval", 0, "first wait between connection attempts")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-file", "", "write logs to this file instead of stderr")

	load := func(cmd *cobra.Command) (*config.Config, error) {
		if err := loader.BindFlags(cmd.Flags()); err != nil {
			return nil, err
		}
		loader.SetDotEnv(flags.envFile)
		cfg, err := loader.Load(flags.configFile)
		if err != nil {
			return nil, err
		}
		if err := logger.Configure(cfg.Log.Level, cfg.Log.File); err != nil {
			return nil, fmt.Errorf("configure logging: %w", err)
		}
		return cfg, nil
	}

	root.AddCommand(
		newServeCommand(flags, load),
		newPromptCommand(flags, load),
		newInspectCommand(flags, load),
		newVersionCommand(),
	)
	return root
}

type configLoader func(cmd *cobra.Command) (*config.Config, error)

func newServeCommand(flags *rootFlags, load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generated web form",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			session, err := app.prepare(cmd.Context(), flags.skipMetadata)
			if err != nil {
				return err
			}

			server, err := web.New(session,
				web.WithLogger(logger.New("web")),
				web.WithCodec(app.codec),
				web.WithMaxArtifacts(cfg.MaxArtifacts),
				web.WithVersion(version),
			)
			if err != nil {
				return err
			}
			return serveUntilDone(cmd.Context(), server, cfg.UIAddr())
		},
	}
	cmd.Flags().String("ui-host", "", "listen host")
	cmd.Flags().Int("ui-port", 0, "listen port")
	cmd.Flags().Int("max-artifacts", 0, "transient result files kept for download")
	return cmd
}

type server interface {
	Start(addr string) error
	Shutdown(ctx context.Context) error
}

// serveUntilDone runs srv until ctx ends or Start fails, then shuts it down.
func serveUntilDone(ctx context.Context, srv server, addr string) error {
	g, gctx := errgroup.WithContext(ctx)
	stopped := make(chan struct{})

	g.Go(func() error {
		defer close(stopped)
		return srv.Start(addr)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-stopped:
			return nil
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func newPromptCommand(flags *rootFlags, load configLoader) *cobra.Command {
	var repeat bool
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Collect inputs and show results in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			session, err := app.prepare(cmd.Context(), flags.skipMetadata)
			if err != nil {
				return err
			}
			renderer := tui.New(tui.WithOutput(cmd.OutOrStdout()), tui.WithRepeat(repeat))
			err = renderer.Run(cmd.Context(), session)
			if errors.Is(err, tui.ErrAborted) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&repeat, "repeat", true, "offer another prediction after each result")
	return cmd
}

type inspection struct {
	Dialect       string                   `yaml:"dialect"`
	Endpoint      string                   `yaml:"endpoint"`
	MIME          string                   `yaml:"mime"`
	SchemaPresent bool                     `yaml:"schemaPresent"`
	Title         string                   `yaml:"title,omitempty"`
	Inputs        []model.WidgetDescriptor `yaml:"inputs"`
	Outputs       []model.WidgetDescriptor `yaml:"outputs"`
	Warnings      []string                 `yaml:"warnings,omitempty"`
}

func newInspectCommand(flags *rootFlags, load configLoader) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the widgets generated for the prediction endpoint as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			app, err := newApp(cfg)
			if err != nil {
				return err
			}
			session, err := app.prepare(cmd.Context(), flags.skipMetadata)
			if err != nil {
				return err
			}

			report := inspection{
				Dialect:       string(session.Dialect()),
				Endpoint:      session.Endpoint().Path,
				MIME:          session.MIME(),
				SchemaPresent: session.SchemaPresent(),
				Title:         session.Metadata().Title(),
				Inputs:        session.Inputs(),
				Outputs:       session.Outputs(),
			}
			for _, w := range session.Warnings() {
				report.Warnings = append(report.Warnings, w.String())
			}

			switch format {
			case "yaml":
				return writeYAML(cmd.OutOrStdout(), report)
			case "table":
				writeTable(cmd.OutOrStdout(), report)
				return nil
			default:
				return fmt.Errorf("unknown format %q (want yaml or table)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or table")
	return cmd
}

func writeYAML(out io.Writer, report inspection) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

func writeTable(out io.Writer, report inspection) {
	var data [][]string
	for _, w := range report.Inputs {
		data = append(data, []string{"input", w.Name, string(w.Kind), widgetDetail(w)})
	}
	for _, w := range report.Outputs {
		data = append(data, []string{"output", w.Name, string(w.Kind), widgetDetail(w)})
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"SIDE", "NAME", "WIDGET", "DETAIL"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoWrapText(false)
	table.AppendBulk(data)
	table.Render()

	fmt.Fprintf(out, "\n%s %s (%s)\n", report.Endpoint, report.MIME, report.Dialect)
	for _, w := range report.Warnings {
		fmt.Fprintln(out, "warning:", w)
	}
}

func widgetDetail(w model.WidgetDescriptor) string {
	cfg := w.Config
	var parts []string
	if len(cfg.Choices) > 0 {
		parts = append(parts, "choices="+strings.Join(cfg.Choices, "|"))
	}
	if cfg.Min != nil && cfg.Max != nil {
		parts = append(parts, fmt.Sprintf("range=[%g,%g]", *cfg.Min, *cfg.Max))
	}
	if cfg.Value != nil {
		parts = append(parts, fmt.Sprintf("default=%v", cfg.Value))
	}
	if cfg.Optional {
		parts = append(parts, "optional")
	}
	if w.Auxiliary {
		parts = append(parts, "info")
	}
	return strings.Join(parts, " ")
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "inferform", version)
		},
	}
}
