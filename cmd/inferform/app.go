package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goliatone/go-inferform/internal/config"
	"github.com/goliatone/go-inferform/internal/logger"
	internalLoader "github.com/goliatone/go-inferform/internal/openapi/loader"
	internalParser "github.com/goliatone/go-inferform/internal/openapi/parser"
	"github.com/goliatone/go-inferform/pkg/client"
	"github.com/goliatone/go-inferform/pkg/media"
	pkgopenapi "github.com/goliatone/go-inferform/pkg/openapi"
	"github.com/goliatone/go-inferform/pkg/orchestrator"
)

// app wires configuration into the loader, client and orchestrator.
type app struct {
	cfg          *config.Config
	codec        *media.Codec
	orchestrator *orchestrator.Orchestrator
}

func newApp(cfg *config.Config) (*app, error) {
	if cfg.TempDir != "" {
		if err := os.MkdirAll(cfg.TempDir, 0o700); err != nil {
			return nil, fmt.Errorf("create temp dir: %w", err)
		}
	}

	codec := media.NewCodec(
		media.WithDir(cfg.TempDir),
		media.WithLogger(logger.New("media")),
	)

	httpClient, err := client.New(cfg.APIURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(logger.New("client")),
	)
	if err != nil {
		return nil, err
	}

	loader := internalLoader.New(pkgopenapi.NewLoaderOptions(
		pkgopenapi.WithHTTPFallback(cfg.RequestTimeout),
		pkgopenapi.WithRetry(cfg.Retry.InitialInterval, cfg.Retry.MaxElapsed),
		pkgopenapi.WithLoaderLogger(logger.New("loader")),
	))
	parser := internalParser.New(pkgopenapi.NewParserOptions(
		pkgopenapi.WithOutputDefinition(cfg.OutputDefinition),
	))

	options := []orchestrator.Option{
		orchestrator.WithLoader(loader),
		orchestrator.WithParser(parser),
		orchestrator.WithTransport(httpClient),
		orchestrator.WithCodec(codec),
		orchestrator.WithLogger(logger.New("orchestrator")),
	}
	if cfg.Preset != "" {
		preset, err := orchestrator.NewPresetTransformerFromFS(os.DirFS(filepath.Dir(cfg.Preset)), filepath.Base(cfg.Preset))
		if err != nil {
			return nil, err
		}
		options = append(options, orchestrator.WithTransformer(preset))
	}

	return &app{
		cfg:          cfg,
		codec:        codec,
		orchestrator: orchestrator.New(options...),
	}, nil
}

func (a *app) prepare(ctx context.Context, skipMetadata bool) (*orchestrator.Session, error) {
	src, err := pkgopenapi.SourceFromString(a.cfg.SchemaLocation())
	if err != nil {
		return nil, err
	}
	return a.orchestrator.Prepare(ctx, orchestrator.Request{
		Source:         src,
		EndpointSuffix: a.cfg.Endpoint,
		MIME:           a.cfg.MIME,
		MIMEIndex:      a.cfg.MIMEIndex,
		SkipMetadata:   skipMetadata,
	})
}
