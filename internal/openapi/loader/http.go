package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
)

// retryPolicy controls how long schema discovery waits for a service that is
// still starting. A zero maxElapsed disables retries.
type retryPolicy struct {
	initial    time.Duration
	maxElapsed time.Duration
}

func (p retryPolicy) backOff(ctx context.Context) backoff.BackOff {
	if p.maxElapsed <= 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	exp := backoff.NewExponentialBackOff()
	if p.initial > 0 {
		exp.InitialInterval = p.initial
	}
	exp.MaxElapsedTime = p.maxElapsed
	return backoff.WithContext(exp, ctx)
}

func loadHTTP(ctx context.Context, client *http.Client, url string, timeout time.Duration, retry retryPolicy, logger *log.Logger) ([]byte, error) {
	if client == nil {
		return nil, errors.New("schema loader: http client is not configured")
	}
	if url == "" {
		return nil, errors.New("schema loader: url is required")
	}

	var data []byte
	operation := func() error {
		payload, err := fetch(ctx, client, url, timeout)
		if err != nil {
			if errors.Is(err, syscall.ECONNREFUSED) {
				return err
			}
			return backoff.Permanent(err)
		}
		data = payload
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("schema endpoint not reachable, retrying", "url", url, "wait", wait, "error", err)
	}
	if err := backoff.RetryNotify(operation, retry.backOff(ctx), notify); err != nil {
		return nil, err
	}
	return data, nil
}

func fetch(ctx context.Context, client *http.Client, url string, timeout time.Duration) ([]byte, error) {
	reqCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("schema loader: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
