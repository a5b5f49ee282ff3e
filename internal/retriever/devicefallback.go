package retriever

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EmbedderBuilder constructs an Embedder bound to a specific device
// ("gpu" or "cpu").
type EmbedderBuilder func(device string) (Embedder, error)

// deviceFallbackEmbedder wraps an accelerator-backed embedder. If a probe
// or call fails with ErrAcceleratorFailure, it rebuilds the underlying
// embedder on CPU exactly once and retries the call that triggered the
// fallback; persistent failures after that propagate unchanged.
type deviceFallbackEmbedder struct {
	build EmbedderBuilder

	mu         sync.Mutex
	current    Embedder
	fellBack   bool
	buildError error
}

// NewDeviceFallbackEmbedder returns an Embedder that starts on the
// requested device and falls back to CPU on its first accelerator
// failure.
func NewDeviceFallbackEmbedder(build EmbedderBuilder, initialDevice string) (Embedder, error) {
	e, err := build(initialDevice)
	if err != nil {
		return nil, fmt.Errorf("retriever: build embedder on %s: %w", initialDevice, err)
	}
	return &deviceFallbackEmbedder{build: build, current: e}, nil
}

func (d *deviceFallbackEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	d.mu.Lock()
	current := d.current
	d.mu.Unlock()

	vectors, err := current.Embed(ctx, texts)
	if err == nil || !errors.Is(err, ErrAcceleratorFailure) {
		return vectors, err
	}

	d.mu.Lock()
	if d.fellBack {
		// Already rebuilt once for a prior call; a second accelerator
		// failure propagates rather than looping.
		rebuilt := d.current
		d.mu.Unlock()
		return rebuilt.Embed(ctx, texts)
	}
	cpuEmbedder, buildErr := d.build("cpu")
	if buildErr != nil {
		d.buildError = fmt.Errorf("retriever: rebuild embedder on cpu: %w", buildErr)
		d.mu.Unlock()
		return nil, d.buildError
	}
	d.current = cpuEmbedder
	d.fellBack = true
	d.mu.Unlock()

	return cpuEmbedder.Embed(ctx, texts)
}
