package dispatch

import (
	"context"
	"fmt"
	"image/png"
	"os"

	"github.com/ibp/labeld/internal/config"
	"github.com/ibp/labeld/internal/cups"
	"github.com/ibp/labeld/internal/discover"
	"github.com/ibp/labeld/internal/render"
)

// Engine performs the full per-job flow: look up the target media size,
// render the label in landscape, rotate for portrait media, write a
// temporary PNG, and dispatch it with failover.
type Engine struct {
	client     cups.Client
	cache      *discover.Cache
	dispatcher *Dispatcher
	dpi        int
}

func NewEngine(client cups.Client, cache *discover.Cache, cfg *config.PrintersConfig) *Engine {
	return &Engine{
		client:     client,
		cache:      cache,
		dispatcher: NewDispatcher(client, cache, cfg.PollPeriod, cfg.PollTimeout),
		dpi:        cfg.DPI,
	}
}

func (e *Engine) PrintLabel(ctx context.Context, label render.Label) error {
	targets := e.cache.Targets(ctx)
	if len(targets) == 0 {
		return ErrNoTargets
	}

	mediaW, mediaH, err := e.client.MediaSize(ctx, targets[0].Name, e.dpi)
	if err != nil {
		e.cache.Invalidate()
		return fmt.Errorf("cannot determine label size for %s: %w", targets[0].Name, err)
	}

	// Always render landscape; rotate afterwards if the media is portrait.
	renderW, renderH := mediaW, mediaH
	if renderW < renderH {
		renderW, renderH = renderH, renderW
	}

	img, err := render.Render(label, renderW, renderH)
	if err != nil {
		return err
	}

	if mediaW < mediaH {
		img = render.Rotate90(img)
	}

	f, err := os.CreateTemp("", "labeld-*.png")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("cannot encode label: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot flush label: %w", err)
	}

	return e.dispatcher.Dispatch(ctx, f.Name())
}
