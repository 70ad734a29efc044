// Package discover maintains a short-lived cache of printers that are both
// registered with the printing subsystem and physically attached.
package discover

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ibp/labeld/internal/cups"
	"github.com/ibp/labeld/internal/usb"
)

type Cache struct {
	client    cups.Client
	devices   usb.Enumerator
	preferred string
	ttl       time.Duration

	mu          sync.Mutex
	targets     []cups.Printer
	refreshedAt time.Time
	invalid     bool
}

func NewCache(client cups.Client, devices usb.Enumerator, preferred string, ttl time.Duration) *Cache {
	return &Cache{
		client:    client,
		devices:   devices,
		preferred: preferred,
		ttl:       ttl,
		invalid:   true,
	}
}

// Targets returns the current eligible printers. It never fails: an
// unreachable subsystem yields an empty list. Within the TTL window the
// cached snapshot is returned unchanged. The returned slice is read-only.
func (c *Cache) Targets(ctx context.Context) []cups.Printer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.invalid && time.Since(c.refreshedAt) < c.ttl {
		return c.targets
	}

	c.targets = c.discover(ctx)
	c.refreshedAt = time.Now()
	c.invalid = false

	return c.targets
}

// Invalidate marks the snapshot stale so the next Targets call re-queries
// the subsystem regardless of remaining TTL. Called after any print failure.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.invalid = true
	c.mu.Unlock()
}

func (c *Cache) discover(ctx context.Context) []cups.Printer {
	registered, err := c.client.Printers(ctx)
	if err != nil {
		slog.Error("failed to list printers", "error", err)
		return nil
	}

	if c.preferred != "" {
		for _, p := range registered {
			if p.Name == c.preferred {
				return []cups.Printer{p}
			}
		}
		slog.Warn("preferred printer not registered", "printer", c.preferred)
		return nil
	}

	attached, err := c.devices.Attached()
	if err != nil {
		slog.Error("failed to enumerate attached devices", "error", err)
		return nil
	}

	var targets []cups.Printer
	for _, p := range registered {
		m := matcherFor(p)
		if m == nil {
			slog.Debug("printer has no usable connection identifier", "printer", p.Name)
			continue
		}
		for _, dev := range attached {
			if m.matches(dev) {
				targets = append(targets, p)
				break
			}
		}
	}

	return targets
}
