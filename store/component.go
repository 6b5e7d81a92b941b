package store

import (
	"context"
	"fmt"

	"github.com/kbukum/voicepulse/component"
	"github.com/kbukum/voicepulse/logger"
)

// Component opens the archive on Start and closes it on Stop.
type Component struct {
	cfg   Config
	log   *logger.Logger
	store *Store
}

var _ component.Component = (*Component)(nil)

// NewComponent returns an unopened archive component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	return &Component{cfg: cfg, log: log}
}

// Store returns the open archive, or nil before Start.
func (c *Component) Store() *Store { return c.store }

func (c *Component) Name() string { return "store" }

func (c *Component) Start(ctx context.Context) error {
	s, err := Open(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("store start: %w", err)
	}
	c.store = s
	return nil
}

func (c *Component) Stop(context.Context) error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: c.cfg.Path}
	switch {
	case c.store == nil:
		h.Status = component.StatusUnhealthy
		h.Message = "archive not open"
	case c.store.Ping(ctx) != nil:
		h.Status = component.StatusUnhealthy
		h.Message = "ping failed"
	}
	return h
}
