package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/voicepulse/component"
	"github.com/kbukum/voicepulse/errors"
	"github.com/kbukum/voicepulse/logger"
	"github.com/kbukum/voicepulse/tone"
)

// Registry owns the pipelines of all live sessions. It is a
// component.Component so that stopping the application closes every
// session.
type Registry struct {
	cfg  PipelineConfig
	eval tone.Evaluator
	base []Option
	opts options
	log  *logger.Logger

	mu        sync.RWMutex
	pipelines map[string]*Pipeline
}

var _ component.Component = (*Registry)(nil)

// NewRegistry creates a registry whose pipelines share cfg, eval and opts.
func NewRegistry(cfg PipelineConfig, eval tone.Evaluator, opts ...Option) *Registry {
	o := newOptions(opts)
	return &Registry{
		cfg:       cfg,
		eval:      eval,
		base:      opts,
		opts:      o,
		log:       o.log.WithComponent("sessions"),
		pipelines: make(map[string]*Pipeline),
	}
}

// Create starts a new session. An empty id is replaced with a random UUID.
// Per-session options are applied after the registry's.
func (r *Registry) Create(ctx context.Context, id string, opts ...Option) (*Pipeline, error) {
	if id == "" {
		id = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.pipelines[id]; exists {
		return nil, errors.SessionExists(id)
	}
	all := make([]Option, 0, len(r.base)+len(opts)+1)
	all = append(all, r.base...)
	all = append(all, opts...)
	all = append(all, WithSessionID(id))

	p := NewPipeline(r.cfg, r.eval, all...)
	r.pipelines[id] = p
	if r.opts.metrics != nil {
		r.opts.metrics.SessionOpened(ctx)
	}
	r.log.Info("session created", logger.Fields(logger.FieldSessionID, id))
	return p, nil
}

// Get returns the pipeline of a live session.
func (r *Registry) Get(id string) (*Pipeline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pipelines[id]
	if !ok {
		return nil, errors.SessionNotFound(id)
	}
	return p, nil
}

// GetOrCreate returns the session's pipeline, creating it when missing.
func (r *Registry) GetOrCreate(ctx context.Context, id string) (*Pipeline, error) {
	if p, err := r.Get(id); err == nil {
		return p, nil
	}
	p, err := r.Create(ctx, id)
	if errors.HasCode(err, errors.ErrCodeSessionExists) {
		return r.Get(id)
	}
	return p, err
}

// Remove closes a session and forgets it.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	p, ok := r.pipelines[id]
	delete(r.pipelines, id)
	r.mu.Unlock()
	if !ok {
		return errors.SessionNotFound(id)
	}
	if r.opts.metrics != nil {
		r.opts.metrics.SessionClosed(ctx)
	}
	r.log.Info("session removed", logger.Fields(logger.FieldSessionID, id))
	return p.Close(ctx)
}

// IDs returns the live session ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.pipelines))
	for id := range r.pipelines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pipelines)
}

// Name implements component.Component.
func (r *Registry) Name() string { return "sessions" }

// Start implements component.Component.
func (r *Registry) Start(context.Context) error { return nil }

// Stop closes every session.
func (r *Registry) Stop(ctx context.Context) error {
	var errs []error
	for _, id := range r.IDs() {
		if err := r.Remove(ctx, id); err != nil && !errors.HasCode(err, errors.ErrCodeSessionNotFound) {
			errs = append(errs, fmt.Errorf("close %s: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close sessions: %v", errs)
	}
	return nil
}

// Health implements component.Component.
func (r *Registry) Health(context.Context) component.Health {
	return component.Health{
		Name:    r.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d active sessions", r.Len()),
	}
}
