package chart

import (
	"fmt"
	"sync"

	"github.com/StudioSol/set"
	"github.com/google/uuid"
	"github.com/raykavin/chartdeck/core"
	"github.com/raykavin/chartdeck/indicator"
	"github.com/raykavin/chartdeck/logger"
)

// InstanceStatus is a read-only snapshot of one registered indicator
type InstanceStatus struct {
	ID      string
	Name    string
	Kind    core.IndicatorKind
	Pane    int
	Visible bool
	Last    map[string]float64
}

// Registry owns every indicator instance of one chart session
//
// Instances are kept in insertion order and ids are never reused. The
// registry drives the full instance lifecycle against the bound surface;
// callers above it only issue commands. Selection rules such as limiting
// oscillators belong to the session layer, not here
type Registry struct {
	mu        sync.Mutex
	surface   Surface
	allocator *PaneAllocator
	order     *set.LinkedHashSetString
	instances map[string]*Instance
	df        *core.Dataframe
	log       logger.Logger
}

// RegistryOption configures a registry on construction
type RegistryOption func(*Registry)

// WithSurface binds the rendering surface at construction time
func WithSurface(surface Surface) RegistryOption {
	return func(r *Registry) {
		r.surface = surface
	}
}

// NewRegistry creates an empty registry
// Without a surface option, instances stay inert until BindSurface
func NewRegistry(log logger.Logger, opts ...RegistryOption) *Registry {
	registry := &Registry{
		order:     set.NewLinkedHashSetString(),
		instances: make(map[string]*Instance),
		log:       log,
	}

	for _, opt := range opts {
		opt(registry)
	}

	if registry.surface != nil {
		registry.allocator = NewPaneAllocator(registry.surface, log)
	}

	return registry
}

// BindSurface attaches the rendering surface and initializes every pending
// instance in insertion order. Rebinding is logged and ignored
func (r *Registry) BindSurface(surface Surface) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.surface != nil {
		r.log.Warn("chart: surface already bound, ignoring rebind")
		return
	}

	r.surface = surface
	r.allocator = NewPaneAllocator(surface, r.log)

	for id := range r.order.Iter() {
		r.initialize(r.instances[id])
	}
}

// Add registers an indicator from a config and returns its fresh id
//
// Missing config fields are resolved first: parameters against the kind
// defaults, the display name against the calculator, the color against the
// kind palette. With a surface bound the instance is initialized, assigned
// a pane, given its series and fed the current candle history immediately
func (r *Registry) Add(config core.IndicatorConfig) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	config.Parameters = config.Parameters.Merge(core.DefaultParameters(config.Kind))

	calc, err := indicator.New(config.Kind, config.Parameters)
	if err != nil {
		return nil, fmt.Errorf("chart: add indicator: %w", err)
	}

	if config.Name == "" {
		config.Name = calc.Name()
	}
	if config.Color == "" {
		config.Color = defaultLineColors[config.Kind][0]
	}

	id := uuid.NewString()
	instance := NewInstance(id, config, calc, r.log)

	r.order.Add(id)
	r.instances[id] = instance

	if r.surface != nil {
		r.initialize(instance)
	}

	r.log.Infof("chart: added %s on pane %d", instance.Name(), instance.Pane())
	return instance, nil
}

// Remove destroys an instance and forgets it
// The pane it occupied stays realized for the next indicator
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	instance, ok := r.instances[id]
	if !ok {
		return fmt.Errorf("chart: remove %q: %w", id, core.ErrIndicatorNotFound)
	}

	instance.Destroy()
	if r.allocator != nil {
		r.allocator.Release(id)
	}

	r.order.Remove(id)
	delete(r.instances, id)

	r.log.Infof("chart: removed %s", instance.Name())
	return nil
}

// SetVisibility shows or hides an instance without touching its series set
func (r *Registry) SetVisibility(id string, visible bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	instance, ok := r.instances[id]
	if !ok {
		return fmt.Errorf("chart: set visibility %q: %w", id, core.ErrIndicatorNotFound)
	}

	instance.SetVisibility(visible)
	return nil
}

// UpdateParameters edits an instance's parameters in place
//
// Unspecified parameters keep their current values. The instance keeps its
// id, pane and series; values are recomputed and re-pushed from the last
// known candle history
func (r *Registry) UpdateParameters(id string, params core.Parameters) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	instance, ok := r.instances[id]
	if !ok {
		return fmt.Errorf("chart: update %q: %w", id, core.ErrIndicatorNotFound)
	}

	config := instance.Config()
	autoNamed := config.Name == instance.calc.Name()

	config.Parameters = params.Merge(config.Parameters)

	calc, err := indicator.New(config.Kind, config.Parameters)
	if err != nil {
		return fmt.Errorf("chart: update %q: %w", id, err)
	}

	if autoNamed {
		config.Name = calc.Name()
	}

	instance.setCalculator(calc, config)

	if r.df != nil {
		instance.UpdateData(r.df)
	}

	r.log.Infof("chart: updated %s", instance.Name())
	return nil
}

// UpdateData replaces the candle history and broadcasts it to every
// instance in insertion order
//
// The broadcast recomputes each indicator from scratch, so delivering the
// same history twice is idempotent
func (r *Registry) UpdateData(candles []core.Candle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pair := ""
	if len(candles) > 0 {
		pair = candles[0].Pair
	}
	r.df = core.DataframeFromCandles(pair, candles)

	for id := range r.order.Iter() {
		r.instances[id].UpdateData(r.df)
	}
}

// Get returns an instance by id
func (r *Registry) Get(id string) (*Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	instance, ok := r.instances[id]
	return instance, ok
}

// List returns the live instances in insertion order
func (r *Registry) List() []*Instance {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Instance, 0, len(r.instances))
	for id := range r.order.Iter() {
		out = append(out, r.instances[id])
	}
	return out
}

// Len returns the number of live instances
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.instances)
}

// Status snapshots every live instance in insertion order
func (r *Registry) Status() []InstanceStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]InstanceStatus, 0, len(r.instances))
	for id := range r.order.Iter() {
		instance := r.instances[id]
		out = append(out, InstanceStatus{
			ID:      instance.ID(),
			Name:    instance.Name(),
			Kind:    instance.Kind(),
			Pane:    instance.Pane(),
			Visible: instance.Visible(),
			Last:    instance.LastValues(),
		})
	}
	return out
}

// Close destroys every instance
// The registry is unusable afterwards except for read accessors
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id := range r.order.Iter() {
		r.instances[id].Destroy()
	}

	r.order = set.NewLinkedHashSetString()
	r.instances = make(map[string]*Instance)
}

// initialize drives a fresh instance to its active state under the lock
func (r *Registry) initialize(instance *Instance) {
	instance.Initialize(r.surface)

	pane, ok := r.allocator.Assign(instance.ID(), instance.Kind())
	if !ok {
		r.log.Errorf("chart: no pane for %s, leaving it without series", instance.Name())
		return
	}

	if handle := instance.CreateSeries(pane); handle == nil {
		r.log.Warnf("chart: %s has no primary series", instance.Name())
	}

	if r.df != nil {
		instance.UpdateData(r.df)
	}
}
