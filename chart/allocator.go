package chart

import (
	"github.com/StudioSol/set"
	"github.com/raykavin/chartdeck/core"
	"github.com/raykavin/chartdeck/logger"
)

// PaneAllocator decides which pane each indicator renders on and lazily
// materializes panes on the surface
//
// Pane 0 pre-exists and is shared by all overlays. Every live oscillator
// gets a dedicated non-zero pane; pane indices stay contiguous and panes are
// never deallocated, so removing an indicator leaves its pane in place for
// the next oscillator to reuse
type PaneAllocator struct {
	surface Surface
	panes   *set.LinkedHashSetINT64
	byID    map[string]int
	log     logger.Logger
}

// NewPaneAllocator creates an allocator bound to a surface
func NewPaneAllocator(surface Surface, log logger.Logger) *PaneAllocator {
	panes := set.NewLinkedHashSetINT64()
	panes.Add(0)

	return &PaneAllocator{
		surface: surface,
		panes:   panes,
		byID:    make(map[string]int),
		log:     log,
	}
}

// EnsurePane materializes panes up to and including the given index
// Returns false when the surface refuses to create a pane; already realized
// indices always succeed
func (a *PaneAllocator) EnsurePane(index int) bool {
	if index < 0 {
		return false
	}

	for next := a.panes.Length(); next <= index; next++ {
		created, err := a.surface.CreatePane(DefaultPaneHeightRatio)
		if err != nil {
			a.log.WithError(err).Errorf("chart: failed to create pane %d", next)
			return false
		}
		if created != next {
			a.log.Warnf("chart: surface created pane %d, expected %d", created, next)
		}
		a.panes.Add(int64(created))
	}

	return true
}

// Assign picks the pane for an indicator and materializes it
// Overlays share pane 0. Oscillators get the lowest non-zero pane not held
// by another live indicator, creating a new one when every realized pane is
// occupied
func (a *PaneAllocator) Assign(id string, kind core.IndicatorKind) (int, bool) {
	if kind.Overlay() {
		a.byID[id] = 0
		return 0, true
	}

	pane := a.nextOscillatorPane()
	if !a.EnsurePane(pane) {
		return 0, false
	}

	a.byID[id] = pane
	return pane, true
}

// Release forgets an indicator's assignment; its pane stays realized
func (a *PaneAllocator) Release(id string) {
	delete(a.byID, id)
}

// PaneOf returns the pane currently assigned to an indicator
func (a *PaneAllocator) PaneOf(id string) (int, bool) {
	pane, ok := a.byID[id]
	return pane, ok
}

// Panes returns the realized pane indices in creation order, which is
// ascending because panes are only ever created contiguously
func (a *PaneAllocator) Panes() []int {
	out := make([]int, 0, a.panes.Length())
	for pane := range a.panes.Iter() {
		out = append(out, int(pane))
	}
	return out
}

// nextOscillatorPane returns the lowest free non-zero pane index
func (a *PaneAllocator) nextOscillatorPane() int {
	taken := make(map[int]bool, len(a.byID))
	for _, pane := range a.byID {
		taken[pane] = true
	}

	for pane := 1; ; pane++ {
		if !taken[pane] {
			return pane
		}
	}
}
