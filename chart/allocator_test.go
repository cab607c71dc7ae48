package chart

import (
	"testing"

	"github.com/raykavin/chartdeck/core"

	"github.com/stretchr/testify/require"
)

func TestPaneAllocator_AssignOverlay(t *testing.T) {
	surface := NewHeadlessSurface()
	allocator := NewPaneAllocator(surface, testLogger())

	pane, ok := allocator.Assign("id-1", core.KindSMA)
	require.True(t, ok)
	require.Equal(t, 0, pane)
	require.Equal(t, 1, surface.PaneCount())

	pane, ok = allocator.Assign("id-2", core.KindBollinger)
	require.True(t, ok)
	require.Equal(t, 0, pane)
	require.Equal(t, 1, surface.PaneCount())
}

func TestPaneAllocator_AssignOscillator(t *testing.T) {
	surface := NewHeadlessSurface()
	allocator := NewPaneAllocator(surface, testLogger())

	pane, ok := allocator.Assign("id-1", core.KindRSI)
	require.True(t, ok)
	require.Equal(t, 1, pane)

	pane, ok = allocator.Assign("id-2", core.KindMACD)
	require.True(t, ok)
	require.Equal(t, 2, pane)

	require.Equal(t, 3, surface.PaneCount())
	require.Equal(t, []int{0, 1, 2}, allocator.Panes())

	heights := surface.PaneHeights()
	require.Equal(t, DefaultPaneHeightRatio, heights[1])
	require.Equal(t, DefaultPaneHeightRatio, heights[2])
}

func TestPaneAllocator_ReleaseReusesPane(t *testing.T) {
	surface := NewHeadlessSurface()
	allocator := NewPaneAllocator(surface, testLogger())

	allocator.Assign("id-1", core.KindRSI)
	allocator.Assign("id-2", core.KindMACD)
	allocator.Release("id-1")

	// Panes are never torn down, the slot is only freed for reuse.
	require.Equal(t, 3, surface.PaneCount())
	require.Equal(t, []int{0, 1, 2}, allocator.Panes())

	pane, ok := allocator.Assign("id-3", core.KindStochastic)
	require.True(t, ok)
	require.Equal(t, 1, pane)
	require.Equal(t, 3, surface.PaneCount())
}

func TestPaneAllocator_EnsurePane(t *testing.T) {
	surface := NewHeadlessSurface()
	allocator := NewPaneAllocator(surface, testLogger())

	require.True(t, allocator.EnsurePane(0))
	require.Equal(t, 1, surface.PaneCount())

	require.True(t, allocator.EnsurePane(3))
	require.Equal(t, 4, surface.PaneCount())
	require.Equal(t, []int{0, 1, 2, 3}, allocator.Panes())

	require.False(t, allocator.EnsurePane(-1))
}

func TestPaneAllocator_SurfaceRefusal(t *testing.T) {
	surface := NewHeadlessSurface()
	surface.RefusePanes = true
	allocator := NewPaneAllocator(surface, testLogger())

	_, ok := allocator.Assign("id-1", core.KindRSI)
	require.False(t, ok)
	require.Equal(t, 1, surface.PaneCount())

	pane, ok := allocator.Assign("id-2", core.KindEMA)
	require.True(t, ok)
	require.Equal(t, 0, pane)
}

func TestPaneAllocator_PaneOf(t *testing.T) {
	surface := NewHeadlessSurface()
	allocator := NewPaneAllocator(surface, testLogger())

	allocator.Assign("id-1", core.KindATR)

	pane, ok := allocator.PaneOf("id-1")
	require.True(t, ok)
	require.Equal(t, 1, pane)

	_, ok = allocator.PaneOf("missing")
	require.False(t, ok)
}
