package chart

import (
	"math"

	"finance-dashboard/models"
)

// OnPointerMove resolves the hovered point for a cursor position. Positions
// outside the plot's horizontal bounds keep the cursor but clear the index.
// A non-finite position is treated as the pointer leaving.
func OnPointerMove(s models.Series, size CanvasSize, showVolume bool, pos Point) HoverState {
	if !finite(pos.X) || !finite(pos.Y) {
		return NoHover()
	}
	cursor := pos
	if len(s) == 0 || size.Empty() {
		return HoverState{Cursor: &cursor, Index: -1}
	}

	l := ComputeLayout(size, showVolume)
	sc := Scale{layout: l, n: len(s)}
	idx, ok := sc.IndexAt(pos.X)
	if !ok {
		return HoverState{Cursor: &cursor, Index: -1}
	}
	return HoverState{Cursor: &cursor, Index: idx}
}

// OnPointerLeave clears hover state
func OnPointerLeave() HoverState {
	return NoHover()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
