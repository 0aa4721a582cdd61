package dirty

import (
	"image"
	"math/rand"
	"reflect"
	"testing"
)

// =============================================================================
// Helpers
// =============================================================================

// cellsOf expands rectangles into the set of cells they cover.
func cellsOf(rs []image.Rectangle) map[image.Point]bool {
	out := map[image.Point]bool{}
	for _, r := range rs {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				out[image.Pt(x, y)] = true
			}
		}
	}
	return out
}

func dirtyCells(tr *Tracker) map[image.Point]bool {
	out := map[image.Point]bool{}
	tr.ForEachDirty(func(p image.Point) { out[p] = true })
	return out
}

// =============================================================================
// Basic invalidation
// =============================================================================

func TestTracker_New(t *testing.T) {
	tests := []struct {
		name       string
		cols, rows int
		want       image.Point
	}{
		{"terminal", 80, 24, image.Pt(80, 24)},
		{"single", 1, 1, image.Pt(1, 1)},
		{"zero", 0, 0, image.Pt(0, 0)},
		{"negative", -3, 5, image.Pt(0, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(tt.cols, tt.rows)
			if tr.Size() != tt.want {
				t.Errorf("Size() = %v, want %v", tr.Size(), tt.want)
			}
			if !tr.IsEmpty() || tr.AllInvalid() {
				t.Error("new tracker should be clean")
			}
		})
	}
}

func TestTracker_InvalidateCellRuns(t *testing.T) {
	tr := New(80, 24)
	tr.InvalidateCell(image.Pt(5, 5))

	got := tr.Runs()
	want := []image.Rectangle{image.Rect(5, 5, 6, 6)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Runs() = %v, want %v", got, want)
	}

	tr.Reset()
	if runs := tr.Runs(); len(runs) != 0 {
		t.Errorf("Runs() after Reset = %v, want empty", runs)
	}
}

func TestTracker_InvalidateRectClips(t *testing.T) {
	tr := New(10, 5)
	tr.InvalidateRect(image.Rect(8, 3, 20, 20))

	want := []image.Rectangle{image.Rect(8, 3, 10, 5)}
	if got := tr.Runs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Runs() = %v, want %v", got, want)
	}

	tr.Reset()
	tr.InvalidateRect(image.Rect(-5, -5, -1, -1))
	if !tr.IsEmpty() {
		t.Error("rectangle outside the grid should not mark anything")
	}
}

func TestTracker_RowExpansion(t *testing.T) {
	tr := New(10, 4)
	tr.SetRowExpansion(true)
	tr.InvalidateCell(image.Pt(3, 1))

	want := []image.Rectangle{image.Rect(0, 1, 10, 2)}
	if got := tr.Runs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Runs() = %v, want %v", got, want)
	}
}

func TestTracker_RunsMergeVertically(t *testing.T) {
	tr := New(10, 6)
	tr.InvalidateRect(image.Rect(2, 1, 5, 4))
	tr.InvalidateRect(image.Rect(7, 2, 9, 3))

	want := []image.Rectangle{
		image.Rect(2, 1, 5, 4),
		image.Rect(7, 2, 9, 3),
	}
	if got := tr.Runs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Runs() = %v, want %v", got, want)
	}
}

// TestTracker_RunsUnionMatchesInvalidated checks that Runs covers exactly the
// invalidated cells for random rectangle sequences.
func TestTracker_RunsUnionMatchesInvalidated(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 50; iter++ {
		tr := New(40, 20)
		var rects []image.Rectangle
		for i := 0; i < 1+rng.Intn(8); i++ {
			x, y := rng.Intn(40), rng.Intn(20)
			r := image.Rect(x, y, x+1+rng.Intn(10), y+1+rng.Intn(6))
			rects = append(rects, r)
			tr.InvalidateRect(r)
		}

		want := cellsOf(clipAll(rects, tr.Bounds()))
		runs := tr.Runs()
		got := cellsOf(runs)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("iteration %d: union of runs differs from invalidated cells", iter)
		}
		for i := range runs {
			for j := i + 1; j < len(runs); j++ {
				if runs[i].Overlaps(runs[j]) {
					t.Fatalf("iteration %d: runs %v and %v overlap", iter, runs[i], runs[j])
				}
			}
		}
	}
}

func clipAll(rs []image.Rectangle, b image.Rectangle) []image.Rectangle {
	out := make([]image.Rectangle, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Intersect(b))
	}
	return out
}

// =============================================================================
// All-invalid state
// =============================================================================

func TestTracker_InvalidateAll(t *testing.T) {
	tr := New(7, 3)
	tr.InvalidateAll()

	if !tr.AllInvalid() {
		t.Error("AllInvalid() = false after InvalidateAll")
	}
	if tr.Count() != 21 {
		t.Errorf("Count() = %d, want 21", tr.Count())
	}
	want := []image.Rectangle{image.Rect(0, 0, 7, 3)}
	if got := tr.Runs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Runs() = %v, want %v", got, want)
	}
}

func TestTracker_FullRowsPromoteToAllInvalid(t *testing.T) {
	tr := New(5, 3)
	tr.InvalidateRect(image.Rect(0, 0, 5, 2))
	if tr.AllInvalid() {
		t.Fatal("two of three rows should not be all-invalid")
	}
	tr.InvalidateRect(image.Rect(0, 2, 5, 3))
	if !tr.AllInvalid() {
		t.Error("every row invalidated should set AllInvalid")
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := New(10, 10)
	tr.InvalidateRect(image.Rect(1, 1, 4, 4))
	tr.InvalidateScroll(image.Pt(0, -2))
	tr.InvalidateAll()
	tr.Reset()

	if !tr.IsEmpty() {
		t.Error("IsEmpty() = false after Reset")
	}
	if tr.ScrollDelta() != (image.Point{}) {
		t.Errorf("ScrollDelta() = %v after Reset, want zero", tr.ScrollDelta())
	}
	if tr.AllInvalid() {
		t.Error("AllInvalid() = true after Reset")
	}
}

func TestTracker_ResizeInvalidatesAll(t *testing.T) {
	tr := New(10, 10)
	tr.Resize(20, 5)
	if tr.Size() != image.Pt(20, 5) {
		t.Errorf("Size() = %v", tr.Size())
	}
	if !tr.AllInvalid() || tr.Count() != 100 {
		t.Errorf("resize should mark all cells, got count %d", tr.Count())
	}
}

// =============================================================================
// Scroll
// =============================================================================

func TestTracker_ScrollMovesDirtyBits(t *testing.T) {
	tr := New(10, 10)
	tr.InvalidateCell(image.Pt(4, 5))
	tr.InvalidateScroll(image.Pt(0, -2))

	if !tr.IsDirty(image.Pt(4, 3)) {
		t.Error("dirty cell should move with the content")
	}
	if tr.IsDirty(image.Pt(4, 5)) {
		t.Error("old position should be clean after the move")
	}
	for y := 8; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if !tr.IsDirty(image.Pt(x, y)) {
				t.Fatalf("revealed cell (%d,%d) should be dirty", x, y)
			}
		}
	}
	if tr.ScrollDelta() != image.Pt(0, -2) {
		t.Errorf("ScrollDelta() = %v, want (0,-2)", tr.ScrollDelta())
	}
}

func TestTracker_ScrollZeroIsNoop(t *testing.T) {
	tr := New(10, 10)
	tr.InvalidateScroll(image.Point{})
	if !tr.IsEmpty() || tr.ScrollDelta() != (image.Point{}) {
		t.Error("zero scroll should not change state")
	}
}

func TestTracker_ScrollAccumulates(t *testing.T) {
	tr := New(10, 10)
	tr.InvalidateScroll(image.Pt(0, -1))
	tr.InvalidateScroll(image.Pt(0, -3))
	if tr.ScrollDelta() != image.Pt(0, -4) {
		t.Errorf("ScrollDelta() = %v, want (0,-4)", tr.ScrollDelta())
	}
	if tr.AllInvalid() {
		t.Error("partial scroll should not be all-invalid")
	}
}

func TestTracker_ScrollPastScreenIsAllInvalid(t *testing.T) {
	tests := []struct {
		name   string
		deltas []image.Point
	}{
		{"single full screen down", []image.Point{{0, 24}}},
		{"single beyond screen up", []image.Point{{0, -30}}},
		{"accumulated", []image.Point{{0, -10}, {0, -14}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(80, 24)
			for _, d := range tt.deltas {
				tr.InvalidateScroll(d)
			}
			if !tr.AllInvalid() {
				t.Fatal("AllInvalid() = false after scrolling a full screen")
			}
			// Sticky until Reset.
			tr.InvalidateScroll(image.Pt(0, 30))
			tr.InvalidateCell(image.Pt(1, 1))
			if !tr.AllInvalid() {
				t.Error("AllInvalid() must stay set until Reset")
			}
		})
	}
}

func TestTracker_ScrollRoundTrip(t *testing.T) {
	tr := New(20, 10)
	d := image.Pt(0, -3)
	tr.InvalidateScroll(d)
	tr.InvalidateScroll(image.Pt(-d.X, -d.Y))

	// The first move reveals rows 7..9, the second moves them to rows 10..12
	// (off grid) and reveals rows 0..2. Everything outside those bands
	// stays clean.
	for y := 3; y < 10; y++ {
		for x := 0; x < 20; x++ {
			if tr.IsDirty(image.Pt(x, y)) {
				t.Fatalf("cell (%d,%d) should be clean after the round trip", x, y)
			}
		}
	}
	if tr.ScrollDelta() != (image.Point{}) {
		t.Errorf("ScrollDelta() = %v, want zero", tr.ScrollDelta())
	}
}

func TestTracker_HorizontalScroll(t *testing.T) {
	tr := New(10, 2)
	tr.InvalidateScroll(image.Pt(3, 0))
	want := map[image.Point]bool{}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			want[image.Pt(x, y)] = true
		}
	}
	if got := dirtyCells(tr); !reflect.DeepEqual(got, want) {
		t.Errorf("dirty cells = %v, want %v", got, want)
	}
}

func TestRevealed(t *testing.T) {
	grid := image.Rect(0, 0, 10, 10)
	tests := []struct {
		delta image.Point
		want  []image.Rectangle
	}{
		{image.Pt(0, 2), []image.Rectangle{image.Rect(0, 0, 10, 2)}},
		{image.Pt(0, -2), []image.Rectangle{image.Rect(0, 8, 10, 10)}},
		{image.Pt(-1, 0), []image.Rectangle{image.Rect(9, 0, 10, 10)}},
		{image.Pt(0, 15), []image.Rectangle{image.Rect(0, 0, 10, 10)}},
	}
	for _, tt := range tests {
		if got := revealed(grid, tt.delta); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("revealed(%v) = %v, want %v", tt.delta, got, tt.want)
		}
	}
}

func BenchmarkTracker_Runs(b *testing.B) {
	tr := New(200, 60)
	for y := 0; y < 60; y += 3 {
		tr.InvalidateRect(image.Rect(10, y, 150, y+2))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tr.Runs()
	}
}
