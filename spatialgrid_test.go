package feather2d

import (
	"math"
	"testing"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func TestWorldToCell(t *testing.T) {
	grid := NewSpatialGrid(1.0, 1024)

	tests := []struct {
		name     string
		position mgl64.Vec2
		expected CellKey
	}{
		{"origin", mgl64.Vec2{0, 0}, CellKey{0, 0}},
		{"positive", mgl64.Vec2{1.5, 2.3}, CellKey{1, 2}},
		{"negative", mgl64.Vec2{-1.5, -2.3}, CellKey{-2, -3}},
		{"fractional", mgl64.Vec2{0.5, 0.5}, CellKey{0, 0}},
		{"large", mgl64.Vec2{100.7, -200.3}, CellKey{100, -201}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := grid.worldToCell(tt.position)
			if result != tt.expected {
				t.Errorf("worldToCell(%v) = %v, want %v", tt.position, result, tt.expected)
			}
		})
	}
}

func TestWorldToCell_CellSize(t *testing.T) {
	grid := NewSpatialGrid(2.0, 1024)

	if got := grid.worldToCell(mgl64.Vec2{3.9, -0.5}); got != (CellKey{1, -1}) {
		t.Errorf("worldToCell() = %v, want %v", got, CellKey{1, -1})
	}
}

func TestHashCell(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16) // 16 cells, mask = 15

	tests := []struct {
		name     string
		key      CellKey
		expected int
	}{
		{"origin", CellKey{0, 0}, 0},
		{"x", CellKey{1, 0}, 13},
		{"y", CellKey{0, 1}, 15},
		{"xy", CellKey{1, 1}, 2},
		{"negative", CellKey{-1, -1}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := grid.hashCell(tt.key)
			if result != tt.expected {
				t.Errorf("hashCell(%v) = %d, want %d", tt.key, result, tt.expected)
			}
			if result < 0 || result >= len(grid.cells) {
				t.Errorf("hashCell(%v) = %d, out of [0, %d)", tt.key, result, len(grid.cells))
			}
		})
	}
}

func TestHashCellDistribution(t *testing.T) {
	grid := NewSpatialGrid(1.0, 1024)
	used := make(map[int]int)

	for x := -16; x < 16; x++ {
		for y := -16; y < 16; y++ {
			used[grid.hashCell(CellKey{x, y})]++
		}
	}

	// 1024 keys spread on 1024 buckets should touch a good share of them
	if len(used) < 400 {
		t.Errorf("only %d distinct buckets used for 1024 keys", len(used))
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct {
		n, expected int
	}{
		{-3, 1}, {0, 1}, {1, 1}, {2, 2}, {3, 4}, {17, 32}, {4096, 4096}, {4097, 8192},
	}

	for _, tt := range tests {
		if got := nextPowerOfTwo(tt.n); got != tt.expected {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", tt.n, got, tt.expected)
		}
	}
}

func TestNewSpatialGrid_Defaults(t *testing.T) {
	grid := NewSpatialGrid(0, 100)

	if grid.cellSize != DefaultCellSize {
		t.Errorf("cellSize = %v, want %v", grid.cellSize, DefaultCellSize)
	}
	if len(grid.cells) != 128 {
		t.Errorf("len(cells) = %d, want 128", len(grid.cells))
	}
	if grid.cellMask != 127 {
		t.Errorf("cellMask = %d, want 127", grid.cellMask)
	}
}

// =============================================================================
// Proxy Tests
// =============================================================================

func createTestBox(t *testing.T, position mgl64.Vec2, width, height float64) *actor.Body {
	t.Helper()
	return newTestBody(t, box(t, width, height), position, actor.MassNormal)
}

func TestInsertSingleBody(t *testing.T) {
	grid := NewSpatialGrid(1.0, 1024)
	body := createTestBox(t, mgl64.Vec2{0.5, 0.5}, 0.5, 0.5)

	grid.AddBody(body)
	grid.rebuild()

	if grid.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", grid.Len())
	}
	cellIdx := grid.hashCell(CellKey{0, 0})
	if len(grid.cells[cellIdx].proxyIndices) != 1 {
		t.Errorf("cell (0,0) holds %d proxies, want 1", len(grid.cells[cellIdx].proxyIndices))
	}
}

func TestInsertSpanningBody(t *testing.T) {
	grid := NewSpatialGrid(1.0, 1024)
	// from (-0.5,-0.5) to (1.5,0.5): cells x in [-1,1], y in [-1,0]
	body := createTestBox(t, mgl64.Vec2{0.5, 0}, 2, 1)

	grid.AddBody(body)
	grid.rebuild()

	for x := -1; x <= 1; x++ {
		for y := -1; y <= 0; y++ {
			cellIdx := grid.hashCell(CellKey{x, y})
			if len(grid.cells[cellIdx].proxyIndices) == 0 {
				t.Errorf("cell (%d,%d) is empty, want the body", x, y)
			}
		}
	}
}

func TestAdd_KnownFixtureUpdates(t *testing.T) {
	grid := NewSpatialGrid(1.0, 1024)
	body := createTestBox(t, mgl64.Vec2{0, 0}, 1, 1)

	grid.AddBody(body)
	body.Translate(mgl64.Vec2{10, 0})
	grid.UpdateBody(body)

	if grid.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", grid.Len())
	}
	if got := grid.DetectAABB(actor.AABB{Min: mgl64.Vec2{9, -1}, Max: mgl64.Vec2{11, 1}}); len(got) != 1 {
		t.Errorf("DetectAABB() at the new position found %d fixtures, want 1", len(got))
	}
	if got := grid.DetectAABB(actor.AABB{Min: mgl64.Vec2{-1, -1}, Max: mgl64.Vec2{1, 1}}); len(got) != 0 {
		t.Errorf("DetectAABB() at the old position found %d fixtures, want 0", len(got))
	}
}

func TestRemove(t *testing.T) {
	grid := NewSpatialGrid(1.0, 1024)
	bodies := []*actor.Body{
		createTestBox(t, mgl64.Vec2{0, 0}, 1, 1),
		createTestBox(t, mgl64.Vec2{5, 0}, 1, 1),
		createTestBox(t, mgl64.Vec2{10, 0}, 1, 1),
	}
	for _, body := range bodies {
		grid.AddBody(body)
	}

	if !grid.Remove(bodies[0].Fixtures()[0]) {
		t.Fatal("Remove() = false, want true")
	}
	if grid.Remove(bodies[0].Fixtures()[0]) {
		t.Error("second Remove() = true, want false")
	}
	if grid.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", grid.Len())
	}
	// indices after the removed proxy are shifted
	if i := grid.index[bodies[2].Fixtures()[0]]; i != 1 {
		t.Errorf("index of the last fixture = %d, want 1", i)
	}

	got := grid.DetectAABB(actor.AABB{Min: mgl64.Vec2{9, -1}, Max: mgl64.Vec2{11, 1}})
	if len(got) != 1 || got[0] != bodies[2].Fixtures()[0] {
		t.Errorf("DetectAABB() = %v, want the last fixture", got)
	}
}

func TestClear(t *testing.T) {
	grid := NewSpatialGrid(1.0, 1024)
	for i := 0; i < 10; i++ {
		grid.AddBody(createTestBox(t, mgl64.Vec2{float64(i), 0}, 1, 1))
	}
	grid.Detect()

	grid.Clear()

	if grid.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", grid.Len())
	}
	for i, cell := range grid.cells {
		if len(cell.proxyIndices) != 0 {
			t.Fatalf("cell %d not empty after Clear", i)
		}
	}
	if pairs := grid.Detect(); len(pairs) != 0 {
		t.Errorf("Detect() after Clear = %d pairs, want 0", len(pairs))
	}
}

func TestSortCells(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)
	cellIdx := grid.hashCell(CellKey{0, 0})
	grid.cells[cellIdx].proxyIndices = []int{5, 2, 8, 1}

	grid.sortCells()

	expected := []int{1, 2, 5, 8}
	for i, v := range grid.cells[cellIdx].proxyIndices {
		if v != expected[i] {
			t.Errorf("proxyIndices[%d] = %d, want %d", i, v, expected[i])
		}
	}
}

// =============================================================================
// Detect Tests
// =============================================================================

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		positions []mgl64.Vec2
		expected  int
	}{
		{"no bodies", nil, 0},
		{"apart", []mgl64.Vec2{{0, 0}, {5, 5}}, 0},
		{"overlapping", []mgl64.Vec2{{0, 0}, {0.5, 0}}, 1},
		{"overlapping corners", []mgl64.Vec2{{0, 0}, {0.9, 0.9}}, 1},
		{"chain of three", []mgl64.Vec2{{0, 0}, {0.8, 0}, {1.6, 0}}, 2},
		{"cluster of three", []mgl64.Vec2{{0, 0}, {0.2, 0}, {0, 0.2}}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := NewSpatialGrid(1.0, 1024)
			for _, p := range tt.positions {
				grid.AddBody(createTestBox(t, p, 1, 1))
			}

			pairs := grid.Detect()
			if len(pairs) != tt.expected {
				t.Errorf("Detect() = %d pairs, want %d", len(pairs), tt.expected)
			}
		})
	}
}

func TestDetect_SameBodyFixtures(t *testing.T) {
	grid := NewSpatialGrid(1.0, 1024)
	body := createTestBox(t, mgl64.Vec2{0, 0}, 1, 1)
	if _, err := body.AddShape(ball(t, 0.5)); err != nil {
		t.Fatal(err)
	}

	grid.AddBody(body)

	if pairs := grid.Detect(); len(pairs) != 0 {
		t.Errorf("Detect() = %d pairs between fixtures of one body, want 0", len(pairs))
	}
}

func TestDetect_PairOrder(t *testing.T) {
	grid := NewSpatialGrid(1.0, 1024)
	first := createTestBox(t, mgl64.Vec2{0, 0}, 1, 1)
	second := createTestBox(t, mgl64.Vec2{0.5, 0}, 1, 1)
	grid.AddBody(first)
	grid.AddBody(second)

	pairs := grid.Detect()
	if len(pairs) != 1 {
		t.Fatalf("Detect() = %d pairs, want 1", len(pairs))
	}
	if pairs[0].FixtureA != first.Fixtures()[0] || pairs[0].FixtureB != second.Fixtures()[0] {
		t.Error("pair should follow insertion order")
	}
}

func TestDetect_LargeBodySpanningManyCells(t *testing.T) {
	grid := NewSpatialGrid(1.0, 1024)
	ground := newTestBody(t, box(t, 200, 1), mgl64.Vec2{0, -0.5}, actor.MassInfinite)
	grid.AddBody(ground)

	var boxes []*actor.Body
	for i := 0; i < 5; i++ {
		b := createTestBox(t, mgl64.Vec2{float64(i*20 - 40), 0.4}, 1, 1)
		boxes = append(boxes, b)
		grid.AddBody(b)
	}

	pairs := grid.Detect()
	if len(pairs) != len(boxes) {
		t.Errorf("Detect() = %d pairs, want %d", len(pairs), len(boxes))
	}
	if len(grid.oversized) != 1 {
		t.Errorf("len(oversized) = %d, want 1", len(grid.oversized))
	}
}

func TestDetect_AfterShift(t *testing.T) {
	grid := NewSpatialGrid(1.0, 1024)
	a := createTestBox(t, mgl64.Vec2{0, 0}, 1, 1)
	b := createTestBox(t, mgl64.Vec2{0.5, 0}, 1, 1)
	grid.AddBody(a)
	grid.AddBody(b)

	grid.Shift(mgl64.Vec2{100, 100})

	if pairs := grid.Detect(); len(pairs) != 1 {
		t.Errorf("Detect() after Shift = %d pairs, want 1", len(pairs))
	}
	got := grid.DetectAABB(actor.AABB{Min: mgl64.Vec2{99, 99}, Max: mgl64.Vec2{101, 101}})
	if len(got) != 2 {
		t.Errorf("DetectAABB() after Shift = %d fixtures, want 2", len(got))
	}
}

// =============================================================================
// Query Tests
// =============================================================================

func TestDetectAABB(t *testing.T) {
	grid := NewSpatialGrid(1.0, 1024)
	for i := 0; i < 10; i++ {
		grid.AddBody(createTestBox(t, mgl64.Vec2{float64(i * 3), 0}, 1, 1))
	}

	tests := []struct {
		name     string
		aabb     actor.AABB
		expected int
	}{
		{"empty region", actor.AABB{Min: mgl64.Vec2{0, 5}, Max: mgl64.Vec2{10, 6}}, 0},
		{"one box", actor.AABB{Min: mgl64.Vec2{-0.1, -0.1}, Max: mgl64.Vec2{0.1, 0.1}}, 1},
		{"three boxes", actor.AABB{Min: mgl64.Vec2{-1, -1}, Max: mgl64.Vec2{7, 1}}, 3},
		{"huge region", actor.AABB{Min: mgl64.Vec2{-1000, -1000}, Max: mgl64.Vec2{1000, 1000}}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := grid.DetectAABB(tt.aabb); len(got) != tt.expected {
				t.Errorf("DetectAABB() = %d fixtures, want %d", len(got), tt.expected)
			}
		})
	}
}

func TestRaycast(t *testing.T) {
	grid := NewSpatialGrid(1.0, 1024)
	near := createTestBox(t, mgl64.Vec2{3, 0}, 1, 1)
	far := createTestBox(t, mgl64.Vec2{10, 0}, 1, 1)
	off := createTestBox(t, mgl64.Vec2{5, 5}, 1, 1)
	for _, b := range []*actor.Body{near, far, off} {
		grid.AddBody(b)
	}

	tests := []struct {
		name      string
		maxLength float64
		expected  int
	}{
		{"short ray", 1, 0},
		{"reaches the near box", 5, 1},
		{"reaches both", 20, 2},
		{"infinite", 0, 2},
		{"positive infinity", math.Inf(1), 2},
	}

	ray := actor.NewRay(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := grid.Raycast(ray, tt.maxLength); len(got) != tt.expected {
				t.Errorf("Raycast(%v) = %d fixtures, want %d", tt.maxLength, len(got), tt.expected)
			}
		})
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkDetect(b *testing.B) {
	grid := NewSpatialGrid(DefaultCellSize, DefaultNumCells)
	for x := 0; x < 40; x++ {
		for y := 0; y < 25; y++ {
			body := actor.NewBody()
			shape, err := actor.NewRectangle(1, 1)
			if err != nil {
				b.Fatal(err)
			}
			if _, err := body.AddShape(shape); err != nil {
				b.Fatal(err)
			}
			body.Translate(mgl64.Vec2{float64(x) * 1.1, float64(y) * 1.1})
			grid.AddBody(body)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		grid.dirty = true
		grid.Detect()
	}
}
