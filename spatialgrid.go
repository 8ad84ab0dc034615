package feather2d

import (
	"math"
	"sort"

	"github.com/akmonengine/feather2d/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultCellSize = 2.0
	DefaultNumCells = 4096

	// maxProxyCells is the number of cells above which a proxy is kept out of
	// the grid and tested against every other proxy instead
	maxProxyCells = 64
)

// ============================================================================
// Types
// ============================================================================

// Broadphase indexes fixtures by their world bounds.
type Broadphase interface {
	Add(fixture *actor.Fixture)
	Remove(fixture *actor.Fixture) bool
	Update(fixture *actor.Fixture)
	AddBody(body *actor.Body)
	RemoveBody(body *actor.Body)
	UpdateBody(body *actor.Body)
	// Detect returns every pair of fixtures of different bodies whose bounds
	// overlap, each pair once
	Detect() []BroadphasePair
	DetectAABB(aabb actor.AABB) []*actor.Fixture
	Raycast(ray actor.Ray, maxLength float64) []*actor.Fixture
	Shift(delta mgl64.Vec2)
	Clear()
}

// BroadphasePair is a pair of fixtures whose bounds overlap.
type BroadphasePair struct {
	FixtureA *actor.Fixture
	FixtureB *actor.Fixture
}

// CellKey is the coordinate of a cell in the grid.
type CellKey struct {
	X, Y int
}

// Cell holds the indices of the proxies overlapping it.
type Cell struct {
	proxyIndices []int
}

type proxy struct {
	fixture   *actor.Fixture
	aabb      actor.AABB
	oversized bool
}

// SpatialGrid is a uniform grid with hashing, used as the default broadphase.
//
// Proxies are kept in insertion order; the cells are rebuilt from them lazily
// when a query runs after a change.
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int

	proxies []proxy
	index   map[*actor.Fixture]int
	// oversized holds the indices of the proxies spanning too many cells
	oversized []int
	dirty     bool

	// marks[i] == stamp when proxy i was visited by the current query
	marks []uint64
	stamp uint64
}

var _ Broadphase = (*SpatialGrid)(nil)

// ============================================================================
// Constructor
// ============================================================================

// NewSpatialGrid creates a grid of square cells of cellSize, hashed into
// numCells buckets rounded up to a power of two.
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	if !(cellSize > 0) {
		cellSize = DefaultCellSize
	}
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].proxyIndices = make([]int, 0, 4)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
		index:    make(map[*actor.Fixture]int),
	}
}

// nextPowerOfTwo rounds n up to a power of two
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// ============================================================================
// Proxies
// ============================================================================

// Add indexes the fixture at the current transform of its body.
// Adding a known fixture updates it.
func (sg *SpatialGrid) Add(fixture *actor.Fixture) {
	if i, ok := sg.index[fixture]; ok {
		sg.proxies[i].aabb = fixtureAABB(fixture)
		sg.dirty = true
		return
	}

	sg.index[fixture] = len(sg.proxies)
	sg.proxies = append(sg.proxies, proxy{fixture: fixture, aabb: fixtureAABB(fixture)})
	sg.dirty = true
}

// Remove drops the fixture, returning false if it was not indexed.
func (sg *SpatialGrid) Remove(fixture *actor.Fixture) bool {
	i, ok := sg.index[fixture]
	if !ok {
		return false
	}

	delete(sg.index, fixture)
	sg.proxies = append(sg.proxies[:i], sg.proxies[i+1:]...)
	for j := i; j < len(sg.proxies); j++ {
		sg.index[sg.proxies[j].fixture] = j
	}
	sg.dirty = true

	return true
}

// Update refreshes the bounds of the fixture, adding it if unknown.
func (sg *SpatialGrid) Update(fixture *actor.Fixture) {
	sg.Add(fixture)
}

func (sg *SpatialGrid) AddBody(body *actor.Body) {
	for _, fixture := range body.Fixtures() {
		sg.Add(fixture)
	}
}

func (sg *SpatialGrid) RemoveBody(body *actor.Body) {
	for _, fixture := range body.Fixtures() {
		sg.Remove(fixture)
	}
}

func (sg *SpatialGrid) UpdateBody(body *actor.Body) {
	for _, fixture := range body.Fixtures() {
		sg.Add(fixture)
	}
}

// Len returns the number of indexed fixtures.
func (sg *SpatialGrid) Len() int {
	return len(sg.proxies)
}

// Shift moves every proxy by delta.
func (sg *SpatialGrid) Shift(delta mgl64.Vec2) {
	for i := range sg.proxies {
		sg.proxies[i].aabb = sg.proxies[i].aabb.Translate(delta)
	}
	sg.dirty = true
}

// Clear removes every proxy.
func (sg *SpatialGrid) Clear() {
	sg.proxies = sg.proxies[:0]
	clear(sg.index)
	sg.clearCells()
	sg.dirty = false
}

func fixtureAABB(fixture *actor.Fixture) actor.AABB {
	body := fixture.Body()
	if body == nil {
		return fixture.CreateAABB(actor.NewTransform())
	}
	return fixture.CreateAABB(body.Transform())
}

// ============================================================================
// Cells
// ============================================================================

func (sg *SpatialGrid) clearCells() {
	for i := range sg.cells {
		sg.cells[i].proxyIndices = sg.cells[i].proxyIndices[:0]
	}
	sg.oversized = sg.oversized[:0]
}

// rebuild inserts every proxy in the cells it occupies.
func (sg *SpatialGrid) rebuild() {
	if !sg.dirty {
		return
	}
	sg.clearCells()

	for i := range sg.proxies {
		sg.insert(i)
	}
	sg.sortCells()

	if cap(sg.marks) < len(sg.proxies) {
		sg.marks = make([]uint64, len(sg.proxies))
		sg.stamp = 0
	}
	sg.marks = sg.marks[:len(sg.proxies)]
	sg.dirty = false
}

func (sg *SpatialGrid) insert(proxyIndex int) {
	p := &sg.proxies[proxyIndex]
	minCell := sg.worldToCell(p.aabb.Min)
	maxCell := sg.worldToCell(p.aabb.Max)

	p.oversized = (maxCell.X-minCell.X+1)*(maxCell.Y-minCell.Y+1) > maxProxyCells
	if p.oversized {
		sg.oversized = append(sg.oversized, proxyIndex)
		return
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			cellIdx := sg.hashCell(CellKey{x, y})
			sg.cells[cellIdx].proxyIndices = append(sg.cells[cellIdx].proxyIndices, proxyIndex)
		}
	}
}

func (sg *SpatialGrid) sortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].proxyIndices) > 1 {
			sort.Ints(sg.cells[i].proxyIndices)
		}
	}
}

// worldToCell converts a world position to the coordinates of its cell
func (sg *SpatialGrid) worldToCell(pos mgl64.Vec2) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
	}
}

// hashCell hashes a cell to an index in the cells array
func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663)
	return h & sg.cellMask
}

// ============================================================================
// Queries
// ============================================================================

// visit calls fn once for every proxy that may overlap aabb.
// Oversized queries test every proxy.
func (sg *SpatialGrid) visit(aabb actor.AABB, fn func(proxyIndex int)) {
	sg.stamp++
	mark := func(i int) {
		if sg.marks[i] == sg.stamp {
			return
		}
		sg.marks[i] = sg.stamp
		fn(i)
	}

	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)
	if (maxCell.X-minCell.X+1)*(maxCell.Y-minCell.Y+1) > maxProxyCells {
		for i := range sg.proxies {
			mark(i)
		}
		return
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for _, i := range sg.cells[sg.hashCell(CellKey{x, y})].proxyIndices {
				mark(i)
			}
		}
	}
	for _, i := range sg.oversized {
		mark(i)
	}
}

// Detect returns the overlapping pairs in a deterministic order: by the
// insertion order of the first fixture.
func (sg *SpatialGrid) Detect() []BroadphasePair {
	sg.rebuild()
	pairs := make([]BroadphasePair, 0, len(sg.proxies)/2)

	for i := range sg.proxies {
		a := sg.proxies[i]
		sg.visit(a.aabb, func(j int) {
			// avoid duplicates (A,B) and (B,A)
			if j <= i {
				return
			}
			b := sg.proxies[j]
			if a.fixture.Body() == b.fixture.Body() {
				return
			}
			if a.aabb.Overlaps(b.aabb) {
				pairs = append(pairs, BroadphasePair{FixtureA: a.fixture, FixtureB: b.fixture})
			}
		})
	}

	return pairs
}

// DetectAABB returns the fixtures whose bounds overlap aabb, in insertion order.
func (sg *SpatialGrid) DetectAABB(aabb actor.AABB) []*actor.Fixture {
	sg.rebuild()
	var indices []int

	sg.visit(aabb, func(i int) {
		if sg.proxies[i].aabb.Overlaps(aabb) {
			indices = append(indices, i)
		}
	})

	return sg.fixturesAt(indices)
}

// Raycast returns the fixtures whose bounds are hit by the ray within
// maxLength, in insertion order. A maxLength <= 0 means an infinite ray.
func (sg *SpatialGrid) Raycast(ray actor.Ray, maxLength float64) []*actor.Fixture {
	sg.rebuild()
	var indices []int

	test := func(i int) {
		if sg.proxies[i].aabb.Raycast(ray, maxLength) {
			indices = append(indices, i)
		}
	}

	if maxLength > 0 && !math.IsInf(maxLength, 1) {
		end := ray.PointAt(maxLength)
		bounds := actor.AABB{Min: ray.Start, Max: ray.Start}.Union(actor.AABB{Min: end, Max: end})
		sg.visit(bounds, test)
	} else {
		for i := range sg.proxies {
			test(i)
		}
	}

	return sg.fixturesAt(indices)
}

func (sg *SpatialGrid) fixturesAt(indices []int) []*actor.Fixture {
	sort.Ints(indices)
	fixtures := make([]*actor.Fixture, len(indices))
	for k, i := range indices {
		fixtures[k] = sg.proxies[i].fixture
	}
	return fixtures
}
