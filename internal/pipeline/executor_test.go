package pipeline_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tileflip/internal/flip"
	"github.com/born-ml/tileflip/internal/parallel"
	"github.com/born-ml/tileflip/internal/pipeline"
	"github.com/born-ml/tileflip/internal/storage"
	"github.com/born-ml/tileflip/internal/tensor"
)

func newGrid(t *testing.T, rows, cols int) *parallel.Grid {
	t.Helper()
	g, err := parallel.NewGrid(parallel.Config{Rows: rows, Cols: cols})
	require.NoError(t, err)
	return g
}

func randomBytes(n int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	out := make([]byte, n)
	rng.Read(out)
	return out
}

// runTiled tilizes src, flips it through the executor and untilizes the result.
func runTiled(t *testing.T, exec *pipeline.Executor, m *storage.Memory, inv pipeline.Invocation, src []byte) []byte {
	t.Helper()
	tiles, err := tensor.Tilize(src, inv.Shape, inv.Tile, inv.DType.Size())
	require.NoError(t, err)

	require.NoError(t, m.Store(inv.Src, inv.TileBytes(), tiles))
	require.NoError(t, m.Allocate(inv.Dst, len(tiles)/inv.TileBytes(), inv.TileBytes()))
	defer m.Delete(inv.Src)
	defer m.Delete(inv.Dst)

	_, err = exec.Run(context.Background(), inv)
	require.NoError(t, err)

	out, err := m.Load(inv.Dst)
	require.NoError(t, err)
	flat, err := tensor.Untilize(out, inv.Shape, inv.Tile, inv.DType.Size())
	require.NoError(t, err)
	return flat
}

func TestExecutor_SingleAxisScenario(t *testing.T) {
	m := storage.NewMemory()
	exec, err := pipeline.NewExecutor(newGrid(t, 2, 2), m)
	require.NoError(t, err)

	values := make([]uint32, 16)
	for i := range values {
		values[i] = uint32(i)
	}
	raw, err := tensor.FromSlice(tensor.Shape{1, 1, 4, 4}, values)
	require.NoError(t, err)

	inv := pipeline.Invocation{
		Shape: tensor.Shape{1, 1, 4, 4},
		Axes:  flip.MustAxisSet(3),
		Tile:  tensor.TileShape{Height: 1, Width: 1},
		DType: tensor.Uint32,
		Src:   "in",
		Dst:   "out",
	}
	flat := runTiled(t, exec, m, inv, raw.Data())

	got, err := tensor.FromBytes(inv.Shape, inv.DType, flat)
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 2, 1, 0, 7, 6, 5, 4, 11, 10, 9, 8, 15, 14, 13, 12}, tensor.AsSlice[uint32](got))
}

func TestExecutor_DualAxisScenario(t *testing.T) {
	m := storage.NewMemory()
	exec, err := pipeline.NewExecutor(newGrid(t, 1, 3), m)
	require.NoError(t, err)

	raw, err := tensor.FromSlice(tensor.Shape{1, 1, 2, 2}, []uint32{1, 2, 3, 4})
	require.NoError(t, err)

	inv := pipeline.Invocation{
		Shape: tensor.Shape{1, 1, 2, 2},
		Axes:  flip.MustAxisSet(2, 3),
		Tile:  tensor.TileShape{Height: 1, Width: 1},
		DType: tensor.Uint32,
		Src:   "in",
		Dst:   "out",
	}
	flat := runTiled(t, exec, m, inv, raw.Data())

	got, err := tensor.FromBytes(inv.Shape, inv.DType, flat)
	require.NoError(t, err)
	assert.Equal(t, []uint32{4, 3, 2, 1}, tensor.AsSlice[uint32](got))
}

func TestExecutor_MatchesElementReference(t *testing.T) {
	shape := tensor.Shape{2, 3, 4, 6}
	cases := []struct {
		name string
		tile tensor.TileShape
		axes []flip.AxisSet
	}{
		// Unit tiles: every flip set agrees with the element oracle.
		{"unit tiles", tensor.TileShape{Height: 1, Width: 1}, allAxisSets(4)},
		// Larger tiles: flips over untiled axes move whole tiles.
		{"2x3 tiles", tensor.TileShape{Height: 2, Width: 3}, []flip.AxisSet{
			0, flip.MustAxisSet(0), flip.MustAxisSet(1), flip.MustAxisSet(0, 1),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for workers := 1; workers <= 5; workers++ {
				m := storage.NewMemory()
				exec, err := pipeline.NewExecutor(newGrid(t, 1, workers), m)
				require.NoError(t, err)

				for _, axes := range tc.axes {
					src := randomBytes(shape.NumElements()*4, int64(axes)+int64(workers))
					want, err := flip.Reference(src, shape, axes, 4)
					require.NoError(t, err)

					inv := pipeline.Invocation{
						Shape: shape, Axes: axes, Tile: tc.tile, DType: tensor.Float32,
						Src: "src", Dst: "dst",
					}
					got := runTiled(t, exec, m, inv, src)
					require.Equal(t, want, got, "workers=%d axes=%s", workers, axes)
				}
			}
		})
	}
}

func TestExecutor_MatchesTileReference(t *testing.T) {
	// Flipping tiled axes with tiles larger than one element reverses tile
	// order only; the tile oracle is the reference.
	shape := tensor.Shape{1, 3, 96, 96}
	m := storage.NewMemory()
	exec, err := pipeline.NewExecutor(newGrid(t, 8, 8), m)
	require.NoError(t, err)

	for _, axes := range allAxisSets(4) {
		tiles := randomBytes(shape.NumElements()*4, int64(axes))
		want, err := flip.ReferenceTiles(tiles, shape, tensor.DefaultTile, axes, 4)
		require.NoError(t, err)

		inv := pipeline.Invocation{
			Shape: shape, Axes: axes, Tile: tensor.DefaultTile, DType: tensor.Uint32,
			Src: "src", Dst: "dst",
		}
		require.NoError(t, m.Store(inv.Src, inv.TileBytes(), tiles))
		require.NoError(t, m.Allocate(inv.Dst, 27, inv.TileBytes()))

		res, err := exec.Run(context.Background(), inv)
		require.NoError(t, err)
		assert.Equal(t, 27, res.Tiles)
		assert.True(t, tensor.Shape{1, 3, 3, 3}.Equal(res.TileGrid))
		assert.Equal(t, 27, res.Assignment.ActiveWorkers())

		got, err := m.Load(inv.Dst)
		require.NoError(t, err)
		require.Equal(t, want, got, "axes %s", axes)

		m.Delete(inv.Src)
		m.Delete(inv.Dst)
	}
}

func TestExecutor_Involution(t *testing.T) {
	shape := tensor.Shape{3, 4, 4}
	tile := tensor.TileShape{Height: 2, Width: 2}
	m := storage.NewMemory()
	exec, err := pipeline.NewExecutor(newGrid(t, 1, 3), m)
	require.NoError(t, err)

	src := randomBytes(shape.NumElements()*2, 7)
	require.NoError(t, m.Store("a", 8, src))
	require.NoError(t, m.Allocate("b", 12, 8))
	require.NoError(t, m.Allocate("c", 12, 8))

	inv := pipeline.Invocation{Shape: shape, Axes: flip.MustAxisSet(0, 2), Tile: tile, DType: tensor.Float16, Src: "a", Dst: "b"}
	_, err = exec.Run(context.Background(), inv)
	require.NoError(t, err)

	inv.Src, inv.Dst = "b", "c"
	_, err = exec.Run(context.Background(), inv)
	require.NoError(t, err)

	got, err := m.Load("c")
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestExecutor_Preconditions(t *testing.T) {
	m := storage.NewMemory()
	exec, err := pipeline.NewExecutor(newGrid(t, 1, 2), m)
	require.NoError(t, err)

	base := pipeline.Invocation{
		Shape: tensor.Shape{1, 1, 64, 64}, Tile: tensor.DefaultTile, DType: tensor.Uint32,
		Src: "src", Dst: "dst",
	}

	tests := []struct {
		name   string
		mutate func(*pipeline.Invocation)
		target error
	}{
		{"zero dimension", func(inv *pipeline.Invocation) { inv.Shape = tensor.Shape{1, 0, 64, 64} }, tensor.ErrInvalidShape},
		{"rank 0", func(inv *pipeline.Invocation) { inv.Shape = tensor.Shape{} }, tensor.ErrInvalidShape},
		{"axis out of range", func(inv *pipeline.Invocation) { inv.Axes = flip.MustAxisSet(4) }, flip.ErrInvalidAxis},
		{"partial tile", func(inv *pipeline.Invocation) { inv.Shape = tensor.Shape{1, 1, 48, 64} }, tensor.ErrDimensionMismatch},
		{"in place", func(inv *pipeline.Invocation) { inv.Dst = inv.Src }, pipeline.ErrInPlace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := base
			tt.mutate(&inv)
			res, err := exec.Run(context.Background(), inv)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.target)
			assert.ErrorIs(t, err, tensor.ErrPrecondition)
		})
	}

	assert.Equal(t, storage.MemoryStats{}, m.Stats(), "no transfer may start on a precondition error")
}

func TestNewExecutor_Errors(t *testing.T) {
	_, err := pipeline.NewExecutor(nil, storage.NewMemory())
	assert.ErrorIs(t, err, pipeline.ErrNoGrid)
	assert.ErrorIs(t, err, tensor.ErrPrecondition)

	_, err = pipeline.NewExecutor(newGrid(t, 1, 1), nil)
	assert.ErrorIs(t, err, pipeline.ErrNoTransport)
	assert.ErrorIs(t, err, tensor.ErrPrecondition)
}

func TestExecutor_Plan(t *testing.T) {
	exec, err := pipeline.NewExecutor(newGrid(t, 1, 3), storage.NewMemory())
	require.NoError(t, err)

	res, err := exec.Plan(pipeline.Invocation{
		Shape: tensor.Shape{1, 1, 64, 160}, Tile: tensor.DefaultTile, DType: tensor.Uint8,
		Src: "a", Dst: "b",
	})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Tiles)
	assert.Equal(t, []parallel.Range{{Start: 0, End: 4}, {Start: 4, End: 7}, {Start: 7, End: 10}}, res.Assignment.Ranges)
}

// faultyTransport fails reads or writes of chosen tiles.
type faultyTransport struct {
	pipeline.Transport
	failRead  map[int]bool
	failWrite map[int]bool
}

var errInjected = errors.New("injected transport failure")

func (f *faultyTransport) ReadTile(ctx context.Context, loc string, tile int, dst []byte) error {
	if f.failRead[tile] {
		return errInjected
	}
	return f.Transport.ReadTile(ctx, loc, tile, dst)
}

func (f *faultyTransport) WriteTile(ctx context.Context, loc string, tile int, data []byte) error {
	if f.failWrite[tile] {
		return errInjected
	}
	return f.Transport.WriteTile(ctx, loc, tile, data)
}

func TestExecutor_TransportFailuresAggregate(t *testing.T) {
	m := storage.NewMemory()
	// 10 tiles over 3 workers: [0,4) [4,7) [7,10).
	ft := &faultyTransport{
		Transport: m,
		failRead:  map[int]bool{5: true},
		failWrite: map[int]bool{9: true}, // destination of source tile 0 when flipping axis 3
	}
	exec, err := pipeline.NewExecutor(newGrid(t, 1, 3), ft)
	require.NoError(t, err)

	inv := pipeline.Invocation{
		Shape: tensor.Shape{1, 1, 1, 10}, Axes: flip.MustAxisSet(3),
		Tile: tensor.TileShape{Height: 1, Width: 1}, DType: tensor.Uint8,
		Src: "src", Dst: "dst",
	}
	require.NoError(t, m.Store("src", 1, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}))
	require.NoError(t, m.Allocate("dst", 10, 1))

	res, err := exec.Run(context.Background(), inv)
	require.NotNil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, errInjected)

	var runErr *pipeline.RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, res.ID, runErr.Invocation)

	tes := runErr.TransportErrors()
	require.Len(t, tes, 2)

	assert.Equal(t, 0, tes[0].Worker.Index)
	assert.Equal(t, pipeline.DirectionWrite, tes[0].Direction)
	assert.Equal(t, 0, tes[0].Tile)
	assert.Equal(t, 9, tes[0].DstTile)
	assert.Equal(t, "dst", tes[0].Location)

	assert.Equal(t, 1, tes[1].Worker.Index)
	assert.Equal(t, pipeline.DirectionRead, tes[1].Direction)
	assert.Equal(t, 5, tes[1].Tile)
	assert.Contains(t, tes[1].Error(), "read tile 5")

	// Worker 2 owns [7,10) and is unaffected.
	out, err := m.Load("dst")
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7}, out[0:3])
}

func TestExecutor_Cancelled(t *testing.T) {
	m := storage.NewMemory()
	exec, err := pipeline.NewExecutor(newGrid(t, 1, 2), m)
	require.NoError(t, err)

	require.NoError(t, m.Store("src", 1, make([]byte, 8)))
	require.NoError(t, m.Allocate("dst", 8, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = exec.Run(ctx, pipeline.Invocation{
		Shape: tensor.Shape{8}, Tile: tensor.TileShape{Height: 1, Width: 1}, DType: tensor.Uint8,
		Src: "src", Dst: "dst",
	})
	assert.ErrorIs(t, err, context.Canceled)
}

// heldTransport tracks tiles read but not yet written.
type heldTransport struct {
	pipeline.Transport
	held    atomic.Int64
	maxHeld atomic.Int64
}

func (h *heldTransport) ReadTile(ctx context.Context, loc string, tile int, dst []byte) error {
	if err := h.Transport.ReadTile(ctx, loc, tile, dst); err != nil {
		return err
	}
	n := h.held.Add(1)
	for {
		m := h.maxHeld.Load()
		if n <= m || h.maxHeld.CompareAndSwap(m, n) {
			break
		}
	}
	return nil
}

func (h *heldTransport) WriteTile(ctx context.Context, loc string, tile int, data []byte) error {
	time.Sleep(time.Millisecond)
	defer h.held.Add(-1)
	return h.Transport.WriteTile(ctx, loc, tile, data)
}

func TestExecutor_AtMostTwoTilesPerWorker(t *testing.T) {
	m := storage.NewMemory()
	ht := &heldTransport{Transport: m}
	exec, err := pipeline.NewExecutor(newGrid(t, 1, 1), ht)
	require.NoError(t, err)

	require.NoError(t, m.Store("src", 4, make([]byte, 4*16)))
	require.NoError(t, m.Allocate("dst", 16, 4))

	_, err = exec.Run(context.Background(), pipeline.Invocation{
		Shape: tensor.Shape{4, 16}, Axes: flip.MustAxisSet(0),
		Tile: tensor.TileShape{Height: 1, Width: 4}, DType: tensor.Uint8,
		Src: "src", Dst: "dst",
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, ht.maxHeld.Load(), int64(2))
	assert.GreaterOrEqual(t, ht.maxHeld.Load(), int64(1))
}

// countingObserver counts events.
type countingObserver struct {
	pipeline.NopObserver
	mu        sync.Mutex
	started   int
	finished  int
	workers   int
	tiles     map[int]int // dst -> count
	lastError error
}

func (o *countingObserver) InvocationStarted(pipeline.InvocationEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *countingObserver) WorkerFinished(pipeline.WorkerEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.workers++
}

func (o *countingObserver) TileMoved(e pipeline.TileEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tiles[e.Dst]++
}

func (o *countingObserver) InvocationFinished(e pipeline.InvocationEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished++
	o.lastError = e.Err
}

func TestExecutor_Observer(t *testing.T) {
	m := storage.NewMemory()
	obs := &countingObserver{tiles: map[int]int{}}
	exec, err := pipeline.NewExecutor(newGrid(t, 2, 4), m, pipeline.WithObserver(obs))
	require.NoError(t, err)

	require.NoError(t, m.Store("src", 1, make([]byte, 5)))
	require.NoError(t, m.Allocate("dst", 5, 1))

	_, err = exec.Run(context.Background(), pipeline.Invocation{
		Shape: tensor.Shape{5}, Axes: flip.MustAxisSet(0),
		Tile: tensor.TileShape{Height: 1, Width: 1}, DType: tensor.Uint8,
		Src: "src", Dst: "dst",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, obs.started)
	assert.Equal(t, 1, obs.finished)
	assert.NoError(t, obs.lastError)
	assert.Equal(t, 5, obs.workers, "only workers with tiles run")
	assert.Len(t, obs.tiles, 5)
	for dst, n := range obs.tiles {
		assert.Equal(t, 1, n, "tile %d written once", dst)
	}
}

func allAxisSets(rank int) []flip.AxisSet {
	sets := make([]flip.AxisSet, 0, 1<<rank)
	for mask := 0; mask < 1<<rank; mask++ {
		sets = append(sets, flip.AxisSet(mask))
	}
	return sets
}

// orderObserver records the worker of every moved tile.
type orderObserver struct {
	pipeline.NopObserver
	mu      sync.Mutex
	workers []int
}

func (o *orderObserver) TileMoved(e pipeline.TileEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.workers = append(o.workers, e.Worker.Index)
}

func TestExecutor_SequentialWorkers(t *testing.T) {
	m := storage.NewMemory()
	obs := &orderObserver{}
	exec, err := pipeline.NewExecutor(newGrid(t, 1, 3), m,
		pipeline.WithObserver(obs), pipeline.WithSequentialWorkers())
	require.NoError(t, err)

	src := []byte{0, 1, 2, 3, 4, 5, 6}
	require.NoError(t, m.Store("src", 1, src))
	require.NoError(t, m.Allocate("dst", 7, 1))

	_, err = exec.Run(context.Background(), pipeline.Invocation{
		Shape: tensor.Shape{7}, Axes: flip.MustAxisSet(0),
		Tile: tensor.TileShape{Height: 1, Width: 1}, DType: tensor.Uint8,
		Src: "src", Dst: "dst",
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 2, 2}, obs.workers)

	out, err := m.Load("dst")
	require.NoError(t, err)
	assert.Equal(t, []byte{6, 5, 4, 3, 2, 1, 0}, out)
}

func BenchmarkExecutor_Run(b *testing.B) {
	shape := tensor.Shape{1, 3, 96, 96}
	inv := pipeline.Invocation{
		Shape: shape, Axes: flip.MustAxisSet(2, 3), Tile: tensor.DefaultTile, DType: tensor.Uint32,
		Src: "src", Dst: "dst",
	}

	m := storage.NewMemory()
	if err := m.Store("src", inv.TileBytes(), randomBytes(shape.NumElements()*4, 69)); err != nil {
		b.Fatal(err)
	}
	if err := m.Allocate("dst", 27, inv.TileBytes()); err != nil {
		b.Fatal(err)
	}
	grid, err := parallel.NewGrid(parallel.Config{Rows: 8, Cols: 8})
	if err != nil {
		b.Fatal(err)
	}

	for _, mode := range []struct {
		name string
		opts []pipeline.Option
	}{
		{"parallel", nil},
		{"sequential", []pipeline.Option{pipeline.WithSequentialWorkers()}},
	} {
		b.Run(mode.name, func(b *testing.B) {
			exec, err := pipeline.NewExecutor(grid, m, mode.opts...)
			if err != nil {
				b.Fatal(err)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := exec.Run(context.Background(), inv); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
