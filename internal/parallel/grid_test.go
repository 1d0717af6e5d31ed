package parallel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tileflip/internal/tensor"
)

func coords(ws []WorkerID) [][2]int {
	out := make([][2]int, len(ws))
	for i, w := range ws {
		out[i] = [2]int{w.X, w.Y}
	}
	return out
}

func TestNewGrid_ColumnWise(t *testing.T) {
	g, err := NewGrid(Config{Rows: 2, Cols: 3})
	require.NoError(t, err)

	assert.Equal(t, 6, g.MaxWorkers())
	assert.Equal(t, [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}, {2, 0}, {2, 1}}, coords(g.Workers()))
	for i, w := range g.Workers() {
		assert.Equal(t, i, w.Index)
	}
}

func TestNewGrid_RowWise(t *testing.T) {
	g, err := NewGrid(Config{Rows: 2, Cols: 3, RowWise: true})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}}, coords(g.Workers()))
	assert.Equal(t, "3x2", g.String())
}

func TestNewGrid_Capacity(t *testing.T) {
	g, err := NewGrid(Config{Rows: 8, Cols: 8, MaxWorkers: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, g.MaxWorkers())
	assert.Len(t, g.Workers(), 5)

	g, err = NewGrid(Config{Rows: 2, Cols: 2, MaxWorkers: 100})
	require.NoError(t, err)
	assert.Equal(t, 4, g.MaxWorkers())
}

func TestNewGrid_Errors(t *testing.T) {
	_, err := NewGrid(Config{Rows: 0, Cols: 4})
	assert.ErrorIs(t, err, ErrNoWorkers)
	assert.ErrorIs(t, err, tensor.ErrPrecondition)

	_, err = NewGrid(Config{Rows: 1, Cols: 1, MaxWorkers: -1})
	assert.ErrorIs(t, err, tensor.ErrPrecondition)
}

func TestNewGrid_WorkersIsCopy(t *testing.T) {
	g, err := NewGrid(Config{Rows: 1, Cols: 2})
	require.NoError(t, err)
	ws := g.Workers()
	ws[0].Index = 99
	assert.Equal(t, 0, g.Workers()[0].Index)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1, cfg.Rows)
	assert.GreaterOrEqual(t, cfg.Cols, 1)

	g, err := NewGrid(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Cols, g.MaxWorkers())
	assert.Equal(t, "#0(0,0)", g.Workers()[0].String())
}
