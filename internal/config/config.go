// Package config holds the settings of a tiled flip run.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/born-ml/tileflip/internal/flip"
	"github.com/born-ml/tileflip/internal/parallel"
	"github.com/born-ml/tileflip/internal/tensor"
)

// Config describes one flip invocation and the grid it runs on.
type Config struct {
	Shape      []int            `json:"shape"`
	FlipAxes   []int            `json:"flip_axes"`
	Tile       tensor.TileShape `json:"tile"`
	DType      string           `json:"dtype"`
	Grid       GridConfig       `json:"grid"`
	MaxWorkers int              `json:"max_workers"` // 0 uses the whole grid
	Seed       int64            `json:"seed"`        // Fill seed for generated inputs
	Verify     bool             `json:"verify"`      // Compare against the reference flip
}

// GridConfig is the worker grid extent.
type GridConfig struct {
	Rows    int  `json:"rows"`
	Cols    int  `json:"cols"`
	RowWise bool `json:"row_wise"`
}

// Default returns a 1x3x96x96 uint32 flip over the last two axes on an
// 8x8 grid.
func Default() *Config {
	return &Config{
		Shape:    []int{1, 3, 96, 96},
		FlipAxes: []int{2, 3},
		Tile:     tensor.DefaultTile,
		DType:    tensor.Uint32.String(),
		Grid:     GridConfig{Rows: 8, Cols: 8},
		Seed:     69,
		Verify:   true,
	}
}

// Load reads a JSON config from path. Fields missing from the file keep
// their Default values; unknown fields are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes a JSON config over Default and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return errors.Wrapf(os.WriteFile(path, append(data, '\n'), 0o644), "write config %s", path)
}

// Validate checks every field. Errors wrap tensor.ErrPrecondition; grid
// errors also wrap parallel.ErrNoWorkers.
func (c *Config) Validate() error {
	shape := c.TensorShape()
	if _, err := tensor.TiledGrid(shape, c.Tile); err != nil {
		return err
	}
	axes, err := c.Axes()
	if err != nil {
		return err
	}
	if err := axes.Validate(shape.Rank()); err != nil {
		return err
	}
	if _, err := c.DataType(); err != nil {
		return err
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("%w: max_workers %d must not be negative", tensor.ErrPrecondition, c.MaxWorkers)
	}
	if c.Grid.Rows <= 0 || c.Grid.Cols <= 0 {
		return errors.Wrapf(parallel.ErrNoWorkers, "grid %dx%d", c.Grid.Cols, c.Grid.Rows)
	}
	return nil
}

// TensorShape returns the configured shape.
func (c *Config) TensorShape() tensor.Shape {
	return tensor.Shape(c.Shape).Clone()
}

// Axes returns the configured flip axes as a set.
func (c *Config) Axes() (flip.AxisSet, error) {
	return flip.NewAxisSet(c.FlipAxes...)
}

// DataType returns the configured element type.
func (c *Config) DataType() (tensor.DataType, error) {
	return tensor.ParseDataType(c.DType)
}

// ParallelConfig returns the worker grid settings.
func (c *Config) ParallelConfig() parallel.Config {
	return parallel.Config{
		Rows:       c.Grid.Rows,
		Cols:       c.Grid.Cols,
		MaxWorkers: c.MaxWorkers,
		RowWise:    c.Grid.RowWise,
	}
}
