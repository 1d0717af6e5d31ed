package main

import (
	"fmt"
	"math/rand"

	"github.com/x448/float16"

	"github.com/born-ml/tileflip/internal/tensor"
)

// maxRandomValue bounds generated values to [0, maxRandomValue].
const maxRandomValue = 10

func fill[T tensor.DType](n int, next func() T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = next()
	}
	return out
}

// randomTensor returns a row-major tensor of small non-negative values drawn
// from a generator seeded with seed.
func randomTensor(shape tensor.Shape, dt tensor.DataType, seed int64) (*tensor.RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // Reproducible test data, not crypto.
	next := func() int { return rng.Intn(maxRandomValue + 1) }
	n := shape.NumElements()

	switch dt {
	case tensor.Float32:
		return tensor.FromSlice(shape, fill(n, func() float32 { return float32(next()) }))
	case tensor.Float64:
		return tensor.FromSlice(shape, fill(n, func() float64 { return float64(next()) }))
	case tensor.Float16:
		return tensor.FromSlice(shape, fill(n, func() float16.Float16 { return float16.Fromfloat32(float32(next())) }))
	case tensor.Int32:
		return tensor.FromSlice(shape, fill(n, func() int32 { return int32(next()) }))
	case tensor.Int64:
		return tensor.FromSlice(shape, fill(n, func() int64 { return int64(next()) }))
	case tensor.Uint8:
		return tensor.FromSlice(shape, fill(n, func() uint8 { return uint8(next()) }))
	case tensor.Uint32:
		return tensor.FromSlice(shape, fill(n, func() uint32 { return uint32(next()) }))
	case tensor.Bool:
		return tensor.FromSlice(shape, fill(n, func() bool { return next()%2 == 1 }))
	default:
		return nil, fmt.Errorf("%w: unsupported data type %s", tensor.ErrPrecondition, dt)
	}
}
