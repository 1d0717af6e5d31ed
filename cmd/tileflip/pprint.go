package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/x448/float16"

	"github.com/born-ml/tileflip/internal/tensor"
)

func format[T tensor.DType](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprint(v)
	}
	return out
}

// elements renders every element of a row-major tensor.
func elements(r *tensor.RawTensor) []string {
	switch r.DType() {
	case tensor.Float32:
		return format(tensor.AsSlice[float32](r))
	case tensor.Float64:
		return format(tensor.AsSlice[float64](r))
	case tensor.Int32:
		return format(tensor.AsSlice[int32](r))
	case tensor.Int64:
		return format(tensor.AsSlice[int64](r))
	case tensor.Uint8:
		return format(tensor.AsSlice[uint8](r))
	case tensor.Uint32:
		return format(tensor.AsSlice[uint32](r))
	case tensor.Bool:
		return format(tensor.AsSlice[bool](r))
	case tensor.Float16:
		return format(tensor.AsSlice[float16.Float16](r))
	default:
		size := r.DType().Size()
		data := r.Data()
		out := make([]string, r.NumElements())
		for i := range out {
			out[i] = fmt.Sprintf("%x", data[i*size:(i+1)*size])
		}
		return out
	}
}

// pprint writes a row-major tensor as nested brackets, one innermost row per
// line.
func pprint(w io.Writer, r *tensor.RawTensor) {
	shape := r.Shape()
	strides := shape.ComputeStrides()
	elems := elements(r)

	var rec func(dim, offset int, indent string)
	rec = func(dim, offset int, indent string) {
		if dim == shape.Rank()-1 {
			fmt.Fprintf(w, "%s[%s]", indent, strings.Join(elems[offset:offset+shape[dim]], ", "))
			return
		}
		fmt.Fprintf(w, "%s[\n", indent)
		for i := 0; i < shape[dim]; i++ {
			rec(dim+1, offset+i*strides[dim], indent+"  ")
			if i != shape[dim]-1 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s]", indent)
	}
	rec(0, 0, "")
	fmt.Fprintln(w)
}
