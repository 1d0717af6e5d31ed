// Package storage provides tile stores that serve as the transport of the
// tiled flip pipeline: Memory keeps named tile buffers in process memory,
// File reads and writes .tflp containers on disk.
package storage
