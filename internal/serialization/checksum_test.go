package serialization

import (
	"bytes"
	"errors"
	"testing"
)

// TestComputeChecksum verifies SHA-256 checksum computation.
func TestComputeChecksum(t *testing.T) {
	data := []byte("tile data")
	checksum1 := ComputeChecksum(data)
	checksum2 := ComputeChecksum(data)

	if checksum1 != checksum2 {
		t.Error("Checksums should match for identical data")
	}

	if checksum1 == ComputeChecksum([]byte("other tile data")) {
		t.Error("Checksums should differ for different data")
	}
}

// TestComputeChecksumAt verifies checksum computation over a section.
func TestComputeChecksumAt(t *testing.T) {
	data := []byte("header|payload|trailer")
	r := bytes.NewReader(data)

	got, err := ComputeChecksumAt(r, 7, 7)
	if err != nil {
		t.Fatalf("ComputeChecksumAt failed: %v", err)
	}
	if want := ComputeChecksum([]byte("payload")); got != want {
		t.Error("Section checksum should match checksum of the section bytes")
	}
}

// TestValidateChecksum verifies checksum validation.
func TestValidateChecksum(t *testing.T) {
	sum := ComputeChecksum([]byte("a"))
	if err := ValidateChecksum(sum, sum); err != nil {
		t.Errorf("Matching checksums should validate: %v", err)
	}

	other := ComputeChecksum([]byte("b"))
	if err := ValidateChecksum(sum, other); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got %v", err)
	}
}
