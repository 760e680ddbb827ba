package plan

import (
	"fmt"
	"sort"
)

// Precision identifies a numeric storage format for model parameters.
type Precision string

const (
	FP32 Precision = "fp32"
	BF16 Precision = "bf16"
	FP16 Precision = "fp16"
	INT8 Precision = "int8"
	Q4   Precision = "q4"
)

// precisionBytes maps each precision to its byte width per scalar.
// Process-wide immutable table; q4 packs two scalars per byte.
var precisionBytes = map[Precision]float64{
	FP32: 4,
	BF16: 2,
	FP16: 2,
	INT8: 1,
	Q4:   0.5,
}

// Bytes returns the storage width of one scalar in bytes.
// Unknown precisions return 0; ModelSpec.Validate rejects them before any
// estimator runs.
func (p Precision) Bytes() float64 {
	return precisionBytes[p]
}

// Valid reports whether p is one of the known precisions.
func (p Precision) Valid() bool {
	_, ok := precisionBytes[p]
	return ok
}

// ParsePrecision converts a user-supplied string into a Precision.
func ParsePrecision(s string) (Precision, error) {
	p := Precision(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown precision %q (available: %v)", s, PrecisionNames())
	}
	return p, nil
}

// PrecisionNames returns the known precision names in sorted order.
func PrecisionNames() []string {
	names := make([]string, 0, len(precisionBytes))
	for p := range precisionBytes {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}
