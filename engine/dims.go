package engine

import (
	"fmt"
	"strings"
)

// Dims holds the fixed dimensions of a tensor slot, outermost first.
type Dims []int

// Rank returns the number of dimensions.
func (d Dims) Rank() int {
	return len(d)
}

// Volume returns the total element count, the product of all dimensions.
// Empty dims have volume 0.
func (d Dims) Volume() int {
	if len(d) == 0 {
		return 0
	}
	volume := 1
	for _, dim := range d {
		volume *= dim
	}
	return volume
}

// IsDynamic reports whether any dimension is unresolved. Engines with dynamic
// shapes are rejected by the pipeline.
func (d Dims) IsDynamic() bool {
	for _, dim := range d {
		if dim < 0 {
			return true
		}
	}
	return false
}

func (d Dims) String() string {
	parts := make([]string, 0, len(d))
	for _, dim := range d {
		parts = append(parts, fmt.Sprintf("%d", dim))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
