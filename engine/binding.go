package engine

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/perceptionlabs/yolov5rt/utils"
)

// Expected slot ranks: inputs are [batch, channels, rows, cols], outputs are
// [batch, boxes, rowSize].
const (
	inputRank  = 4
	outputRank = 3
)

// Binding describes one resolved tensor slot of an engine. Immutable once
// resolved.
type Binding struct {
	index   int
	name    string
	dims    Dims
	volume  int
	isInput bool
}

// Index returns the slot index of the binding.
func (b Binding) Index() int {
	return b.index
}

// Name returns the slot name of the binding.
func (b Binding) Name() string {
	return b.name
}

// Dims returns the fixed dimensions of the binding.
func (b Binding) Dims() Dims {
	return b.dims
}

// Volume returns the element count of the binding.
func (b Binding) Volume() int {
	return b.volume
}

// IsInput reports whether the binding is an engine input.
func (b Binding) IsInput() bool {
	return b.isInput
}

func (b Binding) String() string {
	return fmt.Sprintf("%q: isInput: %v, dims: %s, volume: %d", b.name, b.isInput, b.dims, b.volume)
}

// BindingByName resolves the slot called name from the engine's metadata.
func BindingByName(eng Engine, name string) (Binding, error) {
	index := eng.BindingIndex(name)
	if index < 0 {
		return Binding{}, errors.Wrapf(utils.ErrModel, "engine has no binding named %q", name)
	}
	return resolveBinding(eng, index)
}

// BindingByIndex resolves the slot at index from the engine's metadata.
func BindingByIndex(eng Engine, index int) (Binding, error) {
	if index < 0 || index >= eng.BindingCount() {
		return Binding{}, errors.Wrapf(utils.ErrModel,
			"binding index %d out of range, engine has %d bindings", index, eng.BindingCount())
	}
	return resolveBinding(eng, index)
}

func resolveBinding(eng Engine, index int) (Binding, error) {
	name := eng.BindingName(index)
	dims := eng.BindingDims(index)
	isInput := eng.BindingIsInput(index)

	if dims.IsDynamic() {
		return Binding{}, errors.Wrapf(utils.ErrModel,
			"binding %q has dynamic dimensions %s, the pipeline requires fully fixed shapes", name, dims)
	}
	wantRank := outputRank
	if isInput {
		wantRank = inputRank
	}
	if dims.Rank() != wantRank {
		return Binding{}, errors.Wrapf(utils.ErrModel,
			"binding %q has dimensions %s of rank %d, expected rank %d", name, dims, dims.Rank(), wantRank)
	}

	return Binding{
		index:   index,
		name:    name,
		dims:    dims,
		volume:  dims.Volume(),
		isInput: isInput,
	}, nil
}
