package sim

import (
	"context"

	"github.com/pkg/errors"

	"github.com/perceptionlabs/yolov5rt/device"
	"github.com/perceptionlabs/yolov5rt/engine"
)

// Binding describes one tensor slot of a simulated engine.
type Binding struct {
	Name  string
	Dims  engine.Dims
	Input bool
}

// Engine is a simulated inference engine. Enqueued work resolves every
// binding's device pointer through the paired Device and hands the buffers to
// InferFunc, so tests control exactly what the network "produces".
type Engine struct {
	NewContextFunc func() (engine.Context, error)
	CloseFunc      func() error
	// InferFunc receives the resolved buffer of every binding, ordered by
	// slot index. When nil, enqueued work leaves the output untouched.
	InferFunc func(buffers [][]float32) error

	dev      *Device
	bindings []Binding
	closed   bool
}

var (
	_ = engine.Engine(&Engine{})
	_ = engine.Context(&Context{})
	_ = engine.Loader(&Loader{})
	_ = engine.Builder(&Builder{})
)

// NewEngine returns a simulated engine with the given bindings, executing
// against dev's memory.
func NewEngine(dev *Device, bindings ...Binding) *Engine {
	return &Engine{dev: dev, bindings: bindings}
}

// NewDetectionEngine returns a simulated engine with the two bindings the
// detection pipeline expects: a rank-4 "images" input and a rank-3 "output"
// holding numBoxes rows of 5+numClasses values each.
func NewDetectionEngine(dev *Device, batchSize, rows, cols, numBoxes, numClasses int) *Engine {
	return NewEngine(dev,
		Binding{Name: "images", Dims: engine.Dims{batchSize, 3, rows, cols}, Input: true},
		Binding{Name: "output", Dims: engine.Dims{batchSize, numBoxes, 5 + numClasses}},
	)
}

// BindingCount returns the number of simulated slots.
func (e *Engine) BindingCount() int { return len(e.bindings) }

// BindingIndex returns the slot index for a name, or -1 when unknown.
func (e *Engine) BindingIndex(name string) int {
	for i, b := range e.bindings {
		if b.Name == name {
			return i
		}
	}
	return -1
}

// BindingName returns the name of the slot at index, or "" when out of range.
func (e *Engine) BindingName(index int) string {
	if index < 0 || index >= len(e.bindings) {
		return ""
	}
	return e.bindings[index].Name
}

// BindingDims returns the dimensions of the slot at index.
func (e *Engine) BindingDims(index int) engine.Dims {
	if index < 0 || index >= len(e.bindings) {
		return nil
	}
	return e.bindings[index].Dims
}

// BindingIsInput reports whether the slot at index is an input.
func (e *Engine) BindingIsInput(index int) bool {
	if index < 0 || index >= len(e.bindings) {
		return false
	}
	return e.bindings[index].Input
}

// NewContext calls the injected NewContextFunc or creates a simulated
// context.
func (e *Engine) NewContext() (engine.Context, error) {
	if e.NewContextFunc != nil {
		return e.NewContextFunc()
	}
	if e.closed {
		return nil, errors.New("engine is closed")
	}
	return &Context{eng: e}, nil
}

// Close calls the injected CloseFunc or marks the engine closed.
func (e *Engine) Close() error {
	if e.CloseFunc != nil {
		return e.CloseFunc()
	}
	e.closed = true
	return nil
}

// Closed reports whether Close has run.
func (e *Engine) Closed() bool { return e.closed }

// Context is a simulated execution context.
type Context struct {
	EnqueueFunc func(buffers []device.Ptr, stream device.Stream) error
	CloseFunc   func() error

	eng    *Engine
	closed bool
}

// Enqueue calls the injected EnqueueFunc or resolves the buffers and runs the
// engine's InferFunc.
func (c *Context) Enqueue(buffers []device.Ptr, stream device.Stream) error {
	if c.EnqueueFunc != nil {
		return c.EnqueueFunc(buffers, stream)
	}
	if c.closed {
		return errors.New("context is closed")
	}
	if len(buffers) != len(c.eng.bindings) {
		return errors.Errorf("%d buffers for %d bindings", len(buffers), len(c.eng.bindings))
	}
	if c.eng.InferFunc == nil {
		return nil
	}
	resolved := make([][]float32, len(buffers))
	for i, ptr := range buffers {
		buf, err := func() ([]float32, error) {
			c.eng.dev.mu.Lock()
			defer c.eng.dev.mu.Unlock()
			return c.eng.dev.resolve(ptr)
		}()
		if err != nil {
			return err
		}
		volume := c.eng.bindings[i].Dims.Volume()
		if len(buf) > volume {
			buf = buf[:volume]
		}
		resolved[i] = buf
	}
	return c.eng.InferFunc(resolved)
}

// Close calls the injected CloseFunc or marks the context closed.
func (c *Context) Close() error {
	if c.CloseFunc != nil {
		return c.CloseFunc()
	}
	c.closed = true
	return nil
}

// Loader is a simulated engine loader. It returns the configured Engine for
// any data, or whatever LoadFunc decides.
type Loader struct {
	Engine   *Engine
	LoadFunc func(data []byte) (engine.Engine, error)
}

// Load calls the injected LoadFunc or returns the configured engine.
func (l *Loader) Load(data []byte) (engine.Engine, error) {
	if l.LoadFunc != nil {
		return l.LoadFunc(data)
	}
	if l.Engine == nil {
		return nil, errors.New("no engine configured")
	}
	return l.Engine, nil
}

// Builder is a simulated engine builder. Real backends compile a model
// definition into engine bytes; the simulation hands the definition straight
// back, so Loader-and-Builder round trips can run in tests.
type Builder struct {
	BuildFunc func(ctx context.Context, model []byte, precision engine.Precision) ([]byte, error)
}

// Build calls the injected BuildFunc or returns the model bytes unchanged.
func (b *Builder) Build(ctx context.Context, model []byte, precision engine.Precision) ([]byte, error) {
	if b.BuildFunc != nil {
		return b.BuildFunc(ctx, model, precision)
	}
	return model, nil
}
