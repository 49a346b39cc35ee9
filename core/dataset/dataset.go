// Package dataset provides the lazy batched stream consumed by adapters,
// analysers and preprocessors.
//
// A Dataset is streamed with Stream; the producer runs in its own goroutine
// and stops when the context is cancelled. Consumers read batches in order and
// never need random access, so a dataset never has to be materialized.
package dataset

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/YuminosukeSato/autoscigo/core/tensor"
	"github.com/YuminosukeSato/autoscigo/pkg/errors"
)

// DefaultBatchSize is used when a non-positive batch size is requested.
const DefaultBatchSize = 32

// Batch is one element of a stream. Exactly one of Data and Err is set.
type Batch struct {
	Data *tensor.Tensor
	Err  error
}

// Dataset is a lazily produced sequence of batches.
type Dataset interface {
	// Stream starts producing batches. The channel is closed after the last
	// batch, after an error batch, or when ctx is done.
	Stream(ctx context.Context) <-chan Batch
}

// ColumnNamer is implemented by tabular sources that carry a header.
type ColumnNamer interface {
	Columns() []string
}

// SingleUse is implemented by sources that can only be streamed once.
type SingleUse interface {
	SingleUse() bool
}

// IsSingleUse reports whether v is a dataset that can only be streamed once.
func IsSingleUse(v any) bool {
	s, ok := v.(SingleUse)
	return ok && s.SingleUse()
}

// NextFunc returns the next batch, or io.EOF when the source is exhausted.
type NextFunc func(ctx context.Context) (*tensor.Tensor, error)

// ForEach streams ds once and calls fn for every batch in order. The first
// error from the stream or from fn stops the producer and is returned.
func ForEach(ctx context.Context, ds Dataset, fn func(*tensor.Tensor) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for b := range ds.Stream(ctx) {
		if b.Err != nil {
			return b.Err
		}
		if err := fn(b.Data); err != nil {
			return err
		}
	}
	return ctx.Err()
}

var errStop = errors.New("stop")

// First returns the first batch of ds and stops the producer.
func First(ctx context.Context, ds Dataset) (*tensor.Tensor, error) {
	var first *tensor.Tensor
	err := ForEach(ctx, ds, func(t *tensor.Tensor) error {
		first = t
		return errStop
	})
	if first != nil {
		return first, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, errors.Wrap(errors.ErrEmptyData, "dataset.First")
}

// Collect concatenates every batch of ds along the batch axis.
func Collect(ctx context.Context, ds Dataset) (*tensor.Tensor, error) {
	var parts []*tensor.Tensor
	err := ForEach(ctx, ds, func(t *tensor.Tensor) error {
		parts = append(parts, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset.Collect")
	}
	return tensor.Concat(parts...)
}

func send(ctx context.Context, out chan<- Batch, b Batch) bool {
	select {
	case out <- b:
		return true
	case <-ctx.Done():
		return false
	}
}

// memory slices an in-memory tensor into batches.
type memory struct {
	data      *tensor.Tensor
	batchSize int
	columns   []string
}

// FromTensor returns a re-streamable dataset over t.
func FromTensor(t *tensor.Tensor, batchSize int) Dataset {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &memory{data: t, batchSize: batchSize}
}

func (m *memory) Stream(ctx context.Context) <-chan Batch {
	out := make(chan Batch)
	go func() {
		defer close(out)
		n := m.data.BatchSize()
		for start := 0; start < n; start += m.batchSize {
			end := start + m.batchSize
			if end > n {
				end = n
			}
			rows, err := m.data.Rows(start, end)
			if err != nil {
				send(ctx, out, Batch{Err: err})
				return
			}
			if !send(ctx, out, Batch{Data: rows}) {
				return
			}
		}
	}()
	return out
}

func (m *memory) Columns() []string { return m.columns }

// generator pulls batches from a NextFunc created per stream.
type generator struct {
	open func() (NextFunc, error)
}

// FromGenerator returns a dataset that calls open at the start of every
// stream and then pulls batches until io.EOF.
func FromGenerator(open func() (NextFunc, error)) Dataset {
	return &generator{open: open}
}

func (g *generator) Stream(ctx context.Context) <-chan Batch {
	out := make(chan Batch)
	go func() {
		defer close(out)
		next, err := errors.SafeCall("dataset.Generator.Open", g.open)
		if err != nil {
			send(ctx, out, Batch{Err: err})
			return
		}
		for {
			t, err := errors.SafeCall("dataset.Generator.Next", func() (*tensor.Tensor, error) {
				return next(ctx)
			})
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				send(ctx, out, Batch{Err: err})
				return
			}
			if !send(ctx, out, Batch{Data: t}) {
				return
			}
		}
	}()
	return out
}

// channel forwards tensors from a caller-owned channel. It can be streamed once.
type channel struct {
	in       <-chan *tensor.Tensor
	consumed atomic.Bool
}

// FromChannel wraps a channel of batches. The resulting dataset can only be
// streamed once; later streams yield errors.ErrConsumed.
func FromChannel(in <-chan *tensor.Tensor) Dataset {
	return &channel{in: in}
}

// SingleUse implements SingleUse.
func (c *channel) SingleUse() bool { return true }

func (c *channel) Stream(ctx context.Context) <-chan Batch {
	out := make(chan Batch)
	go func() {
		defer close(out)
		if c.consumed.Swap(true) {
			send(ctx, out, Batch{Err: errors.WithStack(errors.ErrConsumed)})
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-c.in:
				if !ok {
					return
				}
				if !send(ctx, out, Batch{Data: t}) {
					return
				}
			}
		}
	}()
	return out
}

// mapped applies fn to every batch of a parent dataset.
type mapped struct {
	parent Dataset
	fn     func(*tensor.Tensor) (*tensor.Tensor, error)
}

// Map returns a dataset whose batches are fn applied to the batches of ds.
// Column names of ds, if any, are preserved.
func Map(ds Dataset, fn func(*tensor.Tensor) (*tensor.Tensor, error)) Dataset {
	m := &mapped{parent: ds, fn: fn}
	if named, ok := ds.(ColumnNamer); ok {
		return &namedMapped{mapped: m, columns: named.Columns()}
	}
	return m
}

func (m *mapped) Stream(ctx context.Context) <-chan Batch {
	out := make(chan Batch)
	go func() {
		defer close(out)
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		for b := range m.parent.Stream(ctx) {
			if b.Err != nil {
				send(ctx, out, b)
				return
			}
			t, err := m.fn(b.Data)
			if err != nil {
				send(ctx, out, Batch{Err: err})
				return
			}
			if !send(ctx, out, Batch{Data: t}) {
				return
			}
		}
	}()
	return out
}

type namedMapped struct {
	*mapped
	columns []string
}

func (n *namedMapped) Columns() []string { return n.columns }

// WithColumns attaches column names to ds.
func WithColumns(ds Dataset, columns []string) Dataset {
	if m, ok := ds.(*mapped); ok {
		return &namedMapped{mapped: m, columns: append([]string(nil), columns...)}
	}
	if n, ok := ds.(*namedMapped); ok {
		return &namedMapped{mapped: n.mapped, columns: append([]string(nil), columns...)}
	}
	return &named{Dataset: ds, columns: append([]string(nil), columns...)}
}

type named struct {
	Dataset
	columns []string
}

func (n *named) Columns() []string { return n.columns }

// cached records the batches of its first complete stream and replays them
// on later streams.
type cached struct {
	src Dataset

	mu       sync.Mutex
	started  bool
	complete bool
	batches  []*tensor.Tensor
}

// Cache makes a single-use dataset re-streamable by keeping its batches in
// memory. The first stream must run to the end; if it stops early, later
// streams yield errors.ErrConsumed. Column names of ds are preserved.
func Cache(ds Dataset) Dataset {
	c := &cached{src: ds}
	if n, ok := ds.(ColumnNamer); ok {
		return &named{Dataset: c, columns: n.Columns()}
	}
	return c
}

func (c *cached) Stream(ctx context.Context) <-chan Batch {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.complete:
		return FromTensorBatches(c.batches).Stream(ctx)
	case c.started:
		out := make(chan Batch, 1)
		out <- Batch{Err: errors.Wrap(errors.ErrConsumed, "dataset.Cache")}
		close(out)
		return out
	}
	c.started = true

	out := make(chan Batch)
	go func() {
		defer close(out)
		var rec []*tensor.Tensor
		for b := range c.src.Stream(ctx) {
			if !send(ctx, out, b) || b.Err != nil {
				return
			}
			rec = append(rec, b.Data)
		}
		if ctx.Err() != nil {
			return
		}
		c.mu.Lock()
		c.batches = rec
		c.complete = true
		c.mu.Unlock()
	}()
	return out
}

// batches replays a fixed list of batches.
type batches []*tensor.Tensor

// FromTensorBatches returns a re-streamable dataset yielding bs in order.
func FromTensorBatches(bs []*tensor.Tensor) Dataset {
	return batches(append([]*tensor.Tensor(nil), bs...))
}

func (bs batches) Stream(ctx context.Context) <-chan Batch {
	out := make(chan Batch)
	go func() {
		defer close(out)
		for _, t := range bs {
			if !send(ctx, out, Batch{Data: t}) {
				return
			}
		}
	}()
	return out
}
