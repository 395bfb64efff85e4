package baf

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/baf/internal/ctxlog"
)

// Option adjusts a single build.
type Option func(*build)

// WithByteOrder overrides the byte order scalar codecs use for the whole
// build. The default is little-endian.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(b *build) { b.order = order }
}

// WithRootPath sets the directory relative File paths resolve against. The
// loaders default it to the source file's directory.
func WithRootPath(path string) Option {
	return func(b *build) { b.rootPath = path }
}

// build is the shared state of one compilation. A build is single-threaded:
// the scheduler is the only mutator of the datum tree, and setters run
// synchronously on its pass loop.
type build struct {
	ctx      context.Context
	order    binary.ByteOrder
	rootPath string

	// gen bumps on every completion and re-parenting; offset memos older
	// than the current generation are recomputed.
	gen int
	// completions counts datums finished within the current pass. A pass
	// that completes nothing while work remains is a dependency cycle.
	completions int
	// stalled collects the fields whose builds deferred this pass, with the
	// target they wait on, for the CyclicDependency report.
	stalled []stalledDatum
}

type stalledDatum struct {
	path   string
	target string
}

func (b *build) complete(d *base, data []byte) {
	d.data = data
	d.state = Complete
	b.gen++
	b.completions++
}

func (b *build) stall(d Datum, err error) {
	b.stalled = append(b.stalled, stalledDatum{path: datumPath(d), target: pendingTarget(err)})
}

// Build compiles the input value tree into a datum tree rooted at model. It
// walks the tree in declaration order, pass after pass, retrying deferred
// fields until every datum is Complete. A pass that resolves nothing fails
// the build with CyclicDependency listing the residual pending fields.
func Build(ctx context.Context, model Model, value cty.Value, opts ...Option) (Datum, error) {
	logger := ctxlog.FromContext(ctx)
	b := &build{ctx: ctx, order: binary.LittleEndian}
	for _, opt := range opts {
		opt(b)
	}

	root := model.instantiate(b, nil, "")
	in := input{val: value, hasVal: true}
	for pass := 1; ; pass++ {
		b.completions = 0
		b.stalled = b.stalled[:0]
		err := root.build(in)
		if err == nil {
			data, _ := root.Bytes()
			logger.Debug("Build complete.", "schema", model.TypeName(), "passes", pass, "bytes", len(data))
			return root, nil
		}
		if !isPending(err) {
			return nil, err
		}
		if b.completions == 0 {
			return nil, cyclicError(b.stalled)
		}
		logger.Debug("Pass finished with deferred work.",
			"pass", pass, "completed", b.completions, "deferred", len(b.stalled))
	}
}

func cyclicError(stalled []stalledDatum) error {
	parts := make([]string, len(stalled))
	for i, s := range stalled {
		parts[i] = fmt.Sprintf("%s pending on %s", s.path, s.target)
	}
	return newError(CyclicDependency, "could not resolve dependencies: %s", strings.Join(parts, ", "))
}
