package baf

import (
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Model is a reusable, immutable schema node. Models carry no build state;
// instantiation produces the per-build datum that does.
type Model interface {
	// TypeName is the short name used in breadcrumbs and the visualizer.
	TypeName() string
	// StaticSize reports the byte size knowable before any build, if any.
	StaticSize() (int, bool)

	instantiate(b *build, parent Datum, name string) Datum
}

// State tracks a datum through the scheduler.
type State int

const (
	Unstarted State = iota
	Running
	Pending
	Complete
)

func (s State) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case Running:
		return "running"
	case Pending:
		return "pending"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// Datum is a per-build instance of a Model. It holds the encoded bytes once
// built, a non-owning link to its parent, and its position in the output.
type Datum interface {
	Model() Model
	Name() string
	Parent() Datum
	State() State

	// Bytes returns the encoded output. It fails with a pending signal
	// unless the datum is Complete.
	Bytes() ([]byte, error)
	// Size returns the encoded size in bytes. Before completion it answers
	// for statically sized models, and block and array datums answer once
	// every child's size is known; otherwise it returns a pending signal
	// the scheduler treats as a deferral.
	Size() (int, error)
	// Offset returns the byte offset relative to the root datum. It defers
	// while any preceding sibling's size is unresolved.
	Offset() (int, error)

	build(in input) error
	setParent(parent Datum, name string)
}

// container is implemented by datums with ordered children. Child bytes
// concatenate in declaration order regardless of build order.
type container interface {
	Datum
	items() []Datum
}

// input is the derived build input for one datum. hasVal distinguishes "no
// input at all" from an explicit null.
type input struct {
	val     cty.Value
	hasVal  bool
	entries []SetterResult // array elements resolved by a setter
}

// base carries the state shared by every datum implementation.
type base struct {
	b      *build
	model  Model
	parent Datum
	name   string
	self   Datum
	state  State
	data   []byte

	offsetMemo int
	offsetGen  int
	hasOffset  bool
}

func (d *base) init(b *build, m Model, parent Datum, name string, self Datum) {
	d.b = b
	d.model = m
	d.parent = parent
	d.name = name
	d.self = self
}

func (d *base) Model() Model  { return d.model }
func (d *base) Name() string  { return d.name }
func (d *base) Parent() Datum { return d.parent }
func (d *base) State() State  { return d.state }

func (d *base) setParent(parent Datum, name string) {
	d.parent = parent
	d.name = name
	d.hasOffset = false
	// Any offsets cached inside the re-parented subtree are stale now.
	d.b.gen++
}

func (d *base) Bytes() ([]byte, error) {
	if d.state != Complete {
		return nil, pendingOn(datumPath(d.self))
	}
	return d.data, nil
}

func (d *base) Size() (int, error) {
	if d.state == Complete {
		return len(d.data), nil
	}
	if n, ok := d.model.StaticSize(); ok {
		return n, nil
	}
	return 0, pendingOn(datumPath(d.self))
}

// Offset is the sum of the sizes of all preceding siblings in declaration
// order plus the parent's offset. The memo is invalidated whenever any datum
// completes, since a completion can change an upstream size.
func (d *base) Offset() (int, error) {
	if d.parent == nil {
		return 0, nil
	}
	if d.hasOffset && d.offsetGen == d.b.gen {
		return d.offsetMemo, nil
	}
	parentOff, err := d.parent.Offset()
	if err != nil {
		return 0, err
	}
	c, ok := d.parent.(container)
	if !ok {
		return 0, pendingOn(datumPath(d.self))
	}
	off := parentOff
	for _, sib := range c.items() {
		if sib == d.self {
			d.offsetMemo = off
			d.offsetGen = d.b.gen
			d.hasOffset = true
			return off, nil
		}
		n, err := sib.Size()
		if err != nil {
			return 0, err
		}
		off += n
	}
	return 0, pendingOn(datumPath(d.self))
}

// datumPath renders a dotted path from the root for diagnostics.
func datumPath(d Datum) string {
	var parts []string
	for cur := d; cur != nil; cur = cur.Parent() {
		if cur.Name() != "" {
			parts = append([]string{cur.Name()}, parts...)
		}
	}
	if len(parts) == 0 {
		return d.Model().TypeName()
	}
	return strings.Join(parts, ".")
}
